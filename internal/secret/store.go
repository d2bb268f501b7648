package secret

import (
	"os"
	"strings"
	"sync"
)

// SecretStore holds credentials such as the generator API key.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get returns the value for key, or an empty slice and nil error when it
	// does not exist.
	Get(key string) ([]byte, error)

	Delete(key string) error
}

// GeminiKey is the store key for the Gemini API key.
const GeminiKey = "gemini-api-key"

// Resolve returns the secret for key from store, falling back to the env
// variable. A nil store only consults the environment.
func Resolve(store SecretStore, key, env string) string {
	if store != nil {
		if v, err := store.Get(key); err == nil && len(v) > 0 {
			return strings.TrimSpace(string(v))
		}
	}
	return strings.TrimSpace(os.Getenv(env))
}

// MemoryStore keeps secrets in process memory.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string][]byte)}
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
