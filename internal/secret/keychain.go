package secret

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const keychainService = "layr"

// KeychainStore keeps secrets in the OS credential store: the macOS
// `security` CLI, or libsecret's `secret-tool` on Linux. Where neither is
// available every Get misses, so Resolve falls through to the env.
type KeychainStore struct {
	goos string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{goos: runtime.GOOS}
}

// Set replaces any existing entry for key.
func (k *KeychainStore) Set(key string, value []byte) error {
	var cmd *exec.Cmd
	switch k.goos {
	case "darwin":
		cmd = exec.Command("security", "add-generic-password",
			"-a", key, "-s", keychainService, "-w", string(value), "-U")
	case "linux":
		cmd = exec.Command("secret-tool", "store",
			"--label", keychainService+" "+key, "service", keychainService, "account", key)
		cmd.Stdin = bytes.NewReader(value)
	default:
		return fmt.Errorf("keychain set: no credential store on %s", k.goos)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get returns nil for a missing item, and for any other lookup failure.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	var cmd *exec.Cmd
	switch k.goos {
	case "darwin":
		cmd = exec.Command("security", "find-generic-password", "-a", key, "-s", keychainService, "-w")
	case "linux":
		cmd = exec.Command("secret-tool", "lookup", "service", keychainService, "account", key)
	default:
		return nil, nil
	}
	out, err := cmd.Output()
	if err != nil {
		// security exits 44 for "item not found", secret-tool exits 1
		return nil, nil
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	switch k.goos {
	case "darwin":
		exec.Command("security", "delete-generic-password", "-a", key, "-s", keychainService).Run()
	case "linux":
		exec.Command("secret-tool", "clear", "service", keychainService, "account", key).Run()
	}
	return nil
}
