package secret

import "testing"

func TestResolve(t *testing.T) {
	t.Setenv("LAYR_TEST_KEY", " from-env ")
	mem := NewMemoryStore()

	if got := Resolve(nil, GeminiKey, "LAYR_TEST_KEY"); got != "from-env" {
		t.Errorf("nil store = %q", got)
	}
	if got := Resolve(mem, GeminiKey, "LAYR_TEST_KEY"); got != "from-env" {
		t.Errorf("empty store = %q", got)
	}
	mem.Set(GeminiKey, []byte("from-store\n"))
	if got := Resolve(mem, GeminiKey, "LAYR_TEST_KEY"); got != "from-store" {
		t.Errorf("store = %q", got)
	}
	mem.Delete(GeminiKey)
	if got := Resolve(mem, GeminiKey, "LAYR_UNSET_KEY"); got != "" {
		t.Errorf("nothing configured = %q", got)
	}
}
