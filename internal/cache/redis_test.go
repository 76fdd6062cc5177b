// internal/cache/redis_test.go
package cache

import (
	"strings"
	"testing"
)

func TestKeyIsDeterministic(t *testing.T) {
	data := []byte("image payload")

	first := Key(data)
	second := Key(data)
	if first != second {
		t.Errorf("Key is not deterministic: %s != %s", first, second)
	}

	if !strings.HasPrefix(first, "screen:") {
		t.Errorf("Expected screen: prefix, got %s", first)
	}

	// sha256 hex digest is 64 chars
	if len(first) != len("screen:")+64 {
		t.Errorf("Unexpected key length %d: %s", len(first), first)
	}
}

func TestKeyDiffersPerPayload(t *testing.T) {
	if Key([]byte("photo a")) == Key([]byte("photo b")) {
		t.Error("Different payloads produced the same key")
	}
}
