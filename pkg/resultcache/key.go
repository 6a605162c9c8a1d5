package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key derives a deterministic cache key from a tool's identity and its
// argument map. Marshaling sorts map keys at every nesting level, so
// structurally identical argument sets produce the same key regardless
// of map iteration order.
func Key(tool, version string, args map[string]interface{}) (string, error) {
	payload := struct {
		Tool    string                 `json:"tool"`
		Version string                 `json:"version"`
		Params  map[string]interface{} `json:"params"`
	}{
		Tool:    tool,
		Version: version,
		Params:  args,
	}

	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize arguments: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
