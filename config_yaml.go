package ninelives

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// SnapshotToYAML renders a [ConfigRegistry.Snapshot] result as YAML, one
// top-level key per dotted path, with each path's JSON-encoded value
// decoded back into a generic structure first so the YAML output is
// readable rather than a string holding embedded JSON.
func SnapshotToYAML(snap map[string]string) ([]byte, error) {
	decoded := make(map[string]any, len(snap))

	for path, raw := range snap {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("ninelives: decode snapshot %q: %w", path, err)
		}

		decoded[path] = v
	}

	out, err := yaml.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("ninelives: marshal snapshot yaml: %w", err)
	}

	return out, nil
}

// SnapshotFromYAML parses a document produced by [SnapshotToYAML] back
// into the path -> JSON-value map [ConfigRegistry.ApplySnapshot] expects.
func SnapshotFromYAML(doc []byte) (map[string]string, error) {
	var decoded map[string]any

	if err := yaml.Unmarshal(doc, &decoded); err != nil {
		return nil, fmt.Errorf("ninelives: parse snapshot yaml: %w", err)
	}

	snap := make(map[string]string, len(decoded))

	for path, v := range decoded {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("ninelives: encode snapshot %q: %w", path, err)
		}

		snap[path] = string(b)
	}

	return snap, nil
}
