package config

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/e2ehooks/internal/migrate"
	"tools.zach/dev/e2ehooks/internal/paths"
)

// Migrations is the schema registry for e2ehooks.toml.
var Migrations = &migrate.Registry{CurrentVersion: 2}

func init() {
	Migrations.Register(migrate.Migration{
		Version:     2,
		Description: "fold results_dir and report_dir into targets",
		Upgrade:     foldTargetKeys,
	})
}

// foldTargetKeys rewrites a v1 document, which named exactly two directories
// through results_dir and report_dir, into the v2 targets list. Keys the v1
// document left out fall back to the v1 defaults.
func foldTargetKeys(data []byte) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode v1 config: %w", err)
	}

	targets := paths.DefaultTargets()
	for i, key := range []string{"results_dir", "report_dir"} {
		v, ok := doc[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %T", key, v)
		}
		targets[i] = s
		delete(doc, key)
	}
	if _, ok := doc["targets"]; !ok {
		doc["targets"] = targets
	}
	doc["version"] = 2

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode v2 config: %w", err)
	}
	return buf.Bytes(), nil
}
