package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "log.level") to their
// [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	"version": {
		Comment: "Config schema version. Do not edit.",
	},
	"targets": {
		Comment: "Directories removed and recreated empty by global setup.\nPaths are relative to the project root and must stay inside it.",
		Alternatives: []string{
			`targets = ["test-results", "playwright-report", "blob-report"]`,
		},
	},
	"strict_types": {
		Comment: "When a regular file or symlink sits where a target directory should be,\nfalse replaces it with an empty directory and true fails setup instead.",
	},
	"protect": {
		Comment: "Glob patterns (doublestar syntax) for paths setup must never reset.",
		Alternatives: []string{
			`protect = ["**/.git", "node_modules/**", "src/**"]`,
		},
	},

	"log": {
		Comment: "Run log output. Records always go to stdout.",
	},
	"log.level": {
		Comment: "Minimum level: trace, debug, info, warn, error.",
	},
	"log.file": {
		Comment: "Also write records to this rotating file (relative to the project root).",
		Alternatives: []string{
			`file = "e2ehooks.log"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
}
