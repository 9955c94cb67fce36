package e2ehooks

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. `e2ehooks init` writes it to the project root.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
