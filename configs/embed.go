// Package configs provides embedded configuration templates for indexwrap.
//
// Templates are embedded at build time so `indexwrap config init` works from
// any distribution. Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/indexwrap/config.yaml)
//  3. Project config (.indexwrap.yaml)
//  4. Environment variables (INDEXWRAP_*)
package configs

import _ "embed"

// UserConfigTemplate is written by `indexwrap config init --user`.
// It holds settings shared by every project on the machine.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written by `indexwrap config init` as
// .indexwrap.yaml in the project root. It holds the route table.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
