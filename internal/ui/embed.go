// Package ui embeds the built frontend assets.
package ui

import "embed"

// DistFS holds the compiled frontend served at the HTTP root.
//
//go:embed dist
var DistFS embed.FS
