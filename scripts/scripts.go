// Package scripts embeds the Risor loader scripts so the CLI works
// without a scripts directory on disk.
package scripts

import "embed"

//go:embed load/*.risor
var FS embed.FS
