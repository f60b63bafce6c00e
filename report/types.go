package report

import (
	"github.com/thediveo/enumflag/v2"
)

// Format selects how a configuration error is shown.
type Format enumflag.Flag

const (
	// Box draws the issues inside a bordered box.
	Box Format = iota
	// Plain lists the issues without borders.
	Plain
	// JSON writes the issues as a JSON object.
	JSON
)

// FormatIds maps the formats to their textual names.
var FormatIds = map[Format][]string{
	Box:   {"box"},
	Plain: {"plain", "text"},
	JSON:  {"json"},
}

// Options configures the report of configuration errors for command-line applications.
type Options struct {
	AppName  string
	FlagName string // Name of the report flag (defaults to "report")
	EnvVar   string // Environment variable (defaults to {APP}_REPORT)
	Format   Format // Format used when neither the flag nor the environment variable are set
	Title    string // Overrides the title of the report
	Hint     string // Overrides the hint of the report
}
