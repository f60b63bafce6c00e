package internalscope

import (
	"context"
	"sync"

	"github.com/leodido/envalid/config"
	"github.com/leodido/envalid/report"
	"github.com/spf13/cobra"
)

// envalidContextKey is used to store scope in command context
type envalidContextKey struct{}

// Scope holds per-command state for envalid
type Scope struct {
	envFile      *config.Options
	reportOpts   *report.Options
	reportFormat *report.Format
	wrapped      map[*cobra.Command]bool
	mu           sync.RWMutex
}

// Get retrieves or creates a scope for the given command
func Get(c *cobra.Command) *Scope {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Check if command already has scope
	if s, ok := ctx.Value(envalidContextKey{}).(*Scope); ok {
		return s
	}

	// Create new scope (ensures isolation even with context inheritance)
	s := &Scope{
		wrapped: make(map[*cobra.Command]bool),
	}

	// Attach to command context
	newCtx := context.WithValue(ctx, envalidContextKey{}, s)
	c.SetContext(newCtx)

	return s
}

// SetEnvFile stores how the env file gets discovered
func (s *Scope) SetEnvFile(opts config.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envFile = &opts
}

// EnvFile returns how the env file gets discovered, if set up
func (s *Scope) EnvFile() (config.Options, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.envFile == nil {
		return config.Options{}, false
	}

	return *s.envFile, true
}

// SetReport stores the report options and the format selected by the user
func (s *Scope) SetReport(opts report.Options, format *report.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportOpts = &opts
	s.reportFormat = format
}

// Report returns the report options and the selected format, if set up
func (s *Scope) Report() (report.Options, report.Format, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.reportOpts == nil {
		return report.Options{}, report.Box, false
	}
	format := s.reportOpts.Format
	if s.reportFormat != nil {
		format = *s.reportFormat
	}

	return *s.reportOpts, format, true
}

// MarkWrapped records that the run hooks of c were wrapped, returning false if they already were
func (s *Scope) MarkWrapped(c *cobra.Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wrapped[c] {
		return false
	}
	s.wrapped[c] = true

	return true
}
