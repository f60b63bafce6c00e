package internalscope

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/leodido/envalid/config"
	"github.com/leodido/envalid/report"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SameScopeForSameCommand(t *testing.T) {
	c := &cobra.Command{Use: "app"}

	s1 := Get(c)
	s2 := Get(c)

	assert.Same(t, s1, s2)
}

func TestGet_InheritedThroughContext(t *testing.T) {
	rootC := &cobra.Command{Use: "app"}
	s := Get(rootC)

	subC := &cobra.Command{Use: "sub"}
	subC.SetContext(rootC.Context())

	assert.Same(t, s, Get(subC))
}

func TestGet_KeepsExistingContextValues(t *testing.T) {
	type key struct{}
	c := &cobra.Command{Use: "app"}
	c.SetContext(context.WithValue(context.Background(), key{}, "value"))

	Get(c)

	assert.Equal(t, "value", c.Context().Value(key{}))
}

func TestScope_EnvFile(t *testing.T) {
	s := Get(&cobra.Command{Use: "app"})

	_, ok := s.EnvFile()
	assert.False(t, ok)

	s.SetEnvFile(config.Options{AppName: "app", FileName: ".env.local"})
	opts, ok := s.EnvFile()
	require.True(t, ok)
	assert.Equal(t, ".env.local", opts.FileName)
}

func TestScope_Report(t *testing.T) {
	s := Get(&cobra.Command{Use: "app"})

	_, format, ok := s.Report()
	assert.False(t, ok)
	assert.Equal(t, report.Box, format)

	s.SetReport(report.Options{Format: report.Plain}, nil)
	_, format, ok = s.Report()
	require.True(t, ok)
	assert.Equal(t, report.Plain, format)

	selected := report.JSON
	s.SetReport(report.Options{Format: report.Plain}, &selected)
	_, format, _ = s.Report()
	assert.Equal(t, report.JSON, format)
}

func TestScope_MarkWrapped(t *testing.T) {
	c := &cobra.Command{Use: "app"}
	s := Get(c)

	assert.True(t, s.MarkWrapped(c))
	assert.False(t, s.MarkWrapped(c))
}

func TestScope_ConcurrentAccess(t *testing.T) {
	const numGoroutines = 50

	s := Get(&cobra.Command{Use: "app"})

	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			s.SetEnvFile(config.Options{AppName: fmt.Sprintf("app%d", id)})
			s.MarkWrapped(&cobra.Command{Use: fmt.Sprintf("cmd%d", id)})
		}(i)
		go func() {
			defer wg.Done()
			s.EnvFile()
			s.Report()
		}()
	}
	wg.Wait()

	opts, ok := s.EnvFile()
	require.True(t, ok)
	assert.Contains(t, opts.AppName, "app")
}
