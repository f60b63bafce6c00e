package settings

import (
	"context"

	"github.com/go-playground/mold/v4"
	"github.com/go-playground/validator/v10"
	"github.com/leodido/envalid/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Option configures how settings are loaded.
type Option func(*loader)

type loader struct {
	ctx             context.Context
	fs              afero.Fs
	files           []string
	discovery       *config.Options
	environment     map[string]string
	prefix          string
	caseSensitive   bool
	requiredIfNoDef bool
	validate        *validator.Validate
	transformer     *mold.Transformer
	log             *zap.Logger
}

// WithContext sets the context passed to transformers and validators.
func WithContext(ctx context.Context) Option {
	return func(l *loader) {
		l.ctx = ctx
	}
}

// WithFs sets the filesystem env files are read from.
func WithFs(fs afero.Fs) Option {
	return func(l *loader) {
		l.fs = fs
	}
}

// WithEnvFiles reads the given env files, in order, below the environment.
//
// Files that do not exist are skipped. Values in later files win.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.files = append(l.files, paths...)
	}
}

// WithDiscovery looks for an env file as described by the given options.
//
// The discovered file is read before the ones given with WithEnvFiles.
func WithDiscovery(opts config.Options) Option {
	return func(l *loader) {
		l.discovery = &opts
	}
}

// WithEnvironment replaces the process environment with the given variables.
func WithEnvironment(environment map[string]string) Option {
	return func(l *loader) {
		l.environment = environment
	}
}

// WithPrefix prepends the prefix to every environment variable (eg., "APP" reads APP_PORT for Port).
//
// The prefix is not part of the field names in the reported issues.
func WithPrefix(prefix string) Option {
	return func(l *loader) {
		l.prefix = prefix
	}
}

// WithCaseSensitive disables the case-insensitive lookup of environment variables.
func WithCaseSensitive() Option {
	return func(l *loader) {
		l.caseSensitive = true
	}
}

// WithRequiredIfNoDefault makes every field without an envDefault tag required.
func WithRequiredIfNoDefault() Option {
	return func(l *loader) {
		l.requiredIfNoDef = true
	}
}

// WithValidator sets the validator checking the validate tags.
func WithValidator(v *validator.Validate) Option {
	return func(l *loader) {
		l.validate = v
	}
}

// WithTransformer sets the transformer applying the mod tags.
func WithTransformer(t *mold.Transformer) Option {
	return func(l *loader) {
		l.transformer = t
	}
}

// WithLogger sets the logger for debug messages.
func WithLogger(log *zap.Logger) Option {
	return func(l *loader) {
		l.log = log
	}
}
