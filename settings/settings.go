package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	internalconfig "github.com/leodido/envalid/internal/config"
	internalenv "github.com/leodido/envalid/internal/env"
	internalschema "github.com/leodido/envalid/internal/schema"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Load reads settings of type T from env files and the environment.
//
// T must be a struct type. On failure it returns the zero T.
// Bad values are reported with an *Error, anything else (eg., a malformed struct definition) as is.
func Load[T any](opts ...Option) (T, error) {
	var res T
	if err := Parse(&res, opts...); err != nil {
		var zero T

		return zero, err
	}

	return res, nil
}

// New returns a constructor for settings of type T, meant for envalid.Validate.
func New[T any](opts ...Option) func() (T, error) {
	return func() (T, error) {
		return Load[T](opts...)
	}
}

// Parse fills the struct pointed to by v.
//
// Values come from the env files (discovered or given) overlaid by the environment.
// The struct is then transformed (mod tags, TransformableSettings) and validated (validate tags, ValidatableSettings).
func Parse(v any, opts ...Option) error {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}
	l.defaults()

	idx, err := internalschema.Build(v, internalschema.Options{
		Prefix:                l.prefix,
		UseFieldNameByDefault: true,
	})
	if err != nil {
		return err
	}

	environment, err := l.environ(idx)
	if err != nil {
		return err
	}

	var (
		issues []issue
		causes []error
	)

	envErr := env.ParseWithOptions(v, env.Options{
		Environment:           environment,
		Prefix:                l.prefix,
		UseFieldNameByDefault: true,
		RequiredIfNoDef:       l.requiredIfNoDef,
		FuncMap:               funcMap,
		OnSet: func(key string, _ any, isDefault bool) {
			l.log.Debug("setting resolved", zap.String("key", key), zap.Bool("default", isDefault))
		},
	})
	if envErr != nil {
		found, ok := fromEnv(envErr, idx, v, l.prefix, environment)
		if !ok {
			return envErr
		}
		issues = append(issues, found...)
		causes = append(causes, envErr)
	}

	if err := l.transformer.Struct(l.ctx, v); err != nil {
		return fmt.Errorf("couldn't transform settings: %w", err)
	}
	if t, ok := v.(TransformableSettings); ok {
		if err := t.Transform(l.ctx); err != nil {
			return fmt.Errorf("couldn't transform settings: %w", err)
		}
	}

	if valErr := l.validate.StructCtx(l.ctx, v); valErr != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(valErr, &fieldErrs) {
			return valErr
		}
		issues = append(issues, fromValidator(fieldErrs, idx, l.prefix)...)
		causes = append(causes, valErr)
	}

	if s, ok := v.(ValidatableSettings); ok {
		if errs := s.Validate(l.ctx); len(errs) > 0 {
			issues = append(issues, fromCustom(errs, idx, l.prefix)...)
			causes = append(causes, errs...)
		}
	}

	if len(issues) == 0 {
		return nil
	}

	res := newError(issues, causes)
	l.log.Debug("settings have issues", zap.Int("count", len(res.entries)))

	return res
}

func (l *loader) defaults() {
	if l.ctx == nil {
		l.ctx = context.Background()
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if l.validate == nil {
		l.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if l.transformer == nil {
		l.transformer = modifiers.New()
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	l.prefix = internalenv.NormPrefix(l.prefix)
}

// environ builds the variables the settings are read from.
func (l *loader) environ(idx *internalschema.Index) (map[string]string, error) {
	process := l.environment
	if process == nil {
		process = internalenv.FromOS()
	}

	files := []string{}
	if l.discovery != nil {
		opts := internalconfig.Defaults(*l.discovery, "")
		if found := internalconfig.Discover(l.fs, "", opts, internalenv.Overlay(l.caseSensitive, process)); found != "" {
			l.log.Debug("env file discovered", zap.String("path", found))
			files = append(files, found)
		}
	}
	files = append(files, l.files...)

	fromFiles, err := internalconfig.Read(l.fs, files, l.log)
	if err != nil {
		return nil, err
	}

	res := internalenv.Overlay(l.caseSensitive, fromFiles, process)
	if l.caseSensitive {
		return res, nil
	}

	// Keys are upper case now, but the parser looks them up exactly as declared
	for _, f := range idx.Fields() {
		if val, ok := res[strings.ToUpper(f.Key)]; ok {
			res[f.Key] = val
		}
	}

	return res, nil
}

var funcMap = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(false): parseBool,
}

// parseBool accepts the usual spellings of booleans in env files.
func parseBool(value string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}

	return nil, fmt.Errorf("invalid boolean value %q", value)
}
