package envalid

import (
	"errors"

	envaliderrors "github.com/leodido/envalid/errors"
	"github.com/leodido/envalid/settings"
	"go.uber.org/zap"
)

type (
	ConfigurationError = envaliderrors.ConfigurationError
	Issue              = envaliderrors.Issue
	Entry              = envaliderrors.Entry
	EntryReporter      = envaliderrors.EntryReporter
)

// Extractor recognizes the validation failures of a settings backend.
//
// It returns the failures as entries, and false when err is not a validation failure it knows about.
type Extractor func(err error) ([]Entry, bool)

// Option configures Validate and Translate.
type Option func(*options)

type options struct {
	title      string
	hint       string
	width      int
	extractors []Extractor
	settings   []settings.Option
	log        *zap.Logger
}

// WithTitle overrides the title of the configuration error.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithHint overrides the hint of the configuration error.
func WithHint(hint string) Option {
	return func(o *options) {
		o.hint = hint
	}
}

// WithWidth sets the terminal width the configuration error is rendered for.
func WithWidth(width int) Option {
	return func(o *options) {
		o.width = width
	}
}

// WithExtractor teaches Translate about the validation failures of another settings backend.
//
// Extractors are tried in order, before looking for an EntryReporter.
func WithExtractor(extractor Extractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractor)
	}
}

// WithSettings passes options to the settings loader used by ValidateSettings and ValidateCommand.
func WithSettings(opts ...settings.Option) Option {
	return func(o *options) {
		o.settings = append(o.settings, opts...)
	}
}

// WithLogger sets the logger for debug messages.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	return o
}

// Validate calls construct and turns its validation failures into a *ConfigurationError.
//
// The value built by construct is returned as is on success.
// Errors that are not validation failures are returned unchanged.
func Validate[T any](construct func() (T, error), opts ...Option) (T, error) {
	o := newOptions(opts)

	res, err := construct()
	if err == nil {
		return res, nil
	}

	var zero T
	cfgErr, ok := translate(err, o)
	if !ok {
		var defErr envaliderrors.DefinitionError
		if errors.As(err, &defErr) {
			o.log.Debug("settings definition is not valid", zap.String("field", defErr.Field()), zap.Error(err))
		} else {
			o.log.Debug("not a validation failure, passing it through", zap.Error(err))
		}

		return zero, err
	}
	o.log.Debug("settings are not valid", zap.Int("issues", len(cfgErr.Issues)), zap.Strings("missing", cfgErr.MissingFields()))

	return zero, cfgErr
}

// ValidateSettings loads settings of type T from the environment and validates them.
func ValidateSettings[T any](opts ...Option) (T, error) {
	o := newOptions(opts)
	loadOpts := append([]settings.Option{settings.WithLogger(o.log)}, o.settings...)

	return Validate(settings.New[T](loadOpts...), opts...)
}

// Translate converts a validation failure into a *ConfigurationError.
//
// It returns false when err is not a validation failure.
func Translate(err error, opts ...Option) (*ConfigurationError, bool) {
	return translate(err, newOptions(opts))
}

func translate(err error, o *options) (*ConfigurationError, bool) {
	res, ok := reusable(err)
	if !ok {
		entries, ok := extract(err, o.extractors)
		if !ok {
			return nil, false
		}

		issues := make([]Issue, 0, len(entries))
		for _, entry := range entries {
			issues = append(issues, entry.Issue())
		}
		res = envaliderrors.NewConfigurationError(issues)
	}

	if o.title != "" {
		res = res.WithTitle(o.title)
	}
	if o.hint != "" {
		res = res.WithHint(o.hint)
	}
	if o.width > 0 {
		res = res.WithWidth(o.width)
	}

	return res, true
}

// reusable finds a *ConfigurationError that err is, or wraps through single errors.
func reusable(err error) (*ConfigurationError, bool) {
	for err != nil {
		if cfgErr, ok := err.(*ConfigurationError); ok {
			return cfgErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}

	return nil, false
}

// extract looks for the entries of a validation failure in the chain of err.
//
// Joined errors are validation failures only when all of them are.
func extract(err error, extractors []Extractor) ([]Entry, bool) {
	if err == nil {
		return nil, false
	}

	for _, extractor := range extractors {
		if entries, ok := extractor(err); ok {
			return entries, true
		}
	}

	if cfgErr, ok := err.(*ConfigurationError); ok {
		res := make([]Entry, 0, len(cfgErr.Issues))
		for _, issue := range cfgErr.Issues {
			res = append(res, Entry{Location: []string{issue.Field}, Kind: issue.Kind})
		}

		return res, true
	}

	if reporter, ok := err.(EntryReporter); ok {
		return reporter.Entries(), true
	}

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		branches := e.Unwrap()
		if len(branches) == 0 {
			return nil, false
		}
		res := []Entry{}
		for _, branch := range branches {
			entries, ok := extract(branch, extractors)
			if !ok {
				return nil, false
			}
			res = append(res, entries...)
		}

		return res, true
	case interface{ Unwrap() error }:
		return extract(e.Unwrap(), extractors)
	}

	return nil, false
}
