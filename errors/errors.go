package errors

import (
	"errors"
	"fmt"
	"strings"

	internalbox "github.com/leodido/envalid/internal/box"
)

const (
	DefaultTitle = "CONFIGURATION ERROR"
	DefaultHint  = "Set these in your .env file or environment"

	// KindMissing is the kind of the issues about settings that have no value at all.
	KindMissing = "missing"

	// UnknownField names the field of an entry with no location.
	UnknownField = "unknown"

	intro = "The following environment variables have issues:"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrInputValue    = errors.New("invalid input value")
	ErrDuplicateKey  = errors.New("duplicate environment key")
)

// Issue describes why a single setting failed.
type Issue struct {
	Field string
	Kind  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s (%s)", i.Field, i.Kind)
}

// Missing tells whether the setting has no value at all.
func (i Issue) Missing() bool {
	return i.Kind == KindMissing
}

// Entry is a single failure as reported by a settings backend.
type Entry struct {
	Location []string
	Kind     string
}

// Issue converts the entry into an Issue, using the first element of its location as field name.
func (e Entry) Issue() Issue {
	field := UnknownField
	if len(e.Location) > 0 {
		field = e.Location[0]
	}

	return Issue{Field: field, Kind: e.Kind}
}

// EntryReporter is implemented by errors carrying the structured list of failures that caused them.
//
// Any settings backend returning errors with this capability is understood by envalid.Validate.
type EntryReporter interface {
	error
	Entries() []Entry
}

// ConfigurationError reports every setting that is missing or malformed.
//
// Its message is a bordered report meant to be shown to humans as-is.
type ConfigurationError struct {
	Issues []Issue
	Title  string
	Hint   string
	// Width is the number of columns of the terminal the report targets (defaults to 80)
	Width int
}

// NewConfigurationError creates a ConfigurationError with the default title and hint.
func NewConfigurationError(issues []Issue) *ConfigurationError {
	return &ConfigurationError{
		Issues: issues,
		Title:  DefaultTitle,
		Hint:   DefaultHint,
	}
}

func (e *ConfigurationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("\n%s: No errors\n", e.Title)
	}

	width := e.Width
	if width <= 0 {
		width = internalbox.DefaultTerminalWidth
	}
	box := internalbox.New(width)

	lines := []string{
		"",
		box.Top(),
		box.Line(e.Title),
		box.Separator(),
		box.Empty(),
		box.Line(intro),
		box.Empty(),
	}
	for _, issue := range e.Issues {
		lines = append(lines, box.Line(fmt.Sprintf("  %s %s (%s)", Marker(issue), strings.ToUpper(issue.Field), issue.Kind)))
	}
	lines = append(lines,
		box.Empty(),
		box.Separator(),
		box.Line(e.Hint),
		box.Bottom(),
		"",
	)

	return strings.Join(lines, "\n")
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// MissingFields returns the names of the settings that have no value, in issue order.
func (e *ConfigurationError) MissingFields() []string {
	res := []string{}
	for _, issue := range e.Issues {
		if issue.Missing() {
			res = append(res, issue.Field)
		}
	}

	return res
}

// Fields returns the names of all the settings with issues, in issue order.
func (e *ConfigurationError) Fields() []string {
	res := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		res = append(res, issue.Field)
	}

	return res
}

// WithTitle returns a copy of the error with a different title, sharing the same issues.
func (e *ConfigurationError) WithTitle(title string) *ConfigurationError {
	res := *e
	res.Title = title

	return &res
}

// WithHint returns a copy of the error with a different hint, sharing the same issues.
func (e *ConfigurationError) WithHint(hint string) *ConfigurationError {
	res := *e
	res.Hint = hint

	return &res
}

// WithWidth returns a copy of the error targeting a terminal of the given width.
func (e *ConfigurationError) WithWidth(width int) *ConfigurationError {
	res := *e
	res.Width = width

	return &res
}

// Marker returns the glyph prefixing an issue in reports.
func Marker(issue Issue) string {
	if issue.Missing() {
		return "✗"
	}

	return "!"
}

// DefinitionError is a programming error in the settings struct, as opposed to a bad value.
type DefinitionError interface {
	error
	Field() string
}

// DuplicateKeyError represents two fields reading the same environment variable
type DuplicateKeyError struct {
	FieldName     string
	Key           string
	ExistingField string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("field '%s': environment variable '%s' already read by field '%s'", e.FieldName, e.Key, e.ExistingField)
}

func (e *DuplicateKeyError) Field() string {
	return e.FieldName
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

func NewDuplicateKeyError(fieldName, key, existingField string) error {
	return &DuplicateKeyError{
		FieldName:     fieldName,
		Key:           key,
		ExistingField: existingField,
	}
}

// InputError represents an invalid settings target
type InputError struct {
	InputType string
	Message   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input value of type '%s': %s", e.InputType, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInputValue
}

func NewInputError(inputType, message string) error {
	return &InputError{
		InputType: inputType,
		Message:   message,
	}
}
