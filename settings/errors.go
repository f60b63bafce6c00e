package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	envaliderrors "github.com/leodido/envalid/errors"
	internalenv "github.com/leodido/envalid/internal/env"
	internalschema "github.com/leodido/envalid/internal/schema"
	"go.uber.org/zap/zapcore"
)

// Kinds of the issues reported by the settings loader.
const (
	KindMissing          = envaliderrors.KindMissing
	KindEmpty            = "empty"
	KindFileLoading      = "file_loading"
	KindIntParsing       = "int_parsing"
	KindFloatParsing     = "float_parsing"
	KindBoolParsing      = "bool_parsing"
	KindDurationParsing  = "duration_parsing"
	KindURLParsing       = "url_parsing"
	KindLiteral          = "literal_error"
	KindValue            = "value_error"
	KindGreaterThan      = "greater_than"
	KindGreaterThanEqual = "greater_than_equal"
	KindLessThan         = "less_than"
	KindLessThanEqual    = "less_than_equal"
)

// Error reports every setting that could not be loaded.
//
// It implements envaliderrors.EntryReporter, so envalid.Validate turns it into a ConfigurationError.
// The errors of the underlying libraries stay reachable with errors.As.
type Error struct {
	entries []envaliderrors.Entry
	causes  []error
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.entries))
	for _, entry := range e.entries {
		parts = append(parts, entry.Issue().String())
	}

	return fmt.Sprintf("invalid settings: %s", strings.Join(parts, ", "))
}

// Entries returns the failures in field declaration order.
func (e *Error) Entries() []envaliderrors.Entry {
	res := make([]envaliderrors.Entry, len(e.entries))
	copy(res, e.entries)

	return res
}

func (e *Error) Unwrap() []error {
	return e.causes
}

var _ envaliderrors.EntryReporter = (*Error)(nil)

// Stages of Parse reporting issues, in order.
const (
	stageParse = iota
	stageTags
	stageCustom
)

// issue is an entry along with where its field is declared.
type issue struct {
	entry   envaliderrors.Entry
	path    string
	ordinal int
	stage   int
}

func newIssue(idx *internalschema.Index, field internalschema.Field, known bool, name, kind string, stage int) issue {
	res := issue{
		entry:   envaliderrors.Entry{Location: []string{name}, Kind: kind},
		path:    name,
		ordinal: idx.Len(),
		stage:   stage,
	}
	if known {
		res.path = field.Path
		res.ordinal = field.Ordinal
	}

	return res
}

// newError sorts the issues by declaration order and drops the repeated ones.
//
// A field is only reported by the earliest stage that found something wrong with it.
func newError(issues []issue, causes []error) *Error {
	slices.SortStableFunc(issues, func(a, b issue) int {
		if a.ordinal != b.ordinal {
			return a.ordinal - b.ordinal
		}

		return a.stage - b.stage
	})

	first := map[string]int{}
	entries := make([]envaliderrors.Entry, 0, len(issues))
	for _, i := range issues {
		if stage, ok := first[i.path]; ok && stage != i.stage {
			continue
		}
		first[i.path] = i.stage
		entries = append(entries, i.entry)
	}

	return &Error{entries: entries, causes: causes}
}

var (
	durationType  = reflect.TypeOf(time.Duration(0))
	urlType       = reflect.TypeOf(url.URL{})
	zapLevelType  = reflect.TypeOf(zapcore.Level(0))
	slogLevelType = reflect.TypeOf(slog.Level(0))
)

// fromEnv converts the errors of the env parser into issues.
//
// It fails when any of them is not about a value, which means the settings struct itself is wrong.
func fromEnv(err error, idx *internalschema.Index, target any, prefix string, environment map[string]string) ([]issue, bool) {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil, false
	}

	res := make([]issue, 0, len(agg.Errors))
	consumed := map[string]bool{}
	for _, e := range agg.Errors {
		switch v := e.(type) {
		case env.EnvVarIsNotSetError:
			res = append(res, byKey(idx, v.Key, prefix, KindMissing))
		case *env.EnvVarIsNotSetError:
			res = append(res, byKey(idx, v.Key, prefix, KindMissing))
		case env.EmptyEnvVarError:
			res = append(res, byKey(idx, v.Key, prefix, KindEmpty))
		case *env.EmptyEnvVarError:
			res = append(res, byKey(idx, v.Key, prefix, KindEmpty))
		case env.LoadFileContentError:
			res = append(res, byKey(idx, v.Key, prefix, KindFileLoading))
		case *env.LoadFileContentError:
			res = append(res, byKey(idx, v.Key, prefix, KindFileLoading))
		case env.ParseError:
			res = append(res, byName(idx, target, v.Name, prefix, ParseKind(v.Type), environment, consumed))
		case *env.ParseError:
			res = append(res, byName(idx, target, v.Name, prefix, ParseKind(v.Type), environment, consumed))
		default:
			return nil, false
		}
	}

	return res, true
}

func byKey(idx *internalschema.Index, key, prefix, kind string) issue {
	field, ok := idx.ByKey(key)

	return newIssue(idx, field, ok, internalenv.FieldName(key, prefix), kind, stageParse)
}

// byName attributes a parse error, which only carries the Go field name, to a field.
//
// Among the fields sharing that name and not yet attributed, the first one holding a value it could not take wins.
func byName(idx *internalschema.Index, target any, name, prefix, kind string, environment map[string]string, consumed map[string]bool) issue {
	candidates := []internalschema.Field{}
	for _, f := range idx.Fields() {
		if f.Name == name && !consumed[f.Path] {
			candidates = append(candidates, f)
		}
	}

	rank := func(f internalschema.Field) int {
		if _, ok := environment[f.Key]; !ok {
			return 2
		}
		// Fields the parser failed on keep their zero value
		if val, ok := internalschema.ValueOf(target, f.Path); ok && val.IsZero() {
			return 0
		}

		return 1
	}

	if len(candidates) > 0 {
		best := candidates[0]
		for _, f := range candidates[1:] {
			if rank(f) < rank(best) {
				best = f
			}
		}
		consumed[best.Path] = true

		return newIssue(idx, best, true, internalenv.FieldName(best.Key, prefix), kind, stageParse)
	}

	return newIssue(idx, internalschema.Field{}, false, strings.ToLower(internalschema.ToEnvName(name)), kind, stageParse)
}

// ParseKind names the kind of issue for a value that could not be parsed into type t.
func ParseKind(t reflect.Type) string {
	switch t {
	case durationType:
		return KindDurationParsing
	case urlType:
		return KindURLParsing
	case zapLevelType, slogLevelType:
		return KindLiteral
	}

	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return ParseKind(t.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindIntParsing
	case reflect.Float32, reflect.Float64:
		return KindFloatParsing
	case reflect.Bool:
		return KindBoolParsing
	}

	return KindValue
}

// TagKind names the kind of issue for a failed validate tag.
func TagKind(tag string) string {
	if strings.HasPrefix(tag, "required") {
		return KindMissing
	}

	switch tag {
	case "oneof":
		return KindLiteral
	case "url", "http_url", "uri":
		return KindURLParsing
	case "email":
		return KindValue
	case "min", "gte":
		return KindGreaterThanEqual
	case "max", "lte":
		return KindLessThanEqual
	case "gt":
		return KindGreaterThan
	case "lt":
		return KindLessThan
	}

	return tag
}

// fromValidator converts the failed validate tags into issues.
func fromValidator(errs validator.ValidationErrors, idx *internalschema.Index, prefix string) []issue {
	res := make([]issue, 0, len(errs))
	for _, fe := range errs {
		res = append(res, byFieldError(idx, fe, prefix, stageTags))
	}

	return res
}

func byFieldError(idx *internalschema.Index, fe validator.FieldError, prefix string, stage int) issue {
	path := fe.StructNamespace()
	// Drop the name of the root struct
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	kind := TagKind(fe.Tag())

	field, ok := idx.ByPath(path)
	if !ok {
		// Fields inside collections have indexed paths
		field, ok = idx.ByName(fe.StructField())
	}
	if ok {
		return newIssue(idx, field, true, internalenv.FieldName(field.Key, prefix), kind, stage)
	}

	return newIssue(idx, internalschema.Field{}, false, strings.ToLower(internalschema.ToEnvName(fe.StructField())), kind, stage)
}

// fromCustom converts the errors returned by ValidatableSettings into issues.
func fromCustom(errs []error, idx *internalschema.Index, prefix string) []issue {
	res := make([]issue, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		var fe validator.FieldError
		if errors.As(err, &fe) {
			res = append(res, byFieldError(idx, fe, prefix, stageCustom))

			continue
		}

		kind := KindValue
		var kinded interface{ Kind() string }
		if errors.As(err, &kinded) && kinded.Kind() != "" {
			kind = kinded.Kind()
		}

		var fielded interface{ Field() string }
		if !errors.As(err, &fielded) {
			res = append(res, issue{
				entry:   envaliderrors.Entry{Kind: kind},
				path:    err.Error(),
				ordinal: idx.Len(),
				stage:   stageCustom,
			})

			continue
		}

		name := fielded.Field()
		field, ok := idx.ByPath(name)
		if !ok {
			field, ok = idx.ByKey(prefix + name)
		}
		if !ok {
			field, ok = idx.ByName(name)
		}
		if ok {
			res = append(res, newIssue(idx, field, true, internalenv.FieldName(field.Key, prefix), kind, stageCustom))
		} else {
			res = append(res, newIssue(idx, internalschema.Field{}, false, strings.ToLower(name), kind, stageCustom))
		}
	}

	return res
}
