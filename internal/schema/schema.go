package internalschema

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"
	"unicode"

	envaliderrors "github.com/leodido/envalid/errors"
)

// Field describes where a settings field reads its value from.
type Field struct {
	Path    string // Dotted path of Go field names (eg., "Database.URL")
	Name    string // Go field name
	Key     string // Environment variable name, global prefix included
	Ordinal int    // Declaration order
}

// Index maps settings fields to their environment variables, and back.
type Index struct {
	fields []Field
	byPath map[string]int
	byName map[string]int
	byKey  map[string]int
}

// Options mirror the settings parser options that affect how keys are computed.
type Options struct {
	Prefix                string
	TagName               string
	PrefixTagName         string
	UseFieldNameByDefault bool
}

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	// Struct types the settings parser handles as leaves
	leafStructs = map[reflect.Type]bool{
		reflect.TypeOf(url.URL{}):       true,
		reflect.TypeOf(time.Location{}): true,
	}
)

// Build walks the settings struct pointed to by o and indexes its fields.
//
// It fails when o is not a pointer to a struct or when two fields read the same environment variable.
func Build(o any, opts Options) (*Index, error) {
	if o == nil {
		return nil, envaliderrors.NewInputError("nil", "cannot read settings into a nil value")
	}
	t := reflect.TypeOf(o)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, envaliderrors.NewInputError(t.String(), "settings must be a pointer to a struct")
	}
	if opts.TagName == "" {
		opts.TagName = "env"
	}
	if opts.PrefixTagName == "" {
		opts.PrefixTagName = "envPrefix"
	}

	idx := &Index{
		byPath: make(map[string]int),
		byName: make(map[string]int),
		byKey:  make(map[string]int),
	}
	if err := idx.walk(t.Elem(), "", opts.Prefix, opts); err != nil {
		return nil, err
	}

	return idx, nil
}

func (idx *Index) walk(t reflect.Type, structPath, keyPrefix string, opts Options) error {
	for i := range t.NumField() {
		structF := t.Field(i)

		// Skip private fields
		if !structF.IsExported() {
			continue
		}

		tag := structF.Tag.Get(opts.TagName)
		if tag == "-" {
			continue
		}
		path := GetFieldPath(structPath, structF)

		if IsNested(structF.Type) {
			prefix := keyPrefix + structF.Tag.Get(opts.PrefixTagName)
			nestedT := structF.Type
			if nestedT.Kind() == reflect.Ptr {
				nestedT = nestedT.Elem()
			}
			if err := idx.walk(nestedT, path, prefix, opts); err != nil {
				return err
			}

			continue
		}

		key, _, _ := strings.Cut(tag, ",")
		if key == "" {
			if !opts.UseFieldNameByDefault {
				continue
			}
			key = ToEnvName(structF.Name)
		}
		key = keyPrefix + key

		normKey := strings.ToUpper(key)
		if existing, ok := idx.byKey[normKey]; ok {
			return envaliderrors.NewDuplicateKeyError(path, key, idx.fields[existing].Path)
		}

		pos := len(idx.fields)
		idx.fields = append(idx.fields, Field{
			Path:    path,
			Name:    structF.Name,
			Key:     key,
			Ordinal: pos,
		})
		idx.byPath[path] = pos
		idx.byKey[normKey] = pos
		if _, ok := idx.byName[structF.Name]; !ok {
			idx.byName[structF.Name] = pos
		}
	}

	return nil
}

// Fields returns the indexed fields in declaration order.
func (idx *Index) Fields() []Field {
	res := make([]Field, len(idx.fields))
	copy(res, idx.fields)

	return res
}

// Len returns the number of indexed fields.
func (idx *Index) Len() int {
	return len(idx.fields)
}

// ByPath finds a field by its dotted Go path.
func (idx *Index) ByPath(path string) (Field, bool) {
	return idx.lookup(idx.byPath, path)
}

// ByName finds the first field with the given Go name.
func (idx *Index) ByName(name string) (Field, bool) {
	return idx.lookup(idx.byName, name)
}

// ByKey finds a field by its environment variable, ignoring case.
func (idx *Index) ByKey(key string) (Field, bool) {
	return idx.lookup(idx.byKey, strings.ToUpper(key))
}

func (idx *Index) lookup(m map[string]int, k string) (Field, bool) {
	pos, ok := m[k]
	if !ok {
		return Field{}, false
	}

	return idx.fields[pos], true
}

// ValueOf returns the value of the field at the dotted path inside the struct pointed to by o.
func ValueOf(o any, path string) (reflect.Value, bool) {
	val := reflect.ValueOf(o)
	for _, name := range strings.Split(path, ".") {
		for val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return reflect.Value{}, false
			}
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		val = val.FieldByName(name)
		if !val.IsValid() {
			return reflect.Value{}, false
		}
	}

	return val, true
}

// IsNested tells whether the settings parser descends into a field of type t rather than parsing it.
func IsNested(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || leafStructs[t] {
		return false
	}

	return !reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// GetFieldPath appends the field name to the parent path.
func GetFieldPath(structPath string, structField reflect.StructField) string {
	if structPath == "" {
		return structField.Name
	}

	return fmt.Sprintf("%s.%s", structPath, structField.Name)
}

// ToEnvName converts a Go field name to the environment variable the settings parser reads for it.
//
// Underscores are dropped and a separator goes before an upper case letter that starts a word
// (eg., "DatabaseURL" -> "DATABASE_URL", "PortA" -> "PORTA").
func ToEnvName(name string) string {
	var output []rune
	for i, c := range name {
		if c == '_' {
			continue
		}
		if len(output) > 0 && unicode.IsUpper(c) && len(name) > i+1 {
			peek := rune(name[i+1])
			if unicode.IsLower(peek) || unicode.IsLower(rune(name[i-1])) {
				output = append(output, '_')
			}
		}
		output = append(output, unicode.ToUpper(c))
	}

	return string(output)
}
