package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	envaliderrors "github.com/leodido/envalid/errors"
	"golang.org/x/term"
)

// ParseFormat finds the format with the given name, ignoring case.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for format, ids := range FormatIds {
		for _, id := range ids {
			if id == name {
				return format, nil
			}
		}
	}

	return Box, fmt.Errorf("unknown report format %q", name)
}

func (f Format) String() string {
	if ids, ok := FormatIds[f]; ok {
		return ids[0]
	}

	return fmt.Sprintf("Format(%d)", int(f))
}

// Write renders the configuration error to w in the given format.
func Write(w io.Writer, err *envaliderrors.ConfigurationError, format Format) error {
	var out string
	switch format {
	case Plain:
		out = plain(err)
	case JSON:
		data, jsonErr := json.MarshalIndent(newDocument(err), "", "  ")
		if jsonErr != nil {
			return fmt.Errorf("couldn't encode the report: %w", jsonErr)
		}
		out = string(data) + "\n"
	default:
		out = err.Error()
	}

	if _, writeErr := io.WriteString(w, out); writeErr != nil {
		return fmt.Errorf("couldn't write the report: %w", writeErr)
	}

	return nil
}

func plain(err *envaliderrors.ConfigurationError) string {
	if len(err.Issues) == 0 {
		return fmt.Sprintf("%s: No errors\n", err.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", err.Title)
	fmt.Fprintf(&b, "The following environment variables have issues:\n")
	for _, issue := range err.Issues {
		fmt.Fprintf(&b, "  %s %s (%s)\n", envaliderrors.Marker(issue), strings.ToUpper(issue.Field), issue.Kind)
	}
	fmt.Fprintf(&b, "%s\n", err.Hint)

	return b.String()
}

type document struct {
	Title         string          `json:"title"`
	Hint          string          `json:"hint"`
	Issues        []documentIssue `json:"issues"`
	MissingFields []string        `json:"missing_fields"`
}

type documentIssue struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Missing bool   `json:"missing"`
}

func newDocument(err *envaliderrors.ConfigurationError) document {
	res := document{
		Title:         err.Title,
		Hint:          err.Hint,
		Issues:        make([]documentIssue, 0, len(err.Issues)),
		MissingFields: err.MissingFields(),
	}
	for _, issue := range err.Issues {
		res.Issues = append(res.Issues, documentIssue{
			Field:   issue.Field,
			Kind:    issue.Kind,
			Missing: issue.Missing(),
		})
	}

	return res
}

// TerminalWidth returns the number of columns of the terminal behind w.
//
// It returns 0 when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}

	return width
}
