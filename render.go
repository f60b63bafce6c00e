package envalid

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leodido/envalid/report"
)

// Render writes err to w in the given format.
//
// Errors that are not validation failures are written as their message.
func Render(w io.Writer, err error, format report.Format, opts ...Option) error {
	if err == nil {
		return nil
	}

	cfgErr, ok := Translate(err, opts...)
	if ok {
		return report.Write(w, cfgErr, format)
	}

	if format == report.JSON {
		data, jsonErr := json.Marshal(map[string]string{"error": err.Error()})
		if jsonErr != nil {
			return fmt.Errorf("couldn't encode the report: %w", jsonErr)
		}
		_, writeErr := fmt.Fprintf(w, "%s\n", data)

		return writeErr
	}
	_, writeErr := fmt.Fprintf(w, "%s\n", err)

	return writeErr
}

// Fprint writes the boxed report of err to w, sized after the terminal behind w if any.
func Fprint(w io.Writer, err error, opts ...Option) error {
	if width := report.TerminalWidth(w); width > 0 {
		opts = append([]Option{WithWidth(width)}, opts...)
	}

	return Render(w, err, report.Box, opts...)
}
