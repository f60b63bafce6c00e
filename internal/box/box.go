package internalbox

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	DefaultTerminalWidth = 80
	DefaultMinWidth      = 30
	DefaultMaxWidth      = 80

	ellipsis = "..."
)

// cells measures text independently of the locale so that the output is the same everywhere.
var cells = &runewidth.Condition{
	EastAsianWidth:     false,
	StrictEmojiNeutral: true,
}

// Formatter draws the pieces of a fixed-width box.
//
// Widths are measured in terminal cells, not bytes nor runes.
type Formatter struct {
	boxWidth   int
	innerWidth int
}

// Option tweaks the bounds a Formatter clamps its width into.
type Option func(*bounds)

type bounds struct {
	min int
	max int
}

func WithMinWidth(w int) Option {
	return func(b *bounds) {
		b.min = w
	}
}

func WithMaxWidth(w int) Option {
	return func(b *bounds) {
		b.max = w
	}
}

// New creates a Formatter for a terminal that is termWidth columns wide.
//
// The box leaves a margin of 4 columns and is clamped between the min and max widths.
func New(termWidth int, opts ...Option) *Formatter {
	b := &bounds{min: DefaultMinWidth, max: DefaultMaxWidth}
	for _, opt := range opts {
		opt(b)
	}

	boxWidth := max(b.min, min(b.max, termWidth-4))

	return &Formatter{
		boxWidth:   boxWidth,
		innerWidth: boxWidth - 4,
	}
}

// Width returns the total width of every line of the box.
func (f *Formatter) Width() int {
	return f.boxWidth
}

// InnerWidth returns the room available for text inside the borders.
func (f *Formatter) InnerWidth() int {
	return f.innerWidth
}

// Truncate cuts text that does not fit the inner width, ending it with an ellipsis.
func (f *Formatter) Truncate(text string) string {
	if cells.StringWidth(text) <= f.innerWidth {
		return text
	}

	return cells.Truncate(text, f.innerWidth, ellipsis)
}

// Line returns a bordered line holding text, padded to the box width.
func (f *Formatter) Line(text string) string {
	truncated := f.Truncate(text)
	padding := f.innerWidth - cells.StringWidth(truncated)

	return "│ " + truncated + strings.Repeat(" ", padding) + " │"
}

// Empty returns a bordered line with no text.
func (f *Formatter) Empty() string {
	return f.Line("")
}

func (f *Formatter) Top() string {
	return f.rule("┌", "┐")
}

func (f *Formatter) Bottom() string {
	return f.rule("└", "┘")
}

func (f *Formatter) Separator() string {
	return f.rule("├", "┤")
}

func (f *Formatter) rule(left, right string) string {
	return left + strings.Repeat("─", f.boxWidth-2) + right
}
