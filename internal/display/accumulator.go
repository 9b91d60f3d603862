// Package display turns model output into terminal text.
package display

import (
	"strings"
)

// wrappers are stripped from the accumulated output. Models often wrap their
// Markdown in a fenced "markdown" block, which is redundant when the output
// is already rendered as Markdown.
var wrappers = []string{"```", "markdown"}

// Accumulator collects streamed fragments into the text to display.
type Accumulator struct {
	text string
}

// Add appends fragment and returns the current display text.
func (a *Accumulator) Add(fragment string) string {
	a.text = Clean(a.text + fragment)
	return a.Text()
}

// Text returns the display text accumulated so far.
func (a *Accumulator) Text() string {
	return strings.TrimSpace(a.text)
}

// Clean removes every fence marker and the literal word "markdown". It
// repeats until no marker is left, since removing a "markdown" between
// backticks can complete a fence.
func Clean(text string) string {
	for {
		cleaned := text
		for _, w := range wrappers {
			cleaned = strings.ReplaceAll(cleaned, w, "")
		}
		if cleaned == text {
			return text
		}
		text = cleaned
	}
}
