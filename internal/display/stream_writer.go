package display

import (
	"fmt"
	"io"
	"strings"

	"sitebrief/internal/llm"
)

// StreamWriter prints display text incrementally. A terminal cannot take
// back characters, so the trailing run of text that a later fragment could
// still turn into a stripped wrapper is held until it is decided.
type StreamWriter struct {
	out     io.Writer
	acc     Accumulator
	printed string
}

// NewStreamWriter creates a writer printing to out.
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// Write accepts the next fragment.
func (w *StreamWriter) Write(fragment string) error {
	w.acc.Add(fragment)
	raw := w.acc.text
	return w.emit(strings.TrimSpace(raw[:len(raw)-heldSuffixLen(raw)]))
}

// Flush prints whatever is still held back and ends the line.
func (w *StreamWriter) Flush() error {
	if err := w.emit(w.acc.Text()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w.out)
	return err
}

// Text returns the full display text so far.
func (w *StreamWriter) Text() string {
	return w.acc.Text()
}

func (w *StreamWriter) emit(visible string) error {
	if strings.HasPrefix(visible, w.printed) {
		if delta := visible[len(w.printed):]; delta != "" {
			if _, err := io.WriteString(w.out, delta); err != nil {
				return err
			}
		}
		w.printed = visible
		return nil
	}
	// Held-back text never loses printed characters, so this only guards
	// against an accumulator that rewrites more than its tail.
	if _, err := fmt.Fprintf(w.out, "\n%s", visible); err != nil {
		return err
	}
	w.printed = visible
	return nil
}

// heldSuffixLen returns the length of the trailing run of wrapper characters
// in cleaned text. Text holds no complete wrapper, so any later removal
// starts inside this run: one wrapper can only join another through
// characters that are themselves wrapper characters.
func heldSuffixLen(text string) int {
	n := len(text)
	for n > 0 && isWrapperChar(text[n-1]) {
		n--
	}
	return len(text) - n
}

func isWrapperChar(c byte) bool {
	for _, w := range wrappers {
		if strings.IndexByte(w, c) >= 0 {
			return true
		}
	}
	return false
}

// Pipe drains s into w and returns the final display text.
func Pipe(s llm.Stream, w *StreamWriter) (string, error) {
	defer s.Close()
	for s.Next() {
		if err := w.Write(s.Current()); err != nil {
			return w.Text(), err
		}
	}
	if err := s.Err(); err != nil {
		w.Flush()
		return w.Text(), err
	}
	return w.Text(), w.Flush()
}
