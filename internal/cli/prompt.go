package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"sitebrief/internal/brochure"
	"sitebrief/internal/display"
	"sitebrief/internal/llm"
	"sitebrief/internal/urlcheck"
)

// ErrAborted is returned when the user interrupts a prompt or closes input.
var ErrAborted = errors.New("input aborted")

// LineReader is the subset of *readline.Instance the prompts use.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// URLProber checks that a URL answers with 200 OK.
type URLProber interface {
	Probe(ctx context.Context, raw string) urlcheck.ProbeResult
}

// Options holds the values given on the command line. Empty fields are
// prompted for.
type Options struct {
	Model string
	Mode  string
	URL   string
}

// Complete reports whether no prompting is needed.
func (o Options) Complete() bool {
	return o.Model != "" && o.Mode != "" && o.URL != ""
}

// Choices is the validated outcome of flags and prompts.
type Choices struct {
	Backend llm.Backend
	Mode    brochure.Mode
	URL     string
}

// NewReadline creates the interactive line editor.
func NewReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".sitebrief_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return rl, nil
}

// Prompter asks for the model, mode and URL, re-prompting until each answer
// is valid.
type Prompter struct {
	rl     LineReader
	out    io.Writer
	prober URLProber
}

func NewPrompter(rl LineReader, out io.Writer, prober URLProber) *Prompter {
	return &Prompter{rl: rl, out: out, prober: prober}
}

// Resolve validates the values in opts and prompts for the missing ones.
// A value given on the command line is not re-prompted: an invalid one is
// an error.
func (p *Prompter) Resolve(ctx context.Context, opts Options) (*Choices, error) {
	var (
		choices Choices
		err     error
	)

	if opts.Model != "" {
		if choices.Backend, err = llm.ParseBackend(opts.Model); err != nil {
			return nil, err
		}
	} else if choices.Backend, err = p.Backend(); err != nil {
		return nil, err
	}

	if opts.Mode != "" {
		if choices.Mode, err = brochure.ParseMode(opts.Mode); err != nil {
			return nil, err
		}
	} else if choices.Mode, err = p.Mode(); err != nil {
		return nil, err
	}

	if opts.URL != "" {
		if choices.URL, err = p.CheckURL(ctx, opts.URL); err != nil {
			return nil, err
		}
	} else if choices.URL, err = p.URL(ctx); err != nil {
		return nil, err
	}

	return &choices, nil
}

// Backend prompts for one of the supported models.
func (p *Prompter) Backend() (llm.Backend, error) {
	selectors := llm.Selectors()
	fmt.Fprintln(p.out, display.HeaderStyle.Render("Select an AI model:"))
	for _, s := range selectors {
		fmt.Fprintln(p.out, display.FormatBullet(s))
	}

	for {
		line, err := p.read("Enter your choice: ")
		if err != nil {
			return "", err
		}
		backend, err := llm.ParseBackend(line)
		if err == nil {
			fmt.Fprintln(p.out, display.FormatSuccess(strings.ToLower(line)+" selected."))
			return backend, nil
		}
		fmt.Fprintln(p.out, display.FormatError("Invalid model. Please choose from: "+strings.Join(selectors, ", ")))
	}
}

// Mode prompts for summary (1) or brochure (2).
func (p *Prompter) Mode() (brochure.Mode, error) {
	fmt.Fprintln(p.out, display.HeaderStyle.Render("Select the feature you would like to use:"))
	fmt.Fprintln(p.out, display.FormatBullet("1 Web Summarizer"))
	fmt.Fprintln(p.out, display.FormatBullet("2 Brochure Generator"))

	for {
		line, err := p.read("Enter your choice (1 or 2): ")
		if err != nil {
			return "", err
		}
		mode, err := brochure.ParseMode(line)
		if err == nil {
			fmt.Fprintln(p.out, display.FormatSuccess(featureName(mode)+" selected."))
			return mode, nil
		}
		fmt.Fprintln(p.out, display.FormatError("Invalid choice. Please enter '1' for Web Summarizer or '2' for Brochure Generator."))
	}
}

// URL prompts until the answer is well-formed and reachable, and returns it
// with a scheme.
func (p *Prompter) URL(ctx context.Context) (string, error) {
	for {
		line, err := p.read("Enter a website URL: ")
		if err != nil {
			return "", err
		}
		url, err := p.CheckURL(ctx, line)
		if err == nil {
			return url, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
}

// CheckURL validates raw once, printing the outcome.
func (p *Prompter) CheckURL(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !urlcheck.IsValid(raw) {
		fmt.Fprintln(p.out, display.FormatError("Invalid format! Make sure to enter a proper URL (e.g., https://example.com)."))
		return "", fmt.Errorf("invalid URL %q", raw)
	}

	result := p.prober.Probe(ctx, raw)
	if !result.Reachable() {
		fmt.Fprintln(p.out, display.FormatWarning("The website appears to be unreachable. Please try another URL."))
		return "", fmt.Errorf("%s is unreachable: %s", result.URL, result.Reason())
	}

	url := urlcheck.Normalize(raw)
	fmt.Fprintln(p.out, display.FormatSuccess(fmt.Sprintf("The website '%s' is valid and reachable.", url)))
	return url, nil
}

func (p *Prompter) read(prompt string) (string, error) {
	p.rl.SetPrompt(display.PromptStyle.Render(prompt))
	line, err := p.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func featureName(m brochure.Mode) string {
	if m == brochure.ModeBrochure {
		return "Brochure Generator"
	}
	return "Web Summarizer"
}
