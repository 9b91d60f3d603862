package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"sitebrief/internal/brochure"
	"sitebrief/internal/cli"
	"sitebrief/internal/config"
	"sitebrief/internal/display"
	"sitebrief/internal/llm"
	"sitebrief/internal/logging"
	"sitebrief/internal/urlcheck"
	"sitebrief/internal/webpage"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	model := flag.String("model", "", "model to use: "+fmt.Sprint(llm.Selectors()))
	mode := flag.String("mode", "", "1 = summarize a page, 2 = build a brochure")
	url := flag.String("url", "", "website to analyze")
	stream := flag.Bool("stream", true, "print the answer as it is generated; otherwise render it once complete")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log, runID := logging.WithRun(logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr))
	mainLog := logging.Component(log, "main")
	mainLog.Debug().Str("config", *configPath).Str("run", runID).Msg("Starting sitebrief")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cli.Options{Model: *model, Mode: *mode, URL: *url}
	if err := run(ctx, opts, *stream, log); err != nil {
		if errors.Is(err, cli.ErrAborted) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, display.FormatError(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts cli.Options, stream bool, log zerolog.Logger) error {
	cfg := config.GetConfig()

	var reader cli.LineReader
	if !opts.Complete() {
		rl, err := cli.NewReadline()
		if err != nil {
			return err
		}
		defer rl.Close()
		reader = rl
	}

	prober := urlcheck.NewProber(cfg.Probe.Timeout, cfg.Fetch.UserAgent)
	choices, err := cli.NewPrompter(reader, os.Stdout, prober).Resolve(ctx, opts)
	if err != nil {
		return err
	}

	gateway, err := llm.Setup(cfg, choices.Backend, log)
	if err != nil {
		return err
	}
	modelName := llm.ModelFor(cfg, choices.Backend)

	fetcher := webpage.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxSizeMB,
		webpage.Extractor(cfg.Fetch.Extractor), log)
	generator := brochure.NewGenerator(fetcher, gateway, choices.Backend, modelName, log)
	generator.SetStatus(os.Stdout)

	prepared, err := generator.Prepare(ctx, choices.Mode, choices.URL)
	if err != nil {
		return err
	}

	if prepared.Mode == brochure.ModeBrochure {
		fmt.Println(display.FormatInfo(fmt.Sprintf("Generating a brochure for the company: %s", prepared.Landing.Title)))
	} else {
		fmt.Println(display.FormatInfo(fmt.Sprintf("Generating a summary for the website: %s", prepared.Landing.Title)))
	}
	fmt.Println()

	return printAnswer(ctx, gateway, prepared.Request, stream, os.Stdout)
}

// printAnswer writes the model's answer to out as it arrives, or renders it
// once complete when stream is false.
func printAnswer(ctx context.Context, model llm.Provider, req llm.Request, stream bool, out io.Writer) error {
	s, err := model.Stream(ctx, req)
	if err != nil {
		return err
	}

	if !stream {
		text, err := llm.Collect(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, display.RenderMarkdown(text))
		return err
	}

	_, err = display.Pipe(s, display.NewStreamWriter(out))
	return err
}
