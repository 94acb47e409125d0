package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"yashubustudio/symptomchat/triage"
)

type cliOptions struct {
	configPath    string
	referencePath string
	inputPath     string
	outputPath    string
	backend       string
	alternatives  int
	quiet         bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("triage-cli: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("triage-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.referencePath, "reference", "", "CSV/TSV reference table (overrides referencePath in config)")
	flag.StringVar(&opts.inputPath, "input", "", "CSV/TSV script with session,utterance columns to replay; omit for an interactive chat")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file for the replayed transcript (default: STDOUT)")
	flag.StringVar(&opts.backend, "backend", "", "Embedding backend: ort or hash (overrides config)")
	flag.IntVar(&opts.alternatives, "alternatives", -1, "Number of other departments to list with a recommendation (overrides config)")
	flag.BoolVar(&opts.quiet, "quiet", false, "Do not log to STDERR")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--reference FILE] [--input FILE [--output FILE]] [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.referencePath = strings.TrimSpace(opts.referencePath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.backend = strings.TrimSpace(opts.backend)

	if opts.outputPath != "" && opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("--output requires --input")
	}
	return opts, nil
}

func loadConfig(opts cliOptions) (triage.Config, error) {
	cfg, err := triage.LoadConfig(opts.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if opts.referencePath != "" {
		cfg.ReferencePath = opts.referencePath
	}
	if opts.backend != "" {
		cfg.Embedder.Backend = triage.Backend(opts.backend)
	}
	if opts.alternatives >= 0 {
		cfg.Alternatives = opts.alternatives
	}
	return cfg, nil
}

func run(ctx context.Context, opts cliOptions, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logOut := io.Writer(os.Stderr)
	if opts.quiet {
		logOut = io.Discard
	}
	logger := log.New(logOut, "", log.LstdFlags)

	assistant, err := triage.NewAssistant(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer assistant.Close()
	logger.Printf("reference table %s loaded (%d rows)", cfg.ReferencePath, assistant.Resolver().Size())

	if opts.inputPath == "" {
		return chat(ctx, assistant.NewSession("cli"), in, out, logger)
	}
	return replay(ctx, assistant, opts.inputPath, opts.outputPath, out)
}

func replay(ctx context.Context, assistant *triage.Assistant, inputPath, outputPath string, stdout io.Writer) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	comma := ','
	if strings.EqualFold(filepath.Ext(inputPath), ".tsv") {
		comma = '\t'
	}
	rows, err := triage.ReadUtterances(f, comma)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	results, err := triage.Replay(ctx, assistant.NewSessions(), rows)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	if outputPath == "" {
		return triage.WriteTranscript(stdout, results)
	}
	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	w, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer w.Close()
	if err := triage.WriteTranscript(w, results); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "transcript of %d utterances saved to %s\n", len(results), absPath)
	return nil
}

// chat runs an interactive conversation until /quit or end of input.
func chat(ctx context.Context, sess *triage.Session, in io.Reader, out io.Writer, logger *log.Logger) error {
	fmt.Fprintln(out, sess.History()[0].Text)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/restart":
			sess.Restart()
			fmt.Fprintln(out, sess.History()[0].Text)
			continue
		}
		turn, _, err := sess.SubmitUtterance(ctx, line)
		fmt.Fprintln(out, turn.Text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Printf("turn failed: %v", err)
		}
	}
}
