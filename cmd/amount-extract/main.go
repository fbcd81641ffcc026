package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/amount-scan/internal/extraction"
	"github.com/zombor/amount-scan/internal/scanning"
)

func main() {
	fs := ff.NewFlagSet("amount-extract")
	var (
		text          = fs.StringLong("text", "", "Bill text to read")
		textFile      = fs.StringLong("file", "", "Read bill text from a file ('-' for stdin)")
		imagePath     = fs.StringLong("image", "", "Image or PDF of a bill")
		mode          = fs.StringLong("mode", string(extraction.ModeAuto), "Input to read: 'auto', 'text' or 'image'")
		positional    = fs.BoolLong("positional-pairing", "Pair values with raw tokens by index")
		format        = fs.StringLong("format", "json", "Output format: 'json', 'yaml' or 'text'")
		noColor       = fs.BoolLong("no-color", "Disable colors in text output")
		engine        = fs.StringLong("recognizer", scanning.EngineTesseract, "Image recognizer: 'tesseract', 'gemini' or 'ollama'")
		tesseractLang = fs.StringLong("tesseract-lang", "eng", "Comma separated Tesseract languages")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("AMOUNT_SCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m, err := parseMode(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	in := extraction.Input{Mode: m, Text: *text}
	if *textFile != "" {
		in.Text, err = readText(*textFile)
		if err != nil {
			slog.Error("Failed to read text", "file", *textFile, "error", err)
			os.Exit(1)
		}
	}

	var recognizer scanning.Recognizer
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			slog.Error("Failed to read image", "file", *imagePath, "error", err)
			os.Exit(1)
		}
		in.File = &extraction.File{
			Name:        filepath.Base(*imagePath),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(*imagePath))),
			Data:        data,
		}

		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		recognizer, err = scanning.NewRecognizer(scanning.Config{
			Engine:             *engine,
			TesseractLanguages: strings.Split(*tesseractLang, ","),
			GeminiAPIKey:       apiKey,
			GeminiModel:        *geminiModel,
			OllamaURL:          *ollamaURL,
			OllamaModel:        *ollamaModel,
		})
		if err != nil {
			slog.Error("Failed to initialize recognizer", "recognizer", *engine, "error", err)
			os.Exit(1)
		}
		defer recognizer.Close()
	}

	result, err := extraction.NewPipeline(recognizer, *positional).Run(ctx, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	out, err := render(result, *format, *noColor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	fmt.Print(out)
}

func parseMode(s string) (extraction.Mode, error) {
	switch m := extraction.Mode(strings.ToLower(s)); m {
	case extraction.ModeAuto, extraction.ModeText, extraction.ModeImage:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, text or image)", s)
	}
}

func readText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}
