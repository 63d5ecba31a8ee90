package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"ingestd/internal/chunker"
	"ingestd/internal/parser"
)

func main() {
	app := &cli.App{
		Name:      "chunk",
		Usage:     "Split a document into retrieval-ready chunks",
		ArgsUsage: "FILE (or - for markdown on stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.IntFlag{
				Name:    "chunk-size",
				Aliases: []string{"s"},
				Usage:   "Maximum chunk size in characters",
				Value:   chunker.DefaultChunkSize,
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Language code controlling sentence separators (e.g. en, zh, ar)",
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Aliases: []string{"b"},
				Usage:   "Chunks per batch; 0 puts everything in one batch",
			},
			&cli.BoolFlag{
				Name:  "text-only",
				Usage: "Print chunk texts line by line instead of JSON",
			},
		},
		Before: setupLogger,
		Action: chunkCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", c.String("log-level"))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func chunkCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file, got %d", c.NArg())
	}

	lang := c.String("language")
	if lang != "" && !chunker.IsSupportedLanguage(lang) {
		return fmt.Errorf("unsupported language code: %s", lang)
	}

	var (
		docs []chunker.Document
		err  error
	)
	name := c.Args().First()
	if name == "-" {
		// Stdin is treated as markdown.
		data, rerr := io.ReadAll(os.Stdin)
		if rerr != nil {
			return fmt.Errorf("read stdin: %w", rerr)
		}
		docs = []chunker.Document{{Text: string(data)}}
	} else {
		p, perr := parser.ForFile(name)
		if perr != nil {
			return perr
		}
		f, oerr := os.Open(name)
		if oerr != nil {
			return fmt.Errorf("open %s: %w", name, oerr)
		}
		defer f.Close()
		docs, err = p.Parse(f, name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}

	result, err := chunker.ChunkDocuments(docs, c.Int("batch-size"), chunker.Options{
		ChunkSize:    c.Int("chunk-size"),
		LanguageCode: lang,
	})
	if err != nil {
		return fmt.Errorf("chunk %s: %w", name, err)
	}

	if c.Bool("text-only") {
		for _, chunk := range result.Flatten() {
			fmt.Println(chunk.Text)
		}
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
