package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	cookieFile string
	verbose    bool
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ytsum",
		Short: "Fetch YouTube transcripts and summarize them",
		Long: `ytsum acquires the spoken-word transcript of a YouTube video and turns it
into a structured summary in one of many languages.

Transcripts come from public captions, authenticated captions (using the
cookie file), the watch page in a headless browser, or audio transcription,
in that order. Configuration is read from the environment and an optional
.env file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.cookieFile, "cookies", "", "Netscape cookie file (default: COOKIE_FILE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every step")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	root.AddCommand(
		newTranscriptCmd(opts),
		newSummarizeCmd(opts),
		newCookiesCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// config loads the environment and applies flag overrides.
func (o *rootOptions) config() engine.Config {
	cfg := engine.LoadConfig()
	if o.cookieFile != "" {
		cfg.CookieFile = o.cookieFile
	}
	return cfg
}

// progress prints each strategy outcome as it happens.
func progress(w io.Writer) func(transcript.Outcome) {
	marks := map[transcript.Kind]string{
		transcript.Succeeded: "✓",
		transcript.Failed:    "✗",
		transcript.Skipped:   "·",
	}
	return func(o transcript.Outcome) {
		fmt.Fprintf(w, "%s %s\n", marks[o.Kind], o)
	}
}
