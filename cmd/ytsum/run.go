package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytsum/internal/app"
	"github.com/anatolykoptev/go_ytsum/internal/summarize"
	"github.com/anatolykoptev/go_ytsum/internal/toolutil"
)

func newTranscriptCmd(opts *rootOptions) *cobra.Command {
	var maxChars int
	cmd := &cobra.Command{
		Use:   "transcript <url-or-id>",
		Short: "Print the transcript of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), opts.config())
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Transcript(cmd.Context(), args[0], progress(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			rep.Text, _ = toolutil.ClipText(rep.Text, maxChars)
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "source: %s, language: %s\n", rep.Source, rep.Language)
			fmt.Fprintln(cmd.OutOrStdout(), rep.Text)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Cap the printed transcript (0 = no cap)")
	return cmd
}

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	var lang, mode string
	cmd := &cobra.Command{
		Use:   "summarize <url-or-id>",
		Short: "Summarize a video",
		Long: `Summarize a video in the chosen language.

Examples:
  ytsum summarize https://youtu.be/dQw4w9WgXcQ
  ytsum summarize dQw4w9WgXcQ --lang de
  ytsum summarize "https://www.youtube.com/watch?v=dQw4w9WgXcQ" --mode podcast`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := summarize.ParseMode(mode)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), opts.config())
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Summarize(cmd.Context(), args[0], toolutil.NormLang(lang), m, progress(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "source: %s, chunks: %d, calls: %d\n", rep.Source, rep.Chunks, rep.Calls)
			fmt.Fprintln(cmd.OutOrStdout(), rep.Summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "Summary language code")
	cmd.Flags().StringVarP(&mode, "mode", "m", "standard", "Summary style: standard or podcast")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
