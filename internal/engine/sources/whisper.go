package sources

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// Whisper transcribes audio through an OpenAI-compatible
// /audio/transcriptions endpoint (OpenAI or Groq).
type Whisper struct {
	client *openai.Client
	model  string
}

// NewWhisper builds a transcriber from the WHISPER_* settings in cfg.
func NewWhisper(cfg engine.Config) *Whisper {
	oc := openai.DefaultConfig(cfg.WhisperAPIKey)
	if cfg.WhisperAPIBase != "" {
		oc.BaseURL = strings.TrimRight(cfg.WhisperAPIBase, "/")
	}
	hc := cfg.HTTPClient()
	hc.Timeout = 0 // uploads of long episodes outlive FETCH_TIMEOUT
	oc.HTTPClient = hc
	model := cfg.WhisperModel
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{client: openai.NewClientWithConfig(oc), model: model}
}

// Transcribe returns the verbatim text of the audio at path. Language is
// pinned to English, matching what callers report for audio results.
func (w *Whisper) Transcribe(ctx context.Context, path string) (string, error) {
	engine.IncrWhisper()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: path,
		Language: "en",
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
