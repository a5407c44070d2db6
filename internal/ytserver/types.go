package ytserver

// TranscriptInput is the input for video_transcript.
type TranscriptInput struct {
	URL      string `json:"url" jsonschema:"Video URL (watch, youtu.be, embed, shorts) or bare 11-character video ID"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"Cap the returned transcript at this many characters (default: no cap)"`
}

// TranscriptOutput is the structured output for video_transcript.
type TranscriptOutput struct {
	VideoID   string   `json:"video_id"`
	Language  string   `json:"language"`
	Source    string   `json:"source"`
	Text      string   `json:"text"`
	Truncated bool     `json:"truncated,omitempty"`
	Attempts  []string `json:"attempts,omitempty"`
	Cached    bool     `json:"cached,omitempty"`
}

// SummarizeInput is the input for video_summarize.
type SummarizeInput struct {
	URL      string `json:"url" jsonschema:"Video URL (watch, youtu.be, embed, shorts) or bare 11-character video ID"`
	Language string `json:"language,omitempty" jsonschema:"Language code for the summary: en, de, es, fr, it, nl, pl, pt, ru, ja, zh, ko (default: en). Other codes are accepted with English section labels"`
	Mode     string `json:"mode,omitempty" jsonschema:"Summary style: standard (concise, default) or podcast (longer, exploratory)"`
}

// HistoryInput is the input for video_history.
type HistoryInput struct {
	URL   string `json:"url,omitempty" jsonschema:"Only runs for this video (URL or ID); empty lists all recent runs"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum runs to return (default: 20)"`
}

// HistoryEntry is one run in video_history output.
type HistoryEntry struct {
	ID        string   `json:"id"`
	VideoID   string   `json:"video_id"`
	Strategy  string   `json:"strategy"`
	Language  string   `json:"language"`
	Mode      string   `json:"mode,omitempty"`
	Chars     int      `json:"transcript_chars"`
	Attempts  []string `json:"attempts,omitempty"`
	Summary   string   `json:"summary_preview,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// HistoryOutput is the structured output for video_history.
type HistoryOutput struct {
	Runs  []HistoryEntry `json:"runs"`
	Total int            `json:"total"`
}
