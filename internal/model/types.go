package model

import "time"

// SelectionSource records which input decided the format selector of a run.
type SelectionSource string

const (
	SelectionAudio   SelectionSource = "audio"
	SelectionFormat  SelectionSource = "format"
	SelectionPrompt  SelectionSource = "prompt"
	SelectionDefault SelectionSource = "default"
)

// RunConfig is the resolved, read-only configuration shared by every job of a run.
type RunConfig struct {
	AudioOnly   bool            `json:"audio_only"`
	AudioFormat string          `json:"audio_format,omitempty"`
	Format      string          `json:"format,omitempty"`
	MergeFormat string          `json:"merge_format,omitempty"`
	Selection   SelectionSource `json:"selection"`

	OutputDir      string `json:"output_dir"`
	OutputTemplate string `json:"output_template"`
	Playlist       bool   `json:"playlist"`

	Subtitles     bool   `json:"subtitles"`
	SubtitleLang  string `json:"subtitle_lang,omitempty"`
	EmbedSubtitle bool   `json:"embed_subtitles"`

	RateLimit     string `json:"rate_limit,omitempty"`
	CookiesPath   string `json:"cookies_path,omitempty"`
	ProxyURL      string `json:"proxy_url,omitempty"`
	GeoBypass     bool   `json:"geo_bypass"`
	GeoCountry    string `json:"geo_country,omitempty"`
	ExtractorArgs string `json:"extractor_args,omitempty"`

	KeepMtime  bool `json:"keep_mtime"`
	SelfUpdate bool `json:"self_update"`

	Retries    int  `json:"retries"`
	Concurrent int  `json:"concurrent"`
	Verbose    bool `json:"verbose"`
	NoPrompt   bool `json:"no_prompt"`
}

// JobOutcome is the terminal result of one locator after all attempts.
type JobOutcome struct {
	Locator  string
	Success  bool
	Attempts int
	Err      error
}

// JobRecord is the report view of one job.
type JobRecord struct {
	Index      int    `json:"index"`
	Locator    string `json:"locator"`
	State      string `json:"state"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// RunResult aggregates the outcomes of a run. Failed is in completion order.
type RunResult struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Total      int         `json:"total"`
	Succeeded  int         `json:"succeeded"`
	Failed     []string    `json:"failed"`
	Jobs       []JobRecord `json:"jobs"`
}

func (r RunResult) OK() bool {
	return len(r.Failed) == 0
}
