package ytdlp

import (
	"path/filepath"
	"strings"

	"ytbatch/internal/model"
)

const (
	// UserAgent is sent with every request yt-dlp makes.
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.9"

	audioSelector = "ba/b"
)

// JobDescriptor fully determines one yt-dlp invocation.
type JobDescriptor struct {
	Locator    string
	OutputPath string

	Selector    string
	AudioOnly   bool
	AudioFormat string
	MergeFormat string

	Playlist bool

	Subtitles     bool
	SubtitleLang  string
	EmbedSubtitle bool

	RateLimit     string
	CookiesPath   string
	ProxyURL      string
	GeoBypass     bool
	GeoCountry    string
	ExtractorArgs string

	KeepMtime  bool
	SelfUpdate bool
}

// Build derives the descriptor for one locator from the run configuration.
func Build(locator string, cfg model.RunConfig) JobDescriptor {
	d := JobDescriptor{
		Locator:       locator,
		OutputPath:    filepath.Join(cfg.OutputDir, cfg.OutputTemplate),
		AudioOnly:     cfg.AudioOnly,
		Playlist:      cfg.Playlist,
		Subtitles:     cfg.Subtitles,
		SubtitleLang:  cfg.SubtitleLang,
		EmbedSubtitle: cfg.Subtitles && cfg.EmbedSubtitle,
		RateLimit:     strings.TrimSpace(cfg.RateLimit),
		CookiesPath:   strings.TrimSpace(cfg.CookiesPath),
		ProxyURL:      strings.TrimSpace(cfg.ProxyURL),
		GeoBypass:     cfg.GeoBypass,
		GeoCountry:    strings.TrimSpace(cfg.GeoCountry),
		ExtractorArgs: strings.TrimSpace(cfg.ExtractorArgs),
		KeepMtime:     cfg.KeepMtime,
		SelfUpdate:    cfg.SelfUpdate,
	}
	if cfg.AudioOnly {
		d.Selector = audioSelector
		d.AudioFormat = cfg.AudioFormat
	} else {
		d.Selector = cfg.Format
		d.MergeFormat = cfg.MergeFormat
		if d.MergeFormat == "" {
			d.MergeFormat = "mp4"
		}
	}
	return d
}

// Args renders the descriptor as yt-dlp arguments. The locator is always
// last, after "--".
func (d JobDescriptor) Args() []string {
	args := []string{"-f", d.Selector}
	if d.AudioOnly {
		args = append(args, "-x", "--audio-format", d.AudioFormat)
	} else {
		args = append(args, "--merge-output-format", d.MergeFormat)
	}

	args = append(args, "-o", d.OutputPath)

	if d.Playlist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}

	if d.Subtitles {
		args = append(args, "--write-subs", "--write-auto-subs", "--sub-langs", d.SubtitleLang)
		if d.EmbedSubtitle {
			args = append(args, "--embed-subs")
		}
	}

	if d.RateLimit != "" {
		args = append(args, "--limit-rate", d.RateLimit)
	}
	if d.CookiesPath != "" {
		args = append(args, "--cookies", d.CookiesPath)
	}
	if d.ProxyURL != "" {
		args = append(args, "--proxy", d.ProxyURL)
	}

	args = append(args,
		"--add-header", "User-Agent:"+UserAgent,
		"--add-header", "Accept-Language:"+AcceptLanguage,
	)

	switch {
	case d.GeoCountry != "":
		args = append(args, "--geo-bypass-country", d.GeoCountry)
	case !d.GeoBypass:
		args = append(args, "--no-geo-bypass")
	default:
		args = append(args, "--geo-bypass")
	}

	if d.ExtractorArgs != "" {
		args = append(args, "--extractor-args", d.ExtractorArgs)
	}

	if d.KeepMtime {
		args = append(args, "--mtime")
	} else {
		args = append(args, "--no-mtime")
	}
	if d.SelfUpdate {
		args = append(args, "--update")
	} else {
		args = append(args, "--no-update")
	}

	return append(args, "--", d.Locator)
}
