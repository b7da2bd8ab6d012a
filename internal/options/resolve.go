// Package options turns flags, config-file defaults and the optional quality
// prompt into the single RunConfig shared by every job of a run.
package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ytbatch/internal/config"
	"ytbatch/internal/logging"
	"ytbatch/internal/model"
)

// ErrInvalidConfig marks errors that must stop the run before any job starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// Flags is the merged flag and config-file input to Resolve. NoMtime only
// records an explicit request; mtime is dropped unless KeepMtime is set.
type Flags struct {
	Format        string
	Audio         bool
	AudioFormat   string
	OutDir        string
	OutTemplate   string
	NoPlaylist    bool
	RateLimit     string
	Retries       int
	Subs          bool
	Lang          string
	NoEmbedSubs   bool
	Cookies       string
	Proxy         string
	Concurrent    int
	NoMtime       bool
	KeepMtime     bool
	NoGeoBypass   bool
	Geo           string
	ExtractorArgs string
	Verbose       bool
	Update        bool
	NoPrompt      bool
}

// DefaultFlags returns the built-in defaults used when neither a flag nor the
// config file sets a value.
func DefaultFlags() Flags {
	return Flags{
		AudioFormat: config.DefaultAudioFormat,
		OutDir:      config.DefaultOutputDir,
		OutTemplate: config.DefaultOutputTemplate,
		Retries:     config.DefaultRetries,
		Lang:        config.DefaultSubtitleLang,
		Concurrent:  config.DefaultConcurrent,
	}
}

// Choice is one entry of the quality menu.
type Choice struct {
	Key      string
	Label    string
	Selector string
	Audio    bool
}

// Choices is the quality menu in display order. The first entry is the default.
var Choices = []Choice{
	{Key: "1", Label: "Up to 1080p MP4 + best audio (default)", Selector: heightSelector(1080)},
	{Key: "2", Label: "Up to 720p MP4 + best audio", Selector: heightSelector(720)},
	{Key: "3", Label: "Up to 480p MP4 + best audio", Selector: heightSelector(480)},
	{Key: "4", Label: "Audio only (M4A)", Audio: true},
}

func heightSelector(h int) string {
	return fmt.Sprintf("bv*[height<=%d][ext=mp4]+ba[ext=m4a]/b[height<=%d][ext=mp4]/b[height<=%d]", h, h, h)
}

// Prompter reads one line of input in answer to the quality menu.
type Prompter interface {
	Prompt(choices []Choice) (string, error)
}

type resolveState int

const (
	stateAwaitingChoice resolveState = iota
	stateResolved
)

// Resolve validates flags and produces the run configuration. The prompter is
// consulted only when no explicit format, audio mode or --noPrompt is given.
func Resolve(f Flags, prompter Prompter, log *logging.Logger) (model.RunConfig, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := validate(f); err != nil {
		return model.RunConfig{}, err
	}

	cfg := model.RunConfig{
		AudioFormat:    strings.TrimSpace(f.AudioFormat),
		MergeFormat:    config.DefaultMergeFormat,
		OutputDir:      strings.TrimSpace(f.OutDir),
		OutputTemplate: strings.TrimSpace(f.OutTemplate),
		Playlist:       !f.NoPlaylist,
		Subtitles:      f.Subs,
		SubtitleLang:   strings.TrimSpace(f.Lang),
		EmbedSubtitle:  f.Subs && !f.NoEmbedSubs,
		RateLimit:      strings.TrimSpace(f.RateLimit),
		ProxyURL:       strings.TrimSpace(f.Proxy),
		GeoBypass:      !f.NoGeoBypass,
		GeoCountry:     strings.ToUpper(strings.TrimSpace(f.Geo)),
		ExtractorArgs:  strings.TrimSpace(f.ExtractorArgs),
		KeepMtime:      f.KeepMtime,
		SelfUpdate:     f.Update,
		Retries:        f.Retries,
		Concurrent:     f.Concurrent,
		Verbose:        f.Verbose,
		NoPrompt:       f.NoPrompt,
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = config.DefaultOutputDir
	}
	if cfg.OutputTemplate == "" {
		cfg.OutputTemplate = config.DefaultOutputTemplate
	}
	if cfg.SubtitleLang == "" {
		cfg.SubtitleLang = config.DefaultSubtitleLang
	}

	cookies, err := resolveCookiesPath(f.Cookies)
	if err != nil {
		return model.RunConfig{}, err
	}
	cfg.CookiesPath = cookies

	state := stateAwaitingChoice
	format := strings.TrimSpace(f.Format)
	switch {
	case f.Audio:
		cfg.AudioOnly = true
		cfg.Selection = model.SelectionAudio
		state = stateResolved
	case format != "":
		cfg.Format = format
		cfg.Selection = model.SelectionFormat
		state = stateResolved
	case f.NoPrompt:
		applyChoice(&cfg, Choices[0])
		cfg.Selection = model.SelectionDefault
		state = stateResolved
	}

	if state == stateAwaitingChoice {
		if prompter == nil {
			return model.RunConfig{}, fmt.Errorf("%w: no prompt available; pass --format, --audio or --noPrompt", ErrInvalidConfig)
		}
		line, err := prompter.Prompt(Choices)
		if err != nil {
			return model.RunConfig{}, fmt.Errorf("read quality choice: %w", err)
		}
		choice, ok := pickChoice(line)
		if !ok {
			log.Warnf("unrecognized choice %q, using option 1", strings.TrimSpace(line))
		}
		applyChoice(&cfg, choice)
		cfg.Selection = model.SelectionPrompt
	}

	log.Debug().
		Str("selection", string(cfg.Selection)).
		Bool("audio", cfg.AudioOnly).
		Str("format", cfg.Format).
		Msg("options resolved")
	return cfg, nil
}

func applyChoice(cfg *model.RunConfig, c Choice) {
	if c.Audio {
		cfg.AudioOnly = true
		cfg.AudioFormat = config.DefaultAudioFormat
		cfg.Format = ""
		return
	}
	cfg.AudioOnly = false
	cfg.Format = c.Selector
}

// pickChoice maps one line of input to a menu entry. Empty input is the
// default; anything unknown falls back to the default with ok=false.
func pickChoice(line string) (Choice, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Choices[0], true
	}
	for _, c := range Choices {
		if c.Key == line {
			return c, true
		}
	}
	return Choices[0], false
}

func validate(f Flags) error {
	if f.Concurrent < 1 {
		return fmt.Errorf("%w: --concurrent must be at least 1 (got %d)", ErrInvalidConfig, f.Concurrent)
	}
	if f.Retries < 0 {
		return fmt.Errorf("%w: --retries must not be negative (got %d)", ErrInvalidConfig, f.Retries)
	}
	if f.Audio && strings.TrimSpace(f.AudioFormat) == "" {
		return fmt.Errorf("%w: --audioFormat must not be empty in audio mode", ErrInvalidConfig)
	}
	geo := strings.TrimSpace(f.Geo)
	if f.NoGeoBypass && geo != "" {
		return fmt.Errorf("%w: --noGeoBypass and --geo cannot be combined", ErrInvalidConfig)
	}
	if geo != "" && !isCountryCode(geo) {
		return fmt.Errorf("%w: --geo expects a two-letter country code (got %q)", ErrInvalidConfig, geo)
	}
	if f.KeepMtime && f.NoMtime {
		return fmt.Errorf("%w: --noMtime and --keepMtime cannot be combined", ErrInvalidConfig)
	}
	return nil
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func resolveCookiesPath(raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolve cookies path: %v", ErrInvalidConfig, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%w: cookies file not found: %s", ErrInvalidConfig, abs)
	}
	return abs, nil
}
