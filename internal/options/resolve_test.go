package options

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytbatch/internal/logging"
	"ytbatch/internal/model"
)

type stubPrompter struct {
	line  string
	err   error
	calls int
}

func (s *stubPrompter) Prompt(choices []Choice) (string, error) {
	s.calls++
	return s.line, s.err
}

func TestResolveAudioWinsOverFormatAndSkipsPrompt(t *testing.T) {
	f := DefaultFlags()
	f.Audio = true
	f.Format = "best"
	p := &stubPrompter{line: "2"}

	cfg, err := Resolve(f, p, logging.Nop())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("prompt should be skipped, got %d calls", p.calls)
	}
	if !cfg.AudioOnly || cfg.Selection != model.SelectionAudio {
		t.Fatalf("expected audio selection, got %+v", cfg)
	}
	if cfg.AudioFormat != "m4a" {
		t.Fatalf("audio format mismatch: got %q", cfg.AudioFormat)
	}
}

func TestResolveExplicitFormatSkipsPrompt(t *testing.T) {
	f := DefaultFlags()
	f.Format = "bv*+ba/b"
	p := &stubPrompter{}

	cfg, err := Resolve(f, p, logging.Nop())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("prompt should be skipped")
	}
	if cfg.Format != "bv*+ba/b" || cfg.Selection != model.SelectionFormat || cfg.AudioOnly {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveNoPromptUsesFirstChoice(t *testing.T) {
	f := DefaultFlags()
	f.NoPrompt = true
	p := &stubPrompter{}

	cfg, err := Resolve(f, p, logging.Nop())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("prompt should be skipped")
	}
	if cfg.Format != Choices[0].Selector || cfg.Selection != model.SelectionDefault {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !strings.Contains(cfg.Format, "height<=1080") {
		t.Fatalf("default selector should cap at 1080p: %q", cfg.Format)
	}
}

func TestResolvePromptChoices(t *testing.T) {
	cases := []struct {
		input     string
		wantAudio bool
		wantSel   string
	}{
		{input: "", wantSel: Choices[0].Selector},
		{input: "1", wantSel: Choices[0].Selector},
		{input: " 2 ", wantSel: Choices[1].Selector},
		{input: "3", wantSel: Choices[2].Selector},
		{input: "4", wantAudio: true},
	}
	for _, tc := range cases {
		p := &stubPrompter{line: tc.input}
		cfg, err := Resolve(DefaultFlags(), p, logging.Nop())
		if err != nil {
			t.Fatalf("input %q: resolve failed: %v", tc.input, err)
		}
		if p.calls != 1 {
			t.Fatalf("input %q: expected one prompt, got %d", tc.input, p.calls)
		}
		if cfg.Selection != model.SelectionPrompt {
			t.Fatalf("input %q: selection mismatch: %q", tc.input, cfg.Selection)
		}
		if cfg.AudioOnly != tc.wantAudio {
			t.Fatalf("input %q: audio mismatch: %v", tc.input, cfg.AudioOnly)
		}
		if tc.wantAudio {
			if cfg.AudioFormat != "m4a" || cfg.Format != "" {
				t.Fatalf("input %q: unexpected audio config: %+v", tc.input, cfg)
			}
			continue
		}
		if cfg.Format != tc.wantSel {
			t.Fatalf("input %q: selector mismatch: got %q want %q", tc.input, cfg.Format, tc.wantSel)
		}
	}
}

func TestResolveUnrecognizedChoiceWarnsAndDefaults(t *testing.T) {
	var buf bytes.Buffer
	p := &stubPrompter{line: "9"}

	cfg, err := Resolve(DefaultFlags(), p, logging.New(&buf, false))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Format != Choices[0].Selector {
		t.Fatalf("expected fallback to choice 1, got %q", cfg.Format)
	}
	if !strings.Contains(buf.String(), "unrecognized choice") {
		t.Fatalf("expected warning line, got:\n%s", buf.String())
	}
}

func TestResolvePromptErrorIsReturned(t *testing.T) {
	p := &stubPrompter{err: errors.New("tty gone")}
	if _, err := Resolve(DefaultFlags(), p, logging.Nop()); err == nil {
		t.Fatal("expected prompt error")
	}
}

func TestResolveValidation(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Flags)
	}{
		{name: "zero concurrency", edit: func(f *Flags) { f.Concurrent = 0 }},
		{name: "negative retries", edit: func(f *Flags) { f.Retries = -1 }},
		{name: "empty audio codec", edit: func(f *Flags) { f.Audio = true; f.AudioFormat = " " }},
		{name: "geo conflict", edit: func(f *Flags) { f.NoGeoBypass = true; f.Geo = "US" }},
		{name: "mtime conflict", edit: func(f *Flags) { f.NoMtime = true; f.KeepMtime = true }},
		{name: "bad geo", edit: func(f *Flags) { f.Geo = "USA" }},
		{name: "missing cookies", edit: func(f *Flags) { f.Cookies = filepath.Join(os.TempDir(), "ytbatch-missing-cookies.txt") }},
	}
	for _, tc := range cases {
		f := DefaultFlags()
		f.NoPrompt = true
		tc.edit(&f)
		_, err := Resolve(f, nil, logging.Nop())
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestResolveCarriesNetworkAndOutputOptions(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(cookies, []byte("# Netscape HTTP Cookie File\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := DefaultFlags()
	f.NoPrompt = true
	f.Cookies = cookies
	f.Geo = "de"
	f.Subs = true
	f.NoEmbedSubs = true
	f.NoPlaylist = true
	f.KeepMtime = true
	f.Update = true

	cfg, err := Resolve(f, nil, logging.Nop())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.CookiesPath != cookies {
		t.Fatalf("cookies path mismatch: got %q", cfg.CookiesPath)
	}
	if cfg.GeoCountry != "DE" || !cfg.GeoBypass {
		t.Fatalf("geo mismatch: %+v", cfg)
	}
	if !cfg.Subtitles || cfg.EmbedSubtitle || cfg.SubtitleLang != "en" {
		t.Fatalf("subtitle mismatch: %+v", cfg)
	}
	if cfg.Playlist || !cfg.KeepMtime || !cfg.SelfUpdate {
		t.Fatalf("flag mismatch: %+v", cfg)
	}
	if cfg.OutputDir != "./downloads" || cfg.MergeFormat != "mp4" {
		t.Fatalf("output defaults mismatch: %+v", cfg)
	}
}

func TestResolveWithoutPrompterNeedsBypass(t *testing.T) {
	_, err := Resolve(DefaultFlags(), nil, logging.Nop())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
