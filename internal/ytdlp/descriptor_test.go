package ytdlp

import (
	"strings"
	"testing"

	"ytbatch/internal/model"
)

func baseConfig() model.RunConfig {
	return model.RunConfig{
		Format:         "bv*[height<=720][ext=mp4]+ba[ext=m4a]/b[height<=720][ext=mp4]/b[height<=720]",
		MergeFormat:    "mp4",
		OutputDir:      "out",
		OutputTemplate: "%(uploader)s - %(title).80B [%(id)s].%(ext)s",
		Playlist:       true,
		SubtitleLang:   "en",
		GeoBypass:      true,
		Retries:        2,
		Concurrent:     2,
	}
}

func argValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func hasArg(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestArgsVideoDefaults(t *testing.T) {
	args := Build("https://example.com/watch?v=1", baseConfig()).Args()

	if got, _ := argValue(args, "-f"); !strings.Contains(got, "height<=720") {
		t.Fatalf("selector mismatch: %q", got)
	}
	if got, _ := argValue(args, "--merge-output-format"); got != "mp4" {
		t.Fatalf("merge format mismatch: %q", got)
	}
	if got, _ := argValue(args, "-o"); got != "out/%(uploader)s - %(title).80B [%(id)s].%(ext)s" {
		t.Fatalf("output template mismatch: %q", got)
	}
	for _, want := range []string{"--yes-playlist", "--geo-bypass", "--no-mtime", "--no-update"} {
		if !hasArg(args, want) {
			t.Fatalf("expected %s in %q", want, args)
		}
	}
	for _, unwanted := range []string{"-x", "--no-playlist", "--write-subs", "--limit-rate", "--cookies", "--proxy", "--extractor-args", "--mtime", "--update"} {
		if hasArg(args, unwanted) {
			t.Fatalf("unexpected %s in %q", unwanted, args)
		}
	}
	if n := len(args); args[n-2] != "--" || args[n-1] != "https://example.com/watch?v=1" {
		t.Fatalf("locator must be last after --: %q", args[n-2:])
	}
	if got, _ := argValue(args, "--add-header"); got != "User-Agent:"+UserAgent {
		t.Fatalf("user agent header mismatch: %q", got)
	}
	headers := 0
	for _, a := range args {
		if a == "--add-header" {
			headers++
		}
	}
	if headers != 2 || !hasArg(args, "Accept-Language:en-US,en;q=0.9") {
		t.Fatalf("expected both headers, got %q", args)
	}
}

func TestArgsAudioMode(t *testing.T) {
	cfg := baseConfig()
	cfg.AudioOnly = true
	cfg.AudioFormat = "opus"
	args := Build("u", cfg).Args()

	if got, _ := argValue(args, "-f"); got != "ba/b" {
		t.Fatalf("audio selector mismatch: %q", got)
	}
	if !hasArg(args, "-x") {
		t.Fatalf("expected -x in %q", args)
	}
	if got, _ := argValue(args, "--audio-format"); got != "opus" {
		t.Fatalf("audio format mismatch: %q", got)
	}
	if hasArg(args, "--merge-output-format") {
		t.Fatalf("merge format must not be set in audio mode: %q", args)
	}
}

func TestArgsOptionalGroups(t *testing.T) {
	cfg := baseConfig()
	cfg.Playlist = false
	cfg.Subtitles = true
	cfg.SubtitleLang = "de"
	cfg.EmbedSubtitle = true
	cfg.RateLimit = "2M"
	cfg.CookiesPath = "/tmp/cookies.txt"
	cfg.ProxyURL = "socks5://127.0.0.1:1080"
	cfg.GeoCountry = "CH"
	cfg.ExtractorArgs = "youtube:player_client=android"
	cfg.KeepMtime = true
	cfg.SelfUpdate = true
	args := Build("u", cfg).Args()

	checks := map[string]string{
		"--sub-langs":          "de",
		"--limit-rate":         "2M",
		"--cookies":            "/tmp/cookies.txt",
		"--proxy":              "socks5://127.0.0.1:1080",
		"--geo-bypass-country": "CH",
		"--extractor-args":     "youtube:player_client=android",
	}
	for flag, want := range checks {
		if got, ok := argValue(args, flag); !ok || got != want {
			t.Fatalf("%s mismatch: got %q want %q", flag, got, want)
		}
	}
	for _, want := range []string{"--no-playlist", "--write-subs", "--write-auto-subs", "--embed-subs", "--mtime", "--update"} {
		if !hasArg(args, want) {
			t.Fatalf("expected %s in %q", want, args)
		}
	}
	for _, unwanted := range []string{"--yes-playlist", "--geo-bypass", "--no-geo-bypass", "--no-mtime", "--no-update"} {
		if hasArg(args, unwanted) {
			t.Fatalf("unexpected %s in %q", unwanted, args)
		}
	}
}

func TestArgsSubtitlesWithoutEmbed(t *testing.T) {
	cfg := baseConfig()
	cfg.Subtitles = true
	cfg.EmbedSubtitle = false
	args := Build("u", cfg).Args()
	if !hasArg(args, "--write-subs") || hasArg(args, "--embed-subs") {
		t.Fatalf("unexpected subtitle args: %q", args)
	}
}

func TestArgsNoGeoBypass(t *testing.T) {
	cfg := baseConfig()
	cfg.GeoBypass = false
	args := Build("u", cfg).Args()
	if !hasArg(args, "--no-geo-bypass") || hasArg(args, "--geo-bypass") {
		t.Fatalf("unexpected geo args: %q", args)
	}
}

func TestArgsDashLocatorStaysPositional(t *testing.T) {
	args := Build("-dQw4w9WgXcQ", baseConfig()).Args()
	if n := len(args); args[n-2] != "--" || args[n-1] != "-dQw4w9WgXcQ" {
		t.Fatalf("dash locator must follow --: %q", args)
	}
}
