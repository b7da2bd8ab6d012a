// Package config loads optional YAML defaults for a batch run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// File mirrors the command-line flags. Pointer fields distinguish "unset" from
// an explicit zero value so that a file can turn a default-on option off.
type File struct {
	Format        string `yaml:"format"`
	Audio         *bool  `yaml:"audio"`
	AudioFormat   string `yaml:"audio_format"`
	OutDir        string `yaml:"out_dir"`
	OutTemplate   string `yaml:"out_template"`
	NoPlaylist    *bool  `yaml:"no_playlist"`
	RateLimit     string `yaml:"rate_limit"`
	Retries       *int   `yaml:"retries"`
	Subs          *bool  `yaml:"subs"`
	Lang          string `yaml:"lang"`
	NoEmbedSubs   *bool  `yaml:"no_embed_subs"`
	Cookies       string `yaml:"cookies"`
	Proxy         string `yaml:"proxy"`
	Concurrent    *int   `yaml:"concurrent"`
	KeepMtime     *bool  `yaml:"keep_mtime"`
	NoGeoBypass   *bool  `yaml:"no_geo_bypass"`
	Geo           string `yaml:"geo"`
	ExtractorArgs string `yaml:"extractor_args"`
	Verbose       *bool  `yaml:"verbose"`
	NoPrompt      *bool  `yaml:"no_prompt"`
	YTDLP         string `yaml:"ytdlp"`
}

// ResolvePath picks the config file to read: the explicit path wins, then the
// YTBATCH_CONFIG environment variable. An empty result means no file.
func ResolvePath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// Load reads a YAML config file. An empty path yields an empty File.
func Load(path string) (File, error) {
	var cfg File
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.SetStrict(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
