// Package cli wires the ytbatch command line to the option resolver, the
// scheduler and the run reporter.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ytbatch/internal/batch"
	"ytbatch/internal/config"
	"ytbatch/internal/logging"
	"ytbatch/internal/model"
	"ytbatch/internal/options"
	"ytbatch/internal/runstore"
	"ytbatch/internal/version"
	"ytbatch/internal/ytdlp"
)

// env holds the process streams and the pieces tests replace.
type env struct {
	stdout io.Writer
	stderr io.Writer

	newPrompter     func() options.Prompter
	releaseEndpoint string
}

func defaultEnv() env {
	return env{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newPrompter: options.NewPrompter,
	}
}

type rootOptions struct {
	flags options.Flags

	fromFile   string
	configPath string
	ytdlpPath  string
	reportPath string
	progress   bool
}

// Run executes the command line and returns the error that decides the exit
// status. batch.ErrRunFailed means the run finished with failures.
func Run(args []string) error {
	cmd := newRootCmd(defaultEnv())
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd(e env) *cobra.Command {
	opts := &rootOptions{flags: options.DefaultFlags()}

	rootCmd := &cobra.Command{
		Use:   "ytbatch [flags] [url...]",
		Short: "Download a batch of media URLs with yt-dlp",
		Long: `ytbatch downloads every URL given on the command line or in a batch file
by running yt-dlp for each one, a few at a time, retrying failures.

Exit status is 0 when every download succeeded, 2 when at least one failed
and 1 for usage or configuration errors.`,
		Version:       version.Value,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, e, opts, args)
		},
	}
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)

	f := &opts.flags
	fl := rootCmd.Flags()
	fl.StringVarP(&f.Format, "format", "f", "", "yt-dlp format selector (skips the quality prompt)")
	fl.BoolVar(&f.Audio, "audio", false, "extract audio only (skips the quality prompt)")
	fl.StringVar(&f.AudioFormat, "audioFormat", f.AudioFormat, "audio codec for --audio")
	fl.StringVarP(&f.OutDir, "outDir", "o", f.OutDir, "output directory")
	fl.StringVar(&f.OutTemplate, "outTemplate", f.OutTemplate, "yt-dlp output file name template")
	fl.BoolVar(&f.NoPlaylist, "noPlaylist", false, "download only the single video when a URL names a playlist")
	fl.StringVar(&f.RateLimit, "rateLimit", "", "download rate limit, e.g. 2M")
	fl.IntVar(&f.Retries, "retries", f.Retries, "retries per URL after the first attempt")
	fl.BoolVar(&f.Subs, "subs", false, "download subtitles")
	fl.StringVar(&f.Lang, "lang", f.Lang, "subtitle languages")
	fl.BoolVar(&f.NoEmbedSubs, "noEmbedSubs", false, "keep subtitles as separate files")
	fl.StringVar(&opts.fromFile, "fromFile", "", "read URLs from a file, one per line")
	fl.StringVar(&f.Cookies, "cookies", "", "path to a cookies.txt file")
	fl.StringVar(&f.Proxy, "proxy", "", "proxy URL")
	fl.IntVar(&f.Concurrent, "concurrent", f.Concurrent, "number of downloads to run at once")
	fl.BoolVar(&f.NoMtime, "noMtime", false, "do not set file modification time from the server (default)")
	fl.BoolVar(&f.KeepMtime, "keepMtime", false, "set file modification time from the server")
	fl.BoolVar(&f.NoGeoBypass, "noGeoBypass", false, "disable geo-restriction bypass")
	fl.StringVar(&f.Geo, "geo", "", "two-letter country code for geo bypass")
	fl.StringVar(&f.ExtractorArgs, "extractorArgs", "", "arguments passed to yt-dlp --extractor-args")
	fl.BoolVarP(&f.Verbose, "verbose", "v", false, "show debug logs and error details")
	fl.BoolVar(&f.Update, "update", false, "let yt-dlp update itself before downloading")
	fl.BoolVar(&f.NoPrompt, "noPrompt", false, "never ask for a quality; use the 1080p default")
	fl.StringVar(&opts.configPath, "config", "", "YAML config file with defaults (also $"+config.EnvConfigPath+")")
	fl.StringVar(&opts.ytdlpPath, "ytdlp", config.DefaultYTDLPBinary, "yt-dlp binary")
	fl.StringVar(&opts.reportPath, "report", "", "write a JSON run report to this file")
	fl.BoolVar(&opts.progress, "progress", false, "show an aggregate progress bar on stderr")

	rootCmd.MarkFlagsMutuallyExclusive("noMtime", "keepMtime")
	rootCmd.MarkFlagsMutuallyExclusive("noGeoBypass", "geo")

	rootCmd.AddCommand(newDoctorCmd(e))
	return rootCmd
}

func runBatch(cmd *cobra.Command, e env, opts *rootOptions, args []string) error {
	file, err := config.Load(config.ResolvePath(opts.configPath))
	if err != nil {
		return fmt.Errorf("%w: %v", options.ErrInvalidConfig, err)
	}
	flags := mergeConfig(cmd, opts.flags, file)
	ytdlpBin := opts.ytdlpPath
	if !cmd.Flags().Changed("ytdlp") && strings.TrimSpace(file.YTDLP) != "" {
		ytdlpBin = strings.TrimSpace(file.YTDLP)
	}

	log := logging.New(e.stderr, flags.Verbose)

	locators, err := collectLocators(args, opts.fromFile)
	if err != nil {
		return err
	}

	var prompter options.Prompter
	if e.newPrompter != nil {
		prompter = e.newPrompter()
	}
	cfg, err := options.Resolve(flags, prompter, log)
	if err != nil {
		return err
	}
	if err := runstore.Mkdir(cfg.OutputDir); err != nil {
		return err
	}

	runID := newRunID()
	log = log.WithRun(runID)
	log.Info().Int("jobs", len(locators)).Int("concurrent", cfg.Concurrent).Str("out", cfg.OutputDir).Msg("starting run")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			log.Warn().Msg("interrupt received, waiting for running downloads to finish")
			// A second interrupt terminates the process.
			stop()
		case <-done:
		}
	}()

	res, err := executeRun(ctx, e, cfg, ytdlpBin, locators, opts.progress, log)
	if err != nil {
		return err
	}
	res.RunID = runID

	if err := batch.WriteReport(opts.reportPath, res); err != nil {
		log.Error().Err(err).Msg("run report not written")
	}
	return batch.Report(e.stdout, res)
}

func executeRun(ctx context.Context, e env, cfg model.RunConfig, ytdlpBin string, locators []string, showProgress bool, log *logging.Logger) (model.RunResult, error) {
	runner := &ytdlp.Runner{Binary: ytdlpBin, Stdout: e.stdout, Stderr: e.stderr}
	retrier := batch.NewRetrier(runner, log)

	bar := batch.NewProgress(len(locators), showProgress, e.stderr)
	defer bar.Finish()

	s := &batch.Scheduler{
		Concurrency: cfg.Concurrent,
		Retries:     cfg.Retries,
		Log:         log,
		OnDone:      bar.Done,
		Attempt: func(ctx context.Context, locator string, maxRetries int, track batch.StateFunc) model.JobOutcome {
			return retrier.AttemptTracked(ctx, ytdlp.Build(locator, cfg), maxRetries, track)
		},
	}
	return s.Run(ctx, locators)
}

// collectLocators returns the positional URLs followed by the batch file
// lines. An empty result is a configuration error.
func collectLocators(args []string, fromFile string) ([]string, error) {
	locators := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			locators = append(locators, a)
		}
	}
	if path := strings.TrimSpace(fromFile); path != "" {
		lines, err := runstore.ReadLines(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", options.ErrInvalidConfig, err)
		}
		locators = append(locators, lines...)
	}
	if len(locators) == 0 {
		return nil, fmt.Errorf("%w: no URLs given; pass URLs as arguments or use --fromFile", options.ErrInvalidConfig)
	}
	return locators, nil
}

// mergeConfig fills every flag the user did not set from the config file.
func mergeConfig(cmd *cobra.Command, f options.Flags, file config.File) options.Flags {
	changed := cmd.Flags().Changed

	f.Format = pickString(changed("format"), f.Format, file.Format)
	f.Audio = pickBool(changed("audio"), f.Audio, file.Audio)
	f.AudioFormat = pickString(changed("audioFormat"), f.AudioFormat, file.AudioFormat)
	f.OutDir = pickString(changed("outDir"), f.OutDir, file.OutDir)
	f.OutTemplate = pickString(changed("outTemplate"), f.OutTemplate, file.OutTemplate)
	f.NoPlaylist = pickBool(changed("noPlaylist"), f.NoPlaylist, file.NoPlaylist)
	f.RateLimit = pickString(changed("rateLimit"), f.RateLimit, file.RateLimit)
	f.Retries = pickInt(changed("retries"), f.Retries, file.Retries)
	f.Subs = pickBool(changed("subs"), f.Subs, file.Subs)
	f.Lang = pickString(changed("lang"), f.Lang, file.Lang)
	f.NoEmbedSubs = pickBool(changed("noEmbedSubs"), f.NoEmbedSubs, file.NoEmbedSubs)
	f.Cookies = pickString(changed("cookies"), f.Cookies, file.Cookies)
	f.Proxy = pickString(changed("proxy"), f.Proxy, file.Proxy)
	f.Concurrent = pickInt(changed("concurrent"), f.Concurrent, file.Concurrent)
	f.ExtractorArgs = pickString(changed("extractorArgs"), f.ExtractorArgs, file.ExtractorArgs)
	f.Verbose = pickBool(changed("verbose"), f.Verbose, file.Verbose)
	f.NoPrompt = pickBool(changed("noPrompt"), f.NoPrompt, file.NoPrompt)

	// One side of an exclusive pair given on the command line overrides the
	// other side coming from the file.
	if !changed("noMtime") {
		f.KeepMtime = pickBool(changed("keepMtime"), f.KeepMtime, file.KeepMtime)
	}
	if !changed("noGeoBypass") {
		f.Geo = pickString(changed("geo"), f.Geo, file.Geo)
	}
	if !changed("geo") {
		f.NoGeoBypass = pickBool(changed("noGeoBypass"), f.NoGeoBypass, file.NoGeoBypass)
	}
	return f
}

func pickString(changed bool, flagValue, fileValue string) string {
	if changed || strings.TrimSpace(fileValue) == "" {
		return flagValue
	}
	return fileValue
}

func pickBool(changed bool, flagValue bool, fileValue *bool) bool {
	if changed || fileValue == nil {
		return flagValue
	}
	return *fileValue
}

func pickInt(changed bool, flagValue int, fileValue *int) int {
	if changed || fileValue == nil {
		return flagValue
	}
	return *fileValue
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
