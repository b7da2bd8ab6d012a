package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"

	"ytbatch/internal/config"
	"ytbatch/internal/logging"
	"ytbatch/internal/runstore"
	"ytbatch/internal/ytdlp"
)

// Free space below this fails the disk check.
const minFreeBytes = 1 << 30

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorOptions struct {
	outDir      string
	ytdlpPath   string
	checkLatest bool
	jsonOut     bool
}

func newDoctorCmd(e env) *cobra.Command {
	opts := &doctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check yt-dlp, ffmpeg and the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := runDoctorChecks(cmd.Context(), e, *opts)
			if opts.jsonOut {
				if err := printJSON(e.stdout, res); err != nil {
					return err
				}
			} else {
				for _, c := range res.Checks {
					status := "ok"
					if !c.OK {
						status = "fail"
					}
					fmt.Fprintf(e.stdout, "%s: %s (%s)\n", c.Name, status, c.Message)
				}
			}
			if !res.OK {
				if err := ytdlp.CheckDependencies(opts.ytdlpPath); err != nil {
					return fmt.Errorf("doctor checks failed: %w", err)
				}
				return errors.New("doctor checks failed")
			}
			if !opts.jsonOut {
				fmt.Fprintln(e.stdout, "doctor: all checks passed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.outDir, "outDir", "o", config.DefaultOutputDir, "output directory to check")
	cmd.Flags().StringVar(&opts.ytdlpPath, "ytdlp", config.DefaultYTDLPBinary, "yt-dlp binary")
	cmd.Flags().BoolVar(&opts.checkLatest, "checkLatest", false, "compare the installed yt-dlp with the latest GitHub release")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON output")
	return cmd
}

func runDoctorChecks(ctx context.Context, e env, opts doctorOptions) DoctorResult {
	checks := make([]DoctorCheck, 0, 5)

	dep := ytdlp.DependencyStatus(opts.ytdlpPath)
	checks = append(checks, DoctorCheck{
		Name:    "dependency:yt-dlp",
		OK:      dep.YTDLPFound,
		Message: dependencyMessage(dep.YTDLPFound, dep.YTDLPPath, "yt-dlp"),
	})
	checks = append(checks, DoctorCheck{
		Name:    "dependency:ffmpeg",
		OK:      dep.FFmpegFound,
		Message: dependencyMessage(dep.FFmpegFound, dep.FFmpegPath, "ffmpeg"),
	})

	outDir := strings.TrimSpace(opts.outDir)
	dirOK, dirMessage := runstore.EnsureWritableDir(outDir)
	checks = append(checks, DoctorCheck{
		Name:    "directory:output",
		OK:      dirOK,
		Message: dirMessage,
	})
	if dirOK {
		checks = append(checks, diskSpaceCheck(outDir))
	}

	if opts.checkLatest && dep.YTDLPFound {
		checks = append(checks, latestReleaseCheck(ctx, e, opts.ytdlpPath))
	}

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func diskSpaceCheck(dir string) DoctorCheck {
	check := DoctorCheck{Name: "disk:free"}
	usage, err := disk.Usage(dir)
	if err != nil {
		check.Message = err.Error()
		return check
	}
	check.OK = usage.Free >= minFreeBytes
	check.Message = fmt.Sprintf("%s free of %s", formatBytesIEC(usage.Free), formatBytesIEC(usage.Total))
	if !check.OK {
		check.Message += fmt.Sprintf(" (need at least %s)", formatBytesIEC(minFreeBytes))
	}
	return check
}

func latestReleaseCheck(ctx context.Context, e env, binary string) DoctorCheck {
	check := DoctorCheck{Name: "version:yt-dlp"}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	installed, err := ytdlp.NewRunner(binary).InstalledVersion(ctx)
	if err != nil {
		check.Message = err.Error()
		return check
	}
	checker := ytdlp.NewReleaseChecker(logging.New(e.stderr, false))
	if e.releaseEndpoint != "" {
		checker.Endpoint = e.releaseEndpoint
	}
	latest, err := checker.Latest(ctx)
	if err != nil {
		check.Message = err.Error()
		return check
	}
	installed = ytdlp.NormalizeVersionTag(installed)
	if installed == latest {
		check.OK = true
		check.Message = "up to date (" + installed + ")"
		return check
	}
	check.Message = fmt.Sprintf("installed %s, latest %s; run yt-dlp -U or pass --update", installed, latest)
	return check
}

func dependencyMessage(ok bool, path, name string) string {
	if ok {
		return name + " found at " + path
	}
	return name + " not found on PATH"
}
