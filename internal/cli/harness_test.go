package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytbatch/internal/config"
	"ytbatch/internal/options"
)

type testEnv struct {
	env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	calls  string
	tmp    string
}

// newTestEnv installs a fake yt-dlp on PATH that appends each locator to a
// calls file and fails for locators containing "bad".
func newTestEnv(t *testing.T, promptInput string) *testEnv {
	t.Helper()
	tmp := t.TempDir()
	fakeBin := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(fakeBin, 0o755); err != nil {
		t.Fatal(err)
	}
	calls := filepath.Join(tmp, "calls.txt")
	ytScript := `#!/usr/bin/env bash
set -euo pipefail
if [ "${1:-}" = "--version" ]; then
  echo "2025.06.30"
  exit 0
fi
url="${@: -1}"
printf '%s\n' "$url" >> "$YTBATCH_CALLS"
printf '%s\n' "$*" >> "$YTBATCH_CALLS.args"
case "$url" in
  *bad*) echo "ERROR: [generic] unavailable" >&2; exit 1 ;;
esac
echo "[download] Destination: $url"
`
	if err := os.WriteFile(filepath.Join(fakeBin, "yt-dlp"), []byte(ytScript), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(fakeBin, "ffmpeg"), []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", fakeBin+":"+os.Getenv("PATH"))
	t.Setenv("YTBATCH_CALLS", calls)
	t.Setenv(config.EnvConfigPath, "")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	te := &testEnv{stdout: stdout, stderr: stderr, calls: calls, tmp: tmp}
	te.env = env{
		stdout: stdout,
		stderr: stderr,
		newPrompter: func() options.Prompter {
			return options.LinePrompter{In: strings.NewReader(promptInput), Out: stderr}
		},
	}
	return te
}

func (te *testEnv) run(args ...string) error {
	cmd := newRootCmd(te.env)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (te *testEnv) invoked(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(te.calls)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Fields(string(data))
}

func (te *testEnv) invokedArgs(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(te.calls + ".args")
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
