package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytbatch/internal/model"
)

func TestReportSuccess(t *testing.T) {
	var buf bytes.Buffer
	err := Report(&buf, model.RunResult{Total: 3, Succeeded: 3})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(buf.String(), "All 3 download(s) completed successfully.") {
		t.Fatalf("unexpected success message:\n%s", buf.String())
	}
}

func TestReportFailureListsLocators(t *testing.T) {
	var buf bytes.Buffer
	res := model.RunResult{Total: 3, Succeeded: 1, Failed: []string{"https://x/2", "https://x/3"}}
	err := Report(&buf, res)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2 of 3 download(s) failed", "  - https://x/2", "  - https://x/3", "1 succeeded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	res := model.RunResult{
		RunID:     "0190a9b4-0000-7000-8000-000000000000",
		Total:     2,
		Succeeded: 1,
		Failed:    []string{"b"},
		Jobs: []model.JobRecord{
			{Index: 0, Locator: "a", State: model.StateSucceeded, Attempts: 1},
			{Index: 1, Locator: "b", State: model.StateFailed, Attempts: 3, LastError: "exit status 1"},
		},
	}
	if err := WriteReport(path, res); err != nil {
		t.Fatalf("write report failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report failed: %v", err)
	}
	var got model.RunResult
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid report JSON: %v", err)
	}
	if got.RunID != res.RunID || len(got.Jobs) != 2 || got.Jobs[1].Attempts != 3 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if err := WriteReport("", res); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
