package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/transcode-driver/internal/ledger"
)

type fakeLog struct{}

func (fakeLog) Info(string, ...interface{})    {}
func (fakeLog) Success(string, ...interface{}) {}
func (fakeLog) Warn(string, ...interface{})    {}
func (fakeLog) Error(string, ...interface{})   {}

func openTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "verify.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestVerify_CleanLedgerReportsNothing(t *testing.T) {
	led := openTestLedger(t)
	report, err := Verify(led, fakeLog{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Interrupted() != 0 {
		t.Errorf("Interrupted() = %d, want 0", report.Interrupted())
	}
}

func TestVerify_ReportsProcessingAndFailed(t *testing.T) {
	led := openTestLedger(t)
	if err := led.Start("/movies/a.mp4", "/movies/a.mp3", 1000); err != nil {
		t.Fatal(err)
	}
	if err := led.Start("/movies/b.mp4", "/movies/b.mp3", 2000); err != nil {
		t.Fatal(err)
	}
	if err := led.Fail("/movies/b.mp4", "exit status 1"); err != nil {
		t.Fatal(err)
	}

	report, err := Verify(led, fakeLog{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Processing) != 1 {
		t.Errorf("len(Processing) = %d, want 1", len(report.Processing))
	}
	if len(report.Failed) != 1 {
		t.Errorf("len(Failed) = %d, want 1", len(report.Failed))
	}
}

func TestCleanup_DryRunChangesNothing(t *testing.T) {
	led := openTestLedger(t)
	target := filepath.Join(t.TempDir(), "a.mp3")
	if err := os.WriteFile(target, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := led.Start("/movies/a.mp4", target, 1000); err != nil {
		t.Fatal(err)
	}

	result, err := Cleanup(led, fakeLog{}, true)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if result.RecordsRemoved != 1 {
		t.Errorf("RecordsRemoved = %d, want 1 (dry-run still reports the count)", result.RecordsRemoved)
	}

	if _, err := os.Stat(target); err != nil {
		t.Errorf("dry-run must not delete the target file: %v", err)
	}
	rec, err := led.Get("/movies/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Error("dry-run must not delete the ledger record")
	}
}

func TestCleanup_RemovesTargetsAndRecords(t *testing.T) {
	led := openTestLedger(t)
	target := filepath.Join(t.TempDir(), "a.mp3")
	if err := os.WriteFile(target, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := led.Start("/movies/a.mp4", target, 1000); err != nil {
		t.Fatal(err)
	}

	result, err := Cleanup(led, fakeLog{}, false)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if result.RecordsRemoved != 1 || result.TargetsDeleted != 1 {
		t.Errorf("result = %+v, want 1 record removed, 1 target deleted", result)
	}

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("target file should have been deleted")
	}
	rec, err := led.Get("/movies/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Error("ledger record should have been deleted")
	}
}

func TestCleanup_MissingTargetFileIsNotAnError(t *testing.T) {
	led := openTestLedger(t)
	if err := led.Start("/movies/a.mp4", "/movies/already-gone.mp3", 1000); err != nil {
		t.Fatal(err)
	}

	result, err := Cleanup(led, fakeLog{}, false)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if result.TargetsNotFound != 1 {
		t.Errorf("TargetsNotFound = %d, want 1", result.TargetsNotFound)
	}
	if result.RecordsRemoved != 1 {
		t.Errorf("RecordsRemoved = %d, want 1 (record drops even when target is already gone)", result.RecordsRemoved)
	}
}
