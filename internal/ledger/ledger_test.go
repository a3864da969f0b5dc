package ledger

import (
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestStartThenGet(t *testing.T) {
	l := openTestLedger(t)

	if err := l.Start("/in/a.mp4", "/in/a.mp3", 1024); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	rec, err := l.Get("/in/a.mp4")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec == nil {
		t.Fatal("Get() returned nil record after Start()")
	}
	if rec.State != StateProcessing {
		t.Errorf("State = %q, want %q", rec.State, StateProcessing)
	}
	if rec.TargetPath != "/in/a.mp3" {
		t.Errorf("TargetPath = %q, want /in/a.mp3", rec.TargetPath)
	}
	if rec.SourceBytes != 1024 {
		t.Errorf("SourceBytes = %d, want 1024", rec.SourceBytes)
	}
}

func TestGet_MissingReturnsNil(t *testing.T) {
	l := openTestLedger(t)
	rec, err := l.Get("/in/missing.mp4")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec != nil {
		t.Errorf("Get() = %+v, want nil", rec)
	}
}

func TestStartWipesPriorRecord(t *testing.T) {
	l := openTestLedger(t)

	if err := l.Start("/in/a.mp4", "/in/a.mp3", 100); err != nil {
		t.Fatal(err)
	}
	if err := l.Complete("/in/a.mp4", 50); err != nil {
		t.Fatal(err)
	}
	if err := l.Start("/in/a.mp4", "/in/a.mp3", 200); err != nil {
		t.Fatal(err)
	}

	rec, err := l.Get("/in/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateProcessing {
		t.Errorf("State = %q, want %q after restart", rec.State, StateProcessing)
	}
	if rec.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil after restart", rec.CompletedAt)
	}
	if rec.SourceBytes != 200 {
		t.Errorf("SourceBytes = %d, want 200", rec.SourceBytes)
	}
}

func TestCompleteAndFail(t *testing.T) {
	l := openTestLedger(t)

	if err := l.Start("/in/ok.mp4", "/in/ok.mp3", 10); err != nil {
		t.Fatal(err)
	}
	if err := l.Complete("/in/ok.mp4", 5); err != nil {
		t.Fatal(err)
	}
	rec, _ := l.Get("/in/ok.mp4")
	if rec.State != StateComplete || rec.OutputBytes != 5 || rec.CompletedAt == nil {
		t.Errorf("unexpected record after Complete: %+v", rec)
	}

	if err := l.Start("/in/bad.mp4", "/in/bad.mp3", 10); err != nil {
		t.Fatal(err)
	}
	if err := l.Fail("/in/bad.mp4", "invalid_input"); err != nil {
		t.Fatal(err)
	}
	rec, _ = l.Get("/in/bad.mp4")
	if rec.State != StateFailed || rec.Error != "invalid_input" {
		t.Errorf("unexpected record after Fail: %+v", rec)
	}
}

func TestQueryByState(t *testing.T) {
	l := openTestLedger(t)

	if err := l.Start("/in/p1.mp4", "/in/p1.mp3", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Start("/in/p2.mp4", "/in/p2.mp3", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Start("/in/f.mp4", "/in/f.mp3", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Fail("/in/f.mp4", "boom"); err != nil {
		t.Fatal(err)
	}

	processing, err := l.QueryByState(StateProcessing)
	if err != nil {
		t.Fatal(err)
	}
	if len(processing) != 2 {
		t.Errorf("len(processing) = %d, want 2", len(processing))
	}

	failed, err := l.QueryByState(StateFailed)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 {
		t.Errorf("len(failed) = %d, want 1", len(failed))
	}
}

func TestDelete(t *testing.T) {
	l := openTestLedger(t)

	if err := l.Start("/in/a.mp4", "/in/a.mp3", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Delete("/in/a.mp4"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	rec, err := l.Get("/in/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Errorf("Get() after Delete() = %+v, want nil", rec)
	}
}
