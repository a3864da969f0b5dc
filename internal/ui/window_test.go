package ui

import (
	"testing"
	"time"

	"github.com/backmassage/transcode-driver/internal/observer"
)

func TestWindow_EvictsOldCompletedBeforeFailed(t *testing.T) {
	w := newWindow()

	old := &windowEntry{
		view:      observer.JobView{ID: "old", State: "completed"},
		touchedAt: time.Now().Add(-10 * time.Second),
	}
	w.entries[old.view.ID] = old
	w.touch(observer.JobView{ID: "failing", State: "failed", ErrorText: "boom"})

	w.evictOne()

	if _, ok := w.entries["old"]; ok {
		t.Error("old completed entry should have been evicted first")
	}
	if _, ok := w.entries["failing"]; !ok {
		t.Error("failed entry should survive eviction over an old completed one")
	}
}

func TestWindow_CapsAtWindowSize(t *testing.T) {
	w := newWindow()
	for i := 0; i < windowSize+50; i++ {
		w.touch(observer.JobView{ID: string(rune('a' + i%26)) + string(rune(i)), State: "pending"})
	}
	if len(w.entries) > windowSize {
		t.Errorf("len(entries) = %d, want <= %d", len(w.entries), windowSize)
	}
}

func TestWindow_Failed(t *testing.T) {
	w := newWindow()
	w.touch(observer.JobView{ID: "a", State: "completed"})
	w.touch(observer.JobView{ID: "b", State: "failed", ErrorText: "no such file"})
	w.touch(observer.JobView{ID: "c", State: "failed", ErrorText: "timeout"})

	failed := w.failed()
	if len(failed) != 2 {
		t.Fatalf("len(failed) = %d, want 2", len(failed))
	}
}
