// Package verify implements the two read-mostly command modes that inspect
// and repair the ledger outside of a normal run: --verify (report) and
// --cleanup (delete stray outputs and their records).
package verify

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/backmassage/transcode-driver/internal/ledger"
)

// Logger is the minimal logging interface verify needs.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Report is the outcome of --verify: every record left in a non-terminal or
// failed state, which a completed run should never leave behind.
type Report struct {
	Processing []ledger.Record
	Failed     []ledger.Record
}

// Interrupted reports the total records that a subsequent --cleanup would
// act on.
func (r Report) Interrupted() int {
	return len(r.Processing) + len(r.Failed)
}

// Verify queries the ledger for processing and failed records and logs a
// one-line summary per record. It never writes to the ledger or filesystem.
func Verify(led *ledger.Ledger, log Logger) (Report, error) {
	processing, err := led.QueryByState(ledger.StateProcessing)
	if err != nil {
		return Report{}, fmt.Errorf("querying processing records: %w", err)
	}
	failed, err := led.QueryByState(ledger.StateFailed)
	if err != nil {
		return Report{}, fmt.Errorf("querying failed records: %w", err)
	}

	if len(processing) == 0 && len(failed) == 0 {
		log.Success("ledger is clean: no processing or failed records")
		return Report{}, nil
	}

	for _, rec := range processing {
		log.Warn("processing (interrupted): %s -> %s (started %s)",
			rec.SourcePath, rec.TargetPath, rec.StartedAt.Format("2006-01-02 15:04:05"))
	}
	for _, rec := range failed {
		log.Error("failed: %s -> %s: %s", rec.SourcePath, rec.TargetPath, rec.Error)
	}
	log.Info("%d processing, %d failed", len(processing), len(failed))

	return Report{Processing: processing, Failed: failed}, nil
}

// CleanupResult summarizes what Cleanup did (or, in dry-run mode, would do).
type CleanupResult struct {
	RecordsRemoved  int
	TargetsDeleted  int
	TargetsNotFound int
}

// Cleanup deletes the target file and drops the ledger record for every
// processing or failed record. With dryRun set, it only reports what it
// would do; nothing is deleted. Per-target deletion errors are joined and
// logged once rather than once per file, matching how the pool handles
// encoder.KillAll(cleanupOutputs)'s joined deletion errors.
func Cleanup(led *ledger.Ledger, log Logger, dryRun bool) (CleanupResult, error) {
	report, err := Verify(led, log)
	if err != nil {
		return CleanupResult{}, err
	}

	records := append(append([]ledger.Record{}, report.Processing...), report.Failed...)
	if len(records) == 0 {
		return CleanupResult{}, nil
	}

	var result CleanupResult
	var delErrs error
	for _, rec := range records {
		if dryRun {
			log.Info("would delete: %s (record + target %s)", rec.SourcePath, rec.TargetPath)
			continue
		}

		if err := os.Remove(rec.TargetPath); err != nil {
			if os.IsNotExist(err) {
				result.TargetsNotFound++
			} else {
				delErrs = multierr.Append(delErrs, err)
			}
		} else {
			result.TargetsDeleted++
		}

		if err := led.Delete(rec.SourcePath); err != nil {
			delErrs = multierr.Append(delErrs, err)
			continue
		}
		result.RecordsRemoved++
	}

	if dryRun {
		result.RecordsRemoved = len(records)
		return result, nil
	}

	if delErrs != nil {
		log.Error("cleanup encountered errors: %v", delErrs)
	}
	log.Success("cleanup removed %d ledger records, deleted %d target files (%d already gone)",
		result.RecordsRemoved, result.TargetsDeleted, result.TargetsNotFound)

	return result, delErrs
}
