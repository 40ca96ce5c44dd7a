package util

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Status is the result of processing one asset.
type Status int

const (
	Migrated Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Migrated:
		return "migrated"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is what happened to one asset.
type Outcome struct {
	Source string
	Dest   string // absolute destination path, empty unless migrated
	Kind   MediaKind
	Status Status
	Reason string // why it was skipped or failed
	Err    error
	Bytes  int64
	DryRun bool

	Capture    CaptureInfo
	SourceHash string
}

func migrated(src, dest string, kind MediaKind, info CaptureInfo, n int64) Outcome {
	return Outcome{Source: src, Dest: dest, Kind: kind, Status: Migrated, Capture: info, Bytes: n}
}

func skipped(src, reason string) Outcome {
	return Outcome{Source: src, Status: Skipped, Reason: reason}
}

func failed(src string, err error) Outcome {
	return Outcome{Source: src, Status: Failed, Reason: err.Error(), Err: err}
}

// Summary totals the outcomes of a run.
type Summary struct {
	Migrated int
	Skipped  int
	Failed   int
	Bytes    int64
}

func (s *Summary) Add(o Outcome) {
	switch o.Status {
	case Migrated:
		s.Migrated++
		s.Bytes += o.Bytes
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d migrated (%s), %d skipped, %d failed",
		s.Migrated, humanize.Bytes(uint64(s.Bytes)), s.Skipped, s.Failed)
}

// Reporter prints one console line per migrated or failed asset. Skips are
// silent.
type Reporter struct {
	out  io.Writer
	root string
}

func NewReporter(out io.Writer, root string) *Reporter {
	return &Reporter{out: out, root: root}
}

func (r *Reporter) Report(o Outcome) {
	name := filepath.Base(o.Source)
	switch o.Status {
	case Migrated:
		if o.DryRun {
			rel, err := filepath.Rel(r.root, o.Dest)
			if err != nil {
				rel = o.Dest
			}
			fmt.Fprintf(r.out, "✓ %s -> %s (dry run)\n", name, rel)
			return
		}
		fmt.Fprintf(r.out, "✓ %s\n", name)
	case Failed:
		fmt.Fprintf(r.out, "✗ %s (%s)\n", name, o.Reason)
	}
}

func (r *Reporter) Done(s Summary) {
	fmt.Fprintf(r.out, "\nDone. %s\n", s)
}
