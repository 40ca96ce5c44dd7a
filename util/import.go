// photomigrate/util/import.go
package util

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	bar "github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// MediaAsset is a recognized photo or video found in the source tree.
type MediaAsset struct {
	Path string
	Kind MediaKind
}

// WalkMedia lists every recognized media file under root, in lexical order.
// Directories under skip are not entered. Unreadable directories are logged
// and left out rather than aborting the walk. Links to files are followed.
func WalkMedia(root, skip string, cfg Config, log *zap.Logger) ([]MediaAsset, error) {
	var assets []MediaAsset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skip != "" && path == skip {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// Symlinked files count, symlinked directories are not entered.
			info, err := os.Stat(path)
			if err != nil {
				log.Warn("skipping broken link", zap.String("path", path), zap.Error(err))
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		if kind, ok := cfg.Classify(path); ok {
			assets = append(assets, MediaAsset{Path: path, Kind: kind})
		}
		return nil
	})
	return assets, err
}

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// CopyFile copies src to dst along with its permission bits and
// modification time. dst must not exist; it is never overwritten. On any
// failure the partial dst is removed.
func CopyFile(src, dst string) (int64, error) {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !sourceFileStat.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(destination, source)
	if err == nil {
		err = destination.Sync()
	}
	if cerr := destination.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(dst, sourceFileStat.Mode().Perm())
	}
	if err == nil {
		err = os.Chtimes(dst, sourceFileStat.ModTime(), sourceFileStat.ModTime())
	}
	if err != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return n, nil
}

// Deps are the collaborators of a Migrator. Writer is required; the rest
// may be left zero.
type Deps struct {
	Writer  MetadataWriter
	Journal *Journal
	Finder  ZoneFinder
	Out     io.Writer
	Log     *zap.Logger
}

// Migrator runs the per-asset pipeline over a source tree. It processes one
// asset at a time; the planner's collision checks depend on that.
type Migrator struct {
	cfg       Config
	writer    MetadataWriter
	journal   *Journal
	extractor *Extractor
	planner   *Planner
	reporter  *Reporter
	log       *zap.Logger
	runID     string
}

// NewMigrator wires a migrator. cfg is expected to be validated already.
func NewMigrator(cfg Config, deps Deps) (*Migrator, error) {
	if deps.Writer == nil {
		return nil, errors.New("no metadata writer configured")
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	var finder ZoneFinder
	if cfg.ZoneFromGPS {
		finder = deps.Finder
	}

	return &Migrator{
		cfg:       cfg,
		writer:    deps.Writer,
		journal:   deps.Journal,
		extractor: NewExtractor(cfg.TimeZone, cfg.UTC, finder, deps.Log),
		planner:   NewPlanner(cfg.Destination),
		reporter:  NewReporter(deps.Out, cfg.Destination),
		log:       deps.Log,
		runID:     uuid.NewString(),
	}, nil
}

// RunID identifies this run in the journal.
func (m *Migrator) RunID() string {
	return m.runID
}

// Run migrates every asset under the source root. Per-asset problems are
// reported and never stop the run; the returned error is only for failures
// that prevent the run from starting.
func (m *Migrator) Run() (Summary, error) {
	var summary Summary

	if !m.cfg.DryRun {
		if err := os.MkdirAll(m.cfg.Destination, 0755); err != nil {
			return summary, fmt.Errorf("creating destination: %w", err)
		}
	}

	skip := ""
	if isWithin(m.cfg.Source, m.cfg.Destination) {
		skip = m.cfg.Destination
	}
	assets, err := WalkMedia(m.cfg.Source, skip, m.cfg, m.log)
	if err != nil {
		return summary, fmt.Errorf("scanning %s: %w", m.cfg.Source, err)
	}
	m.log.Info("scanned source",
		zap.String("source", m.cfg.Source),
		zap.Int("media", len(assets)),
		zap.String("run", m.runID))

	var progress *bar.ProgressBar
	if m.cfg.Progress {
		progress = bar.NewOptions(len(assets),
			bar.OptionSetWriter(os.Stderr),
			bar.OptionSetDescription("Migrating"),
			bar.OptionShowCount(),
			bar.OptionClearOnFinish(),
		)
	}

	for _, asset := range assets {
		o := m.Process(asset)
		summary.Add(o)
		m.record(o)
		m.reporter.Report(o)
		if progress != nil {
			progress.Add(1)
		}
	}
	if progress != nil {
		progress.Finish()
	}

	m.reporter.Done(summary)
	return summary, nil
}

// Process takes one asset through the pipeline and returns its outcome.
func (m *Migrator) Process(asset MediaAsset) Outcome {
	src := asset.Path

	rec, found, err := ResolveSidecar(src)
	if err != nil {
		return failed(src, err)
	}
	if !found {
		return skipped(src, "no sidecar")
	}

	info, ok := m.extractor.Extract(rec)
	if !ok {
		return skipped(src, "no capture time")
	}

	var hash string
	if m.journal != nil {
		if hash, err = HashFile(src); err != nil {
			return failed(src, fmt.Errorf("hashing: %w", err))
		}
		if m.cfg.Resume {
			rel, done, err := m.journal.MigratedDest(m.runID, src, hash)
			if err != nil {
				return failed(src, fmt.Errorf("reading journal: %w", err))
			}
			if done {
				return skipped(src, "already migrated to "+rel)
			}
		}
	}

	place, err := m.planner.Plan(src, rec.AlbumTitles)
	if err != nil {
		return failed(src, err)
	}

	if m.cfg.DryRun {
		o := migrated(src, place.Path, asset.Kind, info, 0)
		o.DryRun = true
		return o
	}

	o := m.place(asset, info, place)
	o.SourceHash = hash
	return o
}

// place performs the filesystem side of a migration. If any step after the
// copy fails the copy is removed again, so the destination only ever holds
// fully processed assets.
func (m *Migrator) place(asset MediaAsset, info CaptureInfo, place Placement) Outcome {
	src, dst := asset.Path, place.Path

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		m.planner.Release(dst)
		return failed(src, fmt.Errorf("creating folder %s: %w", place.Folder, err))
	}

	n, err := CopyFile(src, dst)
	if err != nil {
		m.planner.Release(dst)
		return failed(src, err)
	}

	undo := func(err error) Outcome {
		if rmErr := os.Remove(dst); rmErr != nil {
			m.log.Warn("removing incomplete copy", zap.String("path", dst), zap.Error(rmErr))
		} else {
			m.planner.Release(dst)
		}
		return failed(src, err)
	}

	if err := m.writer.WriteTags(dst, BuildTags(info, asset.Kind)); err != nil {
		return undo(err)
	}

	// The filesystem gets the absolute instant, whatever zone the embedded
	// dates were rendered in.
	if err := os.Chtimes(dst, info.Instant, info.Instant); err != nil {
		return undo(fmt.Errorf("setting file times: %w", err))
	}

	m.log.Debug("migrated",
		zap.String("source", src),
		zap.String("dest", dst),
		zap.String("kind", asset.Kind.String()),
		zap.String("date", info.ExifDate()),
		zap.String("zone", info.Zone))
	return migrated(src, dst, asset.Kind, info, n)
}

func (m *Migrator) record(o Outcome) {
	if o.Status == Skipped {
		m.log.Debug("skipped", zap.String("source", o.Source), zap.String("reason", o.Reason))
	}
	if m.journal == nil || m.cfg.DryRun || o.Status == Skipped {
		return
	}

	entry := JournalEntry{
		RunID:      m.runID,
		Source:     o.Source,
		SourceHash: o.SourceHash,
		Status:     o.Status,
		Captured:   o.Capture.Instant,
		Reason:     o.Reason,
	}
	if o.Dest != "" {
		entry.Dest = Placement{Path: o.Dest}.RelPath(m.cfg.Destination)
	}
	if err := m.journal.Record(entry); err != nil {
		m.log.Warn("recording outcome", zap.String("source", o.Source), zap.Error(err))
	}
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
