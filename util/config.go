package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultTimeZone = "Europe/London"
	journalFileName = ".photomigrate.db"
)

var (
	defaultPhotoExts = []string{".jpg", ".jpeg", ".heic", ".png"}
	defaultVideoExts = []string{".mp4", ".mov", ".m4v"}
)

// MediaKind selects which set of date tags gets written to an asset.
type MediaKind int

const (
	Photo MediaKind = iota
	Video
)

func (k MediaKind) String() string {
	if k == Video {
		return "video"
	}
	return "photo"
}

// Config holds everything a migration run needs. Nothing in the pipeline
// reads package level state; it all comes through here.
type Config struct {
	Source      string
	Destination string

	TimeZone    string // IANA zone the embedded dates are rendered in
	UTC         bool   // render embedded dates as UTC wall-clock, ignoring TimeZone
	ZoneFromGPS bool   // prefer the zone at the asset's coordinates when it has some

	PhotoExts []string
	VideoExts []string

	DryRun   bool
	Resume   bool
	Journal  bool
	Progress bool
	Verbose  bool

	ExiftoolPath string
	JournalFile  string // defaults to a dotfile in the destination root
}

// DefaultConfig returns the configuration used when no flags are given.
// PHOTOMIGRATE_TZ overrides the default timezone.
func DefaultConfig() Config {
	return Config{
		TimeZone:  readEnv("PHOTOMIGRATE_TZ", defaultTimeZone),
		PhotoExts: append([]string(nil), defaultPhotoExts...),
		VideoExts: append([]string(nil), defaultVideoExts...),
		Journal:   true,
	}
}

// Validate normalizes the configuration in place and reports the first
// problem that would stop a run from starting.
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New("no source directory specified")
	}
	if c.Destination == "" {
		return errors.New("no destination directory specified")
	}

	var err error
	if c.Source, err = absPath(c.Source); err != nil {
		return fmt.Errorf("resolving source: %w", err)
	}
	if c.Destination, err = absPath(c.Destination); err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	if c.JournalFile != "" {
		if c.JournalFile, err = absPath(c.JournalFile); err != nil {
			return fmt.Errorf("resolving journal path: %w", err)
		}
	}

	info, err := os.Stat(c.Source)
	if os.IsNotExist(err) {
		return fmt.Errorf("source folder %s not found", c.Source)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", c.Source)
	}
	if c.Source == c.Destination {
		return errors.New("source and destination must differ")
	}

	c.PhotoExts = normalizeExts(c.PhotoExts)
	c.VideoExts = normalizeExts(c.VideoExts)
	if len(c.PhotoExts) == 0 && len(c.VideoExts) == 0 {
		return errors.New("no media extensions configured")
	}
	for _, ext := range c.PhotoExts {
		for _, v := range c.VideoExts {
			if ext == v {
				return fmt.Errorf("extension %s is listed as both photo and video", ext)
			}
		}
	}

	if strings.TrimSpace(c.TimeZone) == "" {
		c.TimeZone = defaultTimeZone
	}
	return nil
}

// Classify reports whether path has a recognized media extension, and which
// kind it is. Matching is case-insensitive.
func (c Config) Classify(path string) (MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return Photo, false
	}
	for _, v := range c.VideoExts {
		if ext == v {
			return Video, true
		}
	}
	for _, p := range c.PhotoExts {
		if ext == p {
			return Photo, true
		}
	}
	return Photo, false
}

// JournalPath is where the run journal lives for this destination.
func (c Config) JournalPath() string {
	if c.JournalFile != "" {
		return c.JournalFile
	}
	return DefaultJournalPath(c.Destination)
}

// DefaultJournalPath is the journal location used when none is configured.
func DefaultJournalPath(destination string) string {
	return filepath.Join(destination, journalFileName)
}

func normalizeExts(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// absPath expands a leading ~ and makes path absolute.
func absPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

func readEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
