package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExifDateLayout is the date format exiftool expects for date tags.
const ExifDateLayout = "2006:01:02 15:04:05"

// CaptureInfo is the authoritative capture time and location of an asset.
type CaptureInfo struct {
	// Instant is the absolute capture time, in UTC.
	Instant time.Time
	// Local is the wall-clock time in Zone. Its location is always UTC and
	// carries no meaning; only the clock fields are used.
	Local   time.Time
	Zone    string

	HasLocation bool
	Latitude    float64
	Longitude   float64
}

// ExifDate renders the local wall-clock time for embedding.
func (c CaptureInfo) ExifDate() string {
	return c.Local.Format(ExifDateLayout)
}

// ZoneFinder maps coordinates to an IANA zone name. tzf's finders satisfy it.
type ZoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// Extractor turns sidecar records into CaptureInfo according to the
// configured timezone policy.
type Extractor struct {
	zone   string
	utc    bool
	finder ZoneFinder
	log    *zap.Logger

	mu        sync.Mutex
	locations map[string]*time.Location
}

// NewExtractor builds an extractor. finder may be nil, in which case the
// configured zone is always used.
func NewExtractor(zone string, utc bool, finder ZoneFinder, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		zone:      zone,
		utc:       utc,
		finder:    finder,
		log:       log,
		locations: make(map[string]*time.Location),
	}
}

// Extract derives the capture info. ok is false when the record carries no
// usable capture timestamp and the asset must be skipped.
func (e *Extractor) Extract(rec SidecarRecord) (CaptureInfo, bool) {
	secs, ok := rec.PhotoTakenTime.Timestamp.Unix()
	if !ok {
		return CaptureInfo{}, false
	}

	info := CaptureInfo{Instant: time.Unix(secs, 0).UTC()}
	info.Latitude, info.Longitude, info.HasLocation = location(rec)

	zone := e.zone
	if e.utc {
		zone = "UTC"
	} else if e.finder != nil && info.HasLocation {
		if name := e.finder.GetTimezoneName(info.Longitude, info.Latitude); name != "" {
			zone = name
		}
	}

	loc := e.lookup(zone)
	info.Zone = loc.String()
	info.Local = naive(info.Instant.In(loc))
	return info, true
}

// lookup resolves a zone name, falling back to UTC when it is unknown. A bad
// zone never fails an asset.
func (e *Extractor) lookup(zone string) *time.Location {
	e.mu.Lock()
	defer e.mu.Unlock()

	if loc, ok := e.locations[zone]; ok {
		return loc
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		e.log.Warn("unknown timezone, using UTC", zap.String("zone", zone), zap.Error(err))
		loc = time.UTC
	}
	e.locations[zone] = loc
	return loc
}

// location returns the sidecar coordinates. (0,0) is what the export writes
// when there is no fix, so it counts as absent.
func location(rec SidecarRecord) (lat, lng float64, ok bool) {
	if rec.GeoData == nil || rec.GeoData.Latitude == nil || rec.GeoData.Longitude == nil {
		return 0, 0, false
	}
	lat, lng = *rec.GeoData.Latitude, *rec.GeoData.Longitude
	if lat == 0 && lng == 0 {
		return 0, 0, false
	}
	return lat, lng, true
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
