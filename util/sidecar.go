package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const sidecarSuffix = ".json"

// SidecarRecord is the subset of a takeout JSON sidecar the migration uses.
type SidecarRecord struct {
	Title          string    `json:"title"`
	PhotoTakenTime takenTime `json:"photoTakenTime"`
	GeoData        *geoData  `json:"geoData"`
	AlbumTitles    []string  `json:"albumTitles"`
}

type takenTime struct {
	Timestamp epochSeconds `json:"timestamp"`
	Formatted string       `json:"formatted"`
}

type geoData struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// epochSeconds accepts the timestamp as either a JSON string or number.
// A missing, null or empty field, or the number 0, leaves it unset. A
// non-empty string must be an integer; "0" is a real (if unlikely) time.
type epochSeconds struct {
	secs int64
	set  bool
}

func (e epochSeconds) Unix() (int64, bool) {
	return e.secs, e.set
}

func (e *epochSeconds) UnmarshalJSON(data []byte) error {
	*e = epochSeconds{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if bytes.HasPrefix(data, []byte(`"`)) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			return nil
		}
		secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q", raw)
		}
		*e = epochSeconds{secs: secs, set: true}
		return nil
	}

	secs, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			return fmt.Errorf("invalid timestamp %s", data)
		}
		secs = int64(f)
		if f == 0 {
			return nil
		}
	} else if secs == 0 {
		return nil
	}
	*e = epochSeconds{secs: secs, set: true}
	return nil
}

// SidecarPath returns the sidecar location for a media file: the full
// filename with the suffix appended, e.g. IMG_0001.jpg.json.
func SidecarPath(mediaPath string) string {
	return mediaPath + sidecarSuffix
}

// ResolveSidecar loads the sidecar for mediaPath. A missing sidecar is not an
// error; found is false. A sidecar that exists but cannot be read or parsed
// is returned as an error.
func ResolveSidecar(mediaPath string) (rec SidecarRecord, found bool, err error) {
	path := SidecarPath(mediaPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return SidecarRecord{}, false, nil
	}
	if err != nil {
		return SidecarRecord{}, true, fmt.Errorf("reading sidecar %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return SidecarRecord{}, true, fmt.Errorf("parsing sidecar %s: %w", path, err)
	}
	return rec, true, nil
}
