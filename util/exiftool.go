package util

import (
	"fmt"
	"strconv"

	exif "github.com/barasher/go-exiftool"
)

// Tag is one Field=Value assignment handed to the metadata writer.
type Tag struct {
	Name  string
	Value string
}

func (t Tag) String() string {
	return t.Name + "=" + t.Value
}

// MetadataWriter writes tags into a file in place.
type MetadataWriter interface {
	WriteTags(path string, tags []Tag) error
	Close() error
}

var (
	videoDateTags = []string{"CreateDate", "MediaCreateDate", "TrackCreateDate", "ModifyDate"}
	photoDateTags = []string{"DateTimeOriginal", "CreateDate", "ModifyDate"}
)

// BuildTags lists the tags to embed for an asset. Videos and photos use
// different date fields; GPS tags are added only when a location is known.
func BuildTags(info CaptureInfo, kind MediaKind) []Tag {
	names := photoDateTags
	if kind == Video {
		names = videoDateTags
	}

	date := info.ExifDate()
	tags := make([]Tag, 0, len(names)+4)
	for _, name := range names {
		tags = append(tags, Tag{Name: name, Value: date})
	}

	if info.HasLocation {
		latRef, lngRef := "N", "E"
		if info.Latitude < 0 {
			latRef = "S"
		}
		if info.Longitude < 0 {
			lngRef = "W"
		}
		tags = append(tags,
			Tag{Name: "GPSLatitude", Value: formatCoord(info.Latitude)},
			Tag{Name: "GPSLongitude", Value: formatCoord(info.Longitude)},
			Tag{Name: "GPSLatitudeRef", Value: latRef},
			Tag{Name: "GPSLongitudeRef", Value: lngRef},
		)
	}
	return tags
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExiftoolWriter keeps one exiftool process open for the whole run.
// Writes overwrite the file in place without leaving a backup.
type ExiftoolWriter struct {
	et *exif.Exiftool
}

// NewExiftoolWriter starts exiftool. It fails if the binary cannot be found
// or started, which callers treat as fatal before touching any file.
func NewExiftoolWriter(binaryPath string) (*ExiftoolWriter, error) {
	var opts []func(*exif.Exiftool) error
	if binaryPath != "" {
		opts = append(opts, exif.SetExiftoolBinaryPath(binaryPath))
	}
	et, err := exif.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("exiftool not available: %w", err)
	}
	return &ExiftoolWriter{et: et}, nil
}

func (w *ExiftoolWriter) WriteTags(path string, tags []Tag) error {
	md := exif.EmptyFileMetadata()
	md.File = path
	for _, tag := range tags {
		md.SetString(tag.Name, tag.Value)
	}

	mds := []exif.FileMetadata{md}
	w.et.WriteMetadata(mds)
	if mds[0].Err != nil {
		return fmt.Errorf("writing metadata to %s: %w", path, mds[0].Err)
	}
	return nil
}

func (w *ExiftoolWriter) Close() error {
	return w.et.Close()
}
