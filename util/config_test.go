package util

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfig_Classify(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		path   string
		want   MediaKind
		wantOK bool
	}{
		{"/a/IMG_0001.jpg", Photo, true},
		{"/a/IMG_0001.JPG", Photo, true},
		{"/a/IMG_0001.HEIC", Photo, true},
		{"/a/VID_0001.mp4", Video, true},
		{"/a/VID_0001.MoV", Video, true},
		{"/a/IMG_0001.jpg.json", Photo, false},
		{"/a/notes.txt", Photo, false},
		{"/a/README", Photo, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := cfg.Classify(tt.path)
			if ok != tt.wantOK || (ok && kind != tt.want) {
				t.Errorf("Classify(%q) = %v, %v; want %v, %v", tt.path, kind, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	src := t.TempDir()
	cfg := DefaultConfig()
	cfg.Source = src
	cfg.Destination = filepath.Join(t.TempDir(), "out")
	cfg.PhotoExts = []string{"JPG", ".png", " .jpg "}
	cfg.VideoExts = []string{"mp4"}
	cfg.TimeZone = " "

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !reflect.DeepEqual(cfg.PhotoExts, []string{".jpg", ".png"}) {
		t.Errorf("PhotoExts = %v", cfg.PhotoExts)
	}
	if !reflect.DeepEqual(cfg.VideoExts, []string{".mp4"}) {
		t.Errorf("VideoExts = %v", cfg.VideoExts)
	}
	if cfg.TimeZone != defaultTimeZone {
		t.Errorf("TimeZone = %q, want default", cfg.TimeZone)
	}
}

func TestConfig_ValidateErrors(t *testing.T) {
	src := t.TempDir()
	file := filepath.Join(src, "file.jpg")
	writeFile(t, file, "x")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no source", func(c *Config) { c.Source = "" }},
		{"no destination", func(c *Config) { c.Destination = "" }},
		{"missing source", func(c *Config) { c.Source = filepath.Join(src, "nope") }},
		{"source is a file", func(c *Config) { c.Source = file }},
		{"same folders", func(c *Config) { c.Destination = src }},
		{"no extensions", func(c *Config) { c.PhotoExts, c.VideoExts = nil, nil }},
		{"overlapping extensions", func(c *Config) { c.VideoExts = []string{".jpg"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Source = src
			cfg.Destination = filepath.Join(t.TempDir(), "out")
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestDefaultConfig_EnvTimeZone(t *testing.T) {
	t.Setenv("PHOTOMIGRATE_TZ", "America/Chicago")
	if got := DefaultConfig().TimeZone; got != "America/Chicago" {
		t.Errorf("TimeZone = %q", got)
	}
}
