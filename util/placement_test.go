package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFolderName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Trip 2021", "Trip 2021"},
		{"My Photos*Album", "My Photos-Album"},
		{`a/b\c:d?e"f<g>h|i`, "a-b-c-d-e-f-g-h-i"},
		{"multiple   \t spaces", "multiple spaces"},
		{"  padded  ", "padded"},
		{"trailing dots...", "trailing dots"},
		{"dots and spaces . . ", "dots and spaces"},
		{"Trip\u00a0\u00a02021", "Trip 2021"},
		{"a\u00a0.", "a"},
		{"\u2003Album\u3000", "Album"},
		{"...", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFolderName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFolderName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeFolderName(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestAlbumFolder(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		albums []string
		want   string
	}{
		{"first album title wins", "Photos from 2021", []string{"Trip 2021", "Other"}, "Trip 2021"},
		{"parent folder fallback", "My Photos*Album", nil, "My Photos-Album"},
		{"empty album list", "Holiday", []string{}, "Holiday"},
		{"blank album title", "Holiday", []string{"  "}, FallbackFolder},
		{"nothing usable", "..", nil, FallbackFolder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlbumFolder(tt.parent, tt.albums); got != tt.want {
				t.Errorf("AlbumFolder(%q, %v) = %q, want %q", tt.parent, tt.albums, got, tt.want)
			}
		})
	}
}

func TestUniquePath_Collisions(t *testing.T) {
	dir := t.TempDir()
	p := NewPlanner(dir)

	want := []string{"IMG_0001.jpg", "IMG_0001 (1).jpg", "IMG_0001 (2).jpg", "IMG_0001 (3).jpg"}
	for i, name := range want {
		got, err := p.UniquePath(dir, "IMG_0001.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(got) != name {
			t.Errorf("placement %d = %q, want %q", i+1, filepath.Base(got), name)
		}
		writeFile(t, got, "x")
	}
}

func TestUniquePath_ExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip.mov"), "x")
	writeFile(t, filepath.Join(dir, "clip (1).mov"), "x")

	got, err := NewPlanner(dir).UniquePath(dir, "clip.mov")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "clip (2).mov" {
		t.Errorf("UniquePath = %q, want clip (2).mov", filepath.Base(got))
	}
}

func TestUniquePath_ClaimsWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewPlanner(dir)

	first, _ := p.UniquePath(dir, "IMG.jpg")
	second, _ := p.UniquePath(dir, "IMG.jpg")
	if filepath.Base(first) != "IMG.jpg" || filepath.Base(second) != "IMG (1).jpg" {
		t.Errorf("got %q then %q", first, second)
	}

	p.Release(first)
	again, _ := p.UniquePath(dir, "IMG.jpg")
	if again != first {
		t.Errorf("released path not reused: %q", again)
	}
}

func TestUniquePath_Dotfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".hidden"), "x")

	got, err := NewPlanner(dir).UniquePath(dir, ".hidden")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != ".hidden (1)" {
		t.Errorf("UniquePath = %q, want .hidden (1)", filepath.Base(got))
	}
}

func TestPlanner_Plan(t *testing.T) {
	root := t.TempDir()
	p := NewPlanner(root)

	place, err := p.Plan("/takeout/Photos from 2021/IMG_0001.jpg", []string{"Trip 2021"})
	if err != nil {
		t.Fatal(err)
	}
	if place.Folder != "Trip 2021" {
		t.Errorf("Folder = %q", place.Folder)
	}
	if rel := place.RelPath(root); rel != filepath.Join("Trip 2021", "IMG_0001.jpg") {
		t.Errorf("RelPath = %q", rel)
	}
}

func TestPlanner_FolderNameTakenByFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Trip 2021"), "not a folder")
	writeFile(t, filepath.Join(root, "Trip 2021 (1)"), "not a folder either")

	place, err := NewPlanner(root).Plan("/takeout/Trip/IMG_0001.jpg", []string{"Trip 2021"})
	if err != nil {
		t.Fatal(err)
	}
	if place.Folder != "Trip 2021 (2)" {
		t.Errorf("Folder = %q, want Trip 2021 (2)", place.Folder)
	}

	// An existing directory is reused as is.
	dir := filepath.Join(root, "Beach")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	place, err = NewPlanner(root).Plan("/takeout/Beach/IMG_0002.jpg", nil)
	if err != nil {
		t.Fatal(err)
	}
	if place.Folder != "Beach" {
		t.Errorf("Folder = %q, want Beach", place.Folder)
	}
}
