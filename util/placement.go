package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FallbackFolder is used when no usable folder name can be derived.
const FallbackFolder = "Unknown Album"

var illegalNameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFolderName makes name safe to use as a folder on any common
// filesystem. The result is empty only if nothing usable is left.
func SanitizeFolderName(name string) string {
	name = illegalNameChars.ReplaceAllString(name, "-")
	// Fields splits on any Unicode space, not just ASCII.
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimRight(name, ". ")
}

// AlbumFolder picks the destination folder label: the first album title if
// there is one, otherwise the name of the folder the asset came from.
func AlbumFolder(parentName string, albumTitles []string) string {
	name := parentName
	if len(albumTitles) > 0 {
		name = albumTitles[0]
	}
	if clean := SanitizeFolderName(name); clean != "" {
		return clean
	}
	return FallbackFolder
}

// Placement is where one asset ends up.
type Placement struct {
	Folder string // folder label under the destination root
	Path   string // absolute destination file path
}

// RelPath is the destination path relative to root.
func (p Placement) RelPath(root string) string {
	rel, err := filepath.Rel(root, p.Path)
	if err != nil {
		return p.Path
	}
	return rel
}

// Planner chooses collision-free destination paths. It also remembers the
// paths it has handed out, so a dry run that never creates files still sees
// its own earlier choices. It is not safe for concurrent use.
type Planner struct {
	root    string
	claimed map[string]struct{}
}

func NewPlanner(root string) *Planner {
	return &Planner{root: root, claimed: make(map[string]struct{})}
}

// Plan decides the folder and file path for the asset at src.
func (p *Planner) Plan(src string, albumTitles []string) (Placement, error) {
	folder, err := p.folder(AlbumFolder(filepath.Base(filepath.Dir(src)), albumTitles))
	if err != nil {
		return Placement{}, err
	}
	path, err := p.UniquePath(filepath.Join(p.root, folder), filepath.Base(src))
	if err != nil {
		return Placement{}, err
	}
	return Placement{Folder: folder, Path: path}, nil
}

// UniquePath returns dir/name if nothing is there, otherwise the first free
// "stem (N)ext" for N = 1, 2, ...
func (p *Planner) UniquePath(dir, name string) (string, error) {
	stem, ext := splitName(name)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		taken, err := p.taken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			p.claimed[candidate] = struct{}{}
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// folder returns label, or "label (N)" when a file that is not a directory
// (the journal, say) already sits at that name in the root.
func (p *Planner) folder(label string) (string, error) {
	candidate := label
	for i := 1; ; i++ {
		path := filepath.Join(p.root, candidate)
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			return candidate, nil
		case err != nil:
			return "", fmt.Errorf("checking %s: %w", path, err)
		case info.IsDir():
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", label, i)
	}
}

// Release forgets a claimed path, used when the file never got created.
func (p *Planner) Release(path string) {
	delete(p.claimed, path)
}

func (p *Planner) taken(path string) (bool, error) {
	if _, ok := p.claimed[path]; ok {
		return true, nil
	}
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}

// splitName splits off the last extension. Dotfiles like ".hidden" are all
// stem.
func splitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
