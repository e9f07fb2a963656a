package collection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/errcode"
	"github.com/mousetail/mousetail/internal/paths"
)

// FileName is the collection database inside each profile directory.
const FileName = "collection.anki2"

// PreferredProfile is Anki's first-run profile name.
const PreferredProfile = "User 1"

var skipDirs = map[string]bool{
	"addons21": true,
	"logs":     true,
}

// Discover lists the profiles under base that hold a collection, sorted by
// profile name. A missing base yields an empty list.
func Discover(base string) ([]Location, error) {
	out := []Location{}
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("reading anki base %s: %w", base, err)
	}

	for _, e := range entries {
		if !e.IsDir() || skipDirs[e.Name()] || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(base, e.Name(), FileName)
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, Location{Profile: e.Name(), Path: p})
	}
	return out, nil
}

// Locator maps the optional collection_path argument to a file.
type Locator struct {
	Base        string
	DefaultPath string
	Profile     string
}

// NewLocator builds a locator from the [collection] config section.
func NewLocator(cfg config.CollectionConfig) Locator {
	base := paths.ExpandHome(strings.TrimSpace(cfg.AnkiBase))
	if base == "" {
		base = paths.AnkiBaseDir()
	}
	return Locator{
		Base:        base,
		DefaultPath: paths.ExpandHome(strings.TrimSpace(cfg.DefaultPath)),
		Profile:     strings.TrimSpace(cfg.Profile),
	}
}

// List discovers the collections under the base directory.
func (l Locator) List() ([]Location, error) {
	return Discover(l.Base)
}

// Resolve returns path itself when set, else the configured default path,
// else the configured profile's collection, else "User 1", else the first
// discovered profile.
func (l Locator) Resolve(path string) (string, error) {
	if p := paths.ExpandHome(strings.TrimSpace(path)); p != "" {
		return filepath.Clean(p), nil
	}
	if l.DefaultPath != "" {
		return filepath.Clean(l.DefaultPath), nil
	}

	locs, err := l.List()
	if err != nil {
		return "", errcode.Wrap(errcode.CollectionUnavailable, err)
	}
	if len(locs) == 0 {
		return "", Unavailable("no Anki collections found under %s", l.Base)
	}

	want := l.Profile
	if want == "" {
		want = PreferredProfile
	}
	for _, loc := range locs {
		if loc.Profile == want {
			return loc.Path, nil
		}
	}
	if l.Profile != "" {
		profiles := make([]string, len(locs))
		for i, loc := range locs {
			profiles[i] = loc.Profile
		}
		return "", errcode.New(errcode.NotFound, "profile %q not found (available: %s)", l.Profile, strings.Join(profiles, ", "))
	}
	return locs[0].Path, nil
}

// ProfileOf returns the profile name for a collection under the base
// directory, or "" for collections elsewhere.
func (l Locator) ProfileOf(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	if filepath.Base(path) != FileName || filepath.Dir(dir) != filepath.Clean(l.Base) {
		return ""
	}
	return filepath.Base(dir)
}

// CheckFile verifies that path is an existing regular file the current user
// can read and write.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Unavailable("collection not found at %s", path)
		}
		return Unavailable("cannot stat collection %s: %v", path, err)
	}
	if info.IsDir() {
		return Unavailable("%s is a directory, not a collection file", path)
	}
	if err := checkReadWrite(path); err != nil {
		return Unavailable("collection %s is not readable and writable: %v", path, err)
	}
	return nil
}
