// Package memory owns the markdown-backed category store: parsing, ordered
// serialization, duplicate detection, and normalization of raw extraction
// output into the category schema.
package memory

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rcliao/memoryd/internal/model"
)

// Store reads and writes one markdown file per category under dir.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file path for a category.
func (s *Store) Path(cat model.Category) string {
	return filepath.Join(s.dir, string(cat)+".md")
}

// EnsureInitialized creates an empty file with only a title line for every
// category that does not yet exist. Existing content is never touched.
func (s *Store) EnsureInitialized() error {
	for _, cat := range model.Categories() {
		path := s.Path(cat)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		content := "# " + cat.Title() + "\n"
		if err := writeAtomic(path, []byte(content)); err != nil {
			return fmt.Errorf("init category %s: %w", cat, err)
		}
	}
	return nil
}

// ReadCategory parses the category file into buckets. A "## " line opens a
// subcategory bucket, a "- " line appends to the open bucket (or the
// no-subcategory bucket before any header). Anything else, including the
// title line and blanks, is ignored. Malformed content degrades to fewer
// facts rather than an error; only real I/O failures propagate.
func (s *Store) ReadCategory(cat model.Category) (*model.CategoryStore, error) {
	store := model.NewCategoryStore()

	f, err := os.Open(s.Path(cat))
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read category %s: %w", cat, err)
	}
	defer f.Close()

	current := model.NoSubcategory
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "## "):
			current = strings.TrimSpace(line[3:])
			store.Ensure(current)
		case strings.HasPrefix(line, "- "):
			store.Append(current, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read category %s: %w", cat, err)
	}
	return store, nil
}

// WriteCategory serializes the store deterministically and replaces the
// category file atomically (temp file + rename), so concurrent readers
// never observe a partial write. The no-subcategory bucket renders first,
// named buckets follow in lexical order; empty buckets are skipped.
func (s *Store) WriteCategory(cat model.Category, store *model.CategoryStore) error {
	var b strings.Builder
	b.WriteString("# " + cat.Title() + "\n")

	if facts := store.Bucket(model.NoSubcategory); len(facts) > 0 {
		for _, fact := range facts {
			b.WriteString(fact + "\n")
		}
		b.WriteString("\n")
	}

	var subs []string
	for _, sub := range store.Subcategories() {
		if sub != model.NoSubcategory && len(store.Bucket(sub)) > 0 {
			subs = append(subs, sub)
		}
	}
	sort.Strings(subs)

	for _, sub := range subs {
		b.WriteString("## " + sub + "\n")
		for _, fact := range store.Bucket(sub) {
			b.WriteString(fact + "\n")
		}
		b.WriteString("\n")
	}

	content := strings.TrimRight(b.String(), "\n") + "\n"
	if err := writeAtomic(s.Path(cat), []byte(content)); err != nil {
		return fmt.Errorf("write category %s: %w", cat, err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the target's directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
