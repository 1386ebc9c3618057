package dialog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Extension is the file extension of dialog assets.
const Extension = ".byack"

// Catalog is the set of known dialog asset names. It implements Oracle.
type Catalog struct {
	names map[string]bool
}

// NewCatalog returns a Catalog holding names.
func NewCatalog(names ...string) *Catalog {
	c := &Catalog{names: make(map[string]bool, len(names))}
	for _, n := range names {
		c.names[n] = true
	}
	return c
}

// ScanDir returns a Catalog of every *.byack file below dir, keyed by file
// name without extension.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns an error if the walk fails.
func ScanDir(dir string) (*Catalog, error) {
	c := NewCatalog()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), Extension) {
			return nil
		}
		c.names[strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dialog: scanning %q: %w", dir, err)
	}
	return c, nil
}

// HasDialog reports whether name is a known dialog.
func (c *Catalog) HasDialog(name string) bool { return c.names[name] }

// Len returns the number of known dialogs.
func (c *Catalog) Len() int { return len(c.names) }
