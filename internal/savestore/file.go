package savestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// FileStore keeps each slot as a Savegame<N>.save file in one directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir, creating dir if needed.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns an error if dir cannot be created.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the file path of slot.
func (s *FileStore) Path(slot int) string { return filepath.Join(s.dir, SlotName(slot)) }

// Write replaces the slot file. The content is written to a temporary file
// first so a failed write leaves the previous save intact.
func (s *FileStore) Write(_ context.Context, slot int, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, SlotName(slot)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp save: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(slot)); err != nil {
		return fmt.Errorf("replacing save: %w", err)
	}
	s.logger.Debug("save slot written", zap.Int("slot", slot), zap.Int("bytes", len(data)))
	return nil
}

// Read returns the slot file content.
func (s *FileStore) Read(_ context.Context, slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading save: %w", err)
	}
	return data, nil
}

// Delete removes the slot file.
func (s *FileStore) Delete(_ context.Context, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(s.Path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSlotNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	return nil
}

// Slots lists the slot files present in the directory.
func (s *FileStore) Slots(_ context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading save dir: %w", err)
	}
	var out []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := parseSlotName(e.Name()); ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}
