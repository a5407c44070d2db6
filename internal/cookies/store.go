package cookies

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// BackupSuffix names the sibling file holding the previous jar generation.
const BackupSuffix = ".backup"

// ErrNotFound is returned by Load when no cookie file exists yet.
var ErrNotFound = errors.New("cookie file not found")

// Store persists a Jar at Path. Writes go to a temp file in the same
// directory and are renamed over Path, so a crash mid-write never leaves a
// truncated jar. Single-process use only; there is no locking.
type Store struct {
	Path string
}

// NewStore returns a store for the cookie file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// BackupPath returns the path of the backup sibling.
func (s *Store) BackupPath() string { return s.Path + BackupSuffix }

// Load reads and decodes the cookie file.
func (s *Store) Load() (*Jar, error) {
	return loadFile(s.Path)
}

func loadFile(path string) (*Jar, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// LoadOrRestore loads the jar; if the file is corrupt it restores the backup
// first and loads that. The returned bool reports whether a restore happened.
func (s *Store) LoadOrRestore() (*Jar, bool, error) {
	jar, err := s.Load()
	if err == nil || !errors.Is(err, ErrCorrupt) {
		return jar, false, err
	}
	slog.Warn("cookies: file corrupt, restoring backup",
		slog.String("path", s.Path), slog.Any("error", err))
	if rerr := s.Restore(); rerr != nil {
		return nil, false, fmt.Errorf("restore after %v: %w", err, rerr)
	}
	jar, err = s.Load()
	return jar, true, err
}

// Save atomically replaces the cookie file with jar. The current file, if
// any, is copied to the backup sibling first.
func (s *Store) Save(jar *Jar) error {
	if err := s.backup(); err != nil {
		return fmt.Errorf("backup cookies: %w", err)
	}
	return writeFileAtomic(s.Path, func(w io.Writer) error {
		return Encode(w, jar)
	})
}

// backup copies the current file to BackupPath. Missing files are not an
// error. A current file that no longer decodes is not backed up, so the last
// good generation survives.
func (s *Store) backup() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if _, err := Decode(bytes.NewReader(data)); err != nil {
		slog.Warn("cookies: current file corrupt, keeping previous backup", slog.String("path", s.Path))
		return nil
	}
	return writeFileAtomic(s.BackupPath(), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Restore replaces the cookie file with the backup generation.
func (s *Store) Restore() error {
	data, err := os.ReadFile(s.BackupPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.BackupPath())
		}
		return err
	}
	if _, err := Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if err := writeFileAtomic(s.Path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	slog.Info("cookies: restored from backup", slog.String("path", s.Path))
	return nil
}

// writeFileAtomic streams write into a temp file next to path, syncs it and
// renames it over path. On any failure the temp file is removed and path is
// left untouched.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o600); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
