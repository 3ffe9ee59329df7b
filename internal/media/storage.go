// Package media stores generated narration audio on disk.
package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/echoverse/echoverse-server/internal/audio"
)

// timestampLayout formats the timestamp embedded in stored file names.
const timestampLayout = "20060102_150405"

// tempPattern names in-progress writes. ValidateName rejects dot names, so they
// are never served.
const tempPattern = ".incoming-*"

// maxCollisions bounds the suffixes tried when a name is already taken.
const maxCollisions = 100

var (
	// ErrInvalidName is returned for names that are empty or escape the storage directory.
	ErrInvalidName = errors.New("invalid audio file name")
	// ErrNotFound is returned when the file does not exist.
	ErrNotFound = errors.New("audio file not found")
)

// Storage manages the audio directory. Safe for concurrent use.
type Storage struct {
	dir string
	mu  sync.Mutex // serializes name reservation
}

// NewStorage creates the directory if needed.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("audio directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }

// Save writes data under name and returns the stored name and size. Existing
// files are never overwritten: a numeric suffix is added instead. The data is
// written to a temporary file first and linked into place once complete, so a
// stored name never refers to a partial file.
func (s *Storage) Save(name string, data []byte) (string, int64, error) {
	if len(data) == 0 {
		return "", 0, fmt.Errorf("audio data cannot be empty")
	}
	if err := ValidateName(name); err != nil {
		return "", 0, err
	}

	tmp, err := s.writeTemp(data)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp)

	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; i <= maxCollisions; i++ {
		err := os.Link(tmp, filepath.Join(s.dir, candidate))
		if errors.Is(err, fs.ErrExist) {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
			continue
		}
		if err != nil {
			return "", 0, fmt.Errorf("failed to store audio file: %w", err)
		}
		return candidate, int64(len(data)), nil
	}
	return "", 0, fmt.Errorf("no free file name for %s", name)
}

// writeTemp writes data to a hidden file in the storage directory.
func (s *Storage) writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}
	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write audio file: %w", werr)
	}
	return f.Name(), nil
}

// Open opens a stored file for reading.
func (s *Storage) Open(name string) (*os.File, fs.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat audio file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}
	return f, info, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *Storage) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete audio file: %w", err)
	}
	return nil
}

// Path resolves a stored name to its absolute location.
func (s *Storage) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// ValidateName rejects names that are not a single plain path element.
func ValidateName(name string) error {
	switch {
	case name == "", strings.HasPrefix(name, "."):
		return ErrInvalidName
	case strings.ContainsAny(name, `/\`+"\x00"):
		return ErrInvalidName
	case filepath.Base(name) != name:
		return ErrInvalidName
	}
	return nil
}

// SynthesisFilename names a single synthesized clip.
func SynthesisFilename(userID, voice string, format audio.Format, at time.Time) string {
	return fmt.Sprintf("echoverse_%s_%s_%s%s", safePart(userID), safePart(voice), at.Format(timestampLayout), format.Ext())
}

// SegmentFilename names one story segment clip.
func SegmentFilename(userID, voice string, segmentID int, format audio.Format, at time.Time) string {
	return fmt.Sprintf("story_segment_%s_%s_%d_%s%s", safePart(userID), safePart(voice), segmentID, at.Format(timestampLayout), format.Ext())
}

// MergedFilename names a merged story narration.
func MergedFilename(userID string, at time.Time) string {
	return fmt.Sprintf("story_merged_%s_%s%s", safePart(userID), at.Format(timestampLayout), audio.FormatWAV.Ext())
}

// safePart keeps identifiers usable inside a file name.
func safePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
