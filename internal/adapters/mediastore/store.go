// Package mediastore keeps uploaded media as transient files for the
// lifetime of one verification.
package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/ports"
)

// DefaultMaxBytes is the upload cap used when none is configured.
const DefaultMaxBytes = 100 << 20

type Store struct {
	dir      string
	maxBytes int64
}

// New creates dir if needed. maxBytes <= 0 means DefaultMaxBytes.
func New(dir string, maxBytes int64) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "pratyaksh-uploads")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Acquire copies body to a new uniquely named file. The original extension is
// kept so decoders and collaborators can sniff the format.
func (s *Store) Acquire(ctx context.Context, filename string, body io.Reader) (domain.MediaReference, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaReference{}, err
	}
	id := uuid.NewString()
	path := filepath.Join(s.dir, strings.ReplaceAll(id, "-", "")+extension(filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return domain.MediaReference{}, fmt.Errorf("create media file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		err = fmt.Errorf("write media file: %w", err)
	case n == 0:
		err = ports.ErrMediaEmpty
	case n > s.maxBytes:
		err = fmt.Errorf("%w: limit is %d bytes", ports.ErrMediaTooLarge, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.MediaReference{}, err
	}

	return domain.MediaReference{ID: id, Filename: filename, Path: path, Size: n}, nil
}

// Release removes the file. A file that is already gone counts as released.
func (s *Store) Release(ref domain.MediaReference) error {
	if ref.Path == "" {
		return nil
	}
	if err := os.Remove(ref.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
