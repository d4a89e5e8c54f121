package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/moby/sys/atomicwriter"
)

// FileStore keeps document blobs under a root directory. Writes go through a
// temp file and rename, so a reader never observes a half-written document.
type FileStore struct {
	root   string
	logger *slog.Logger
}

// NewFileStore creates the root directory if needed
func NewFileStore(root string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{root: abs, logger: logger}, nil
}

// Put writes data at key, replacing any previous content
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return domain.NewError(domain.KindStorage, "upload cancelled", err)
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return domain.NewError(domain.KindStorage, "failed to prepare storage directory", err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o640); err != nil {
		s.logger.Error("blob write failed", slog.String("key", key), slog.String("error", err.Error()))
		return domain.NewError(domain.KindStorage, "failed to store file", err)
	}
	return nil
}

// Open returns a reader over the blob at key
func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindStorage, "read cancelled", err)
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewError(domain.KindStorage, "stored file is missing", err)
		}
		return nil, domain.NewError(domain.KindStorage, "failed to open stored file", err)
	}
	return f, nil
}

// Delete removes the blob at key. Deleting a missing blob is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewError(domain.KindStorage, "failed to delete stored file", err)
	}
	return nil
}

// List walks the store and returns every blob with its size and mtime
func (s *FileStore) List(ctx context.Context) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		out = append(out, domain.BlobInfo{
			Key:        filepath.ToSlash(rel),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, domain.NewError(domain.KindStorage, "failed to list stored files", err)
	}
	return out, nil
}

// resolve maps a key to a path inside root, rejecting traversal
func (s *FileStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", domain.NewError(domain.KindValidation, "invalid storage key: "+key, nil)
	}
	return filepath.Join(s.root, clean), nil
}
