package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

// FileSink writes artifacts into a local directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{dir: dir}
}

func (s *FileSink) Name() string {
	return "file"
}

func (s *FileSink) Dir() string {
	return s.dir
}

// Write stages every artifact next to its destination first and only renames
// once all of them are on disk, so a failed run leaves the previous files in
// place.
func (s *FileSink) Write(ctx context.Context, artifacts []common.Artifact) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", s.dir, err)
	}

	staged := make([]string, 0, len(artifacts))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		tmp, err := s.stage(artifact)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for _, i := range renameOrder(artifacts) {
		if err := os.Rename(staged[i], s.path(artifacts[i].Name)); err != nil {
			cleanup()
			return fmt.Errorf("failed to move %s into place: %w", artifacts[i].Name, err)
		}
	}
	return nil
}

// renameOrder moves the index into place after every chain document.
func renameOrder(artifacts []common.Artifact) []int {
	order := make([]int, 0, len(artifacts))
	var index []int
	for i, artifact := range artifacts {
		if filepath.Base(artifact.Name) == common.IndexArtifactName {
			index = append(index, i)
			continue
		}
		order = append(order, i)
	}
	return append(order, index...)
}

func (s *FileSink) stage(artifact common.Artifact) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+artifact.Name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", artifact.Name, err)
	}
	if _, err := f.Write(artifact.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", artifact.Name, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to chmod %s: %w", artifact.Name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close %s: %w", artifact.Name, err)
	}
	return f.Name(), nil
}

func (s *FileSink) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Read returns a previously written artifact. A missing artifact yields an
// error satisfying os.IsNotExist.
func (s *FileSink) Read(name string) ([]byte, error) {
	return os.ReadFile(s.path(name))
}

func (s *FileSink) Close() error {
	return nil
}
