package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileUploader writes artifacts to the local filesystem. The bucket is ignored.
type FileUploader struct{}

// Put writes data to key through a temporary file and a rename.
func (FileUploader) Put(ctx context.Context, _ string, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(key); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	tmp := key + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // exported artifacts are not secret
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, key); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
