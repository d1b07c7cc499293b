package app

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	forgeerr "github.com/msgforge/msgforge/internal/errors"
)

// Publish uploads every generated source file under the output directory
// to the configured object store, keyed by output-relative path under the
// configured prefix. Returns the number of objects uploaded.
func (a *App) Publish(ctx context.Context) (int, error) {
	var uploaded int
	err := filepath.WalkDir(a.cfg.OutputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, err := filepath.Rel(a.cfg.OutputDir, path)
		if err != nil {
			return err
		}
		object := filepath.ToSlash(rel)
		if a.cfg.Storage.Prefix != "" {
			object = strings.TrimSuffix(a.cfg.Storage.Prefix, "/") + "/" + object
		}
		if err := a.store.Upload(ctx, path, object); err != nil {
			return forgeerr.NewStorageError(forgeerr.CodeUploadFailed,
				fmt.Sprintf("cannot publish %s", object), err)
		}
		uploaded++
		a.log.Debug().Str("object", object).Msg("uploaded")
		return nil
	})
	if err != nil {
		return uploaded, err
	}

	a.log.Info().Int("objects", uploaded).Str("type", a.cfg.Storage.Type).Msg("publish complete")
	return uploaded, nil
}
