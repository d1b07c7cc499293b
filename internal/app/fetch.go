package app

import (
	"context"
	"fmt"

	forgeerr "github.com/msgforge/msgforge/internal/errors"
	"github.com/msgforge/msgforge/internal/storage"
)

// Fetch mirrors remote definition sources from the object store into the
// source directory, so a build can run against a tree published
// elsewhere. Returns the number of files fetched.
func (a *App) Fetch(ctx context.Context) (int, error) {
	fetcher := storage.NewSourceFetcher(a.store, a.cfg.Generate.Jobs)
	result, err := fetcher.Fetch(ctx, a.cfg.Storage.SourcePrefix, a.cfg.SourceDir)
	if err != nil {
		return 0, forgeerr.NewStorageError(forgeerr.CodeDownloadFailed, "source fetch failed", err)
	}
	for object, ferr := range result.Errors {
		return len(result.Fetched), forgeerr.NewStorageError(forgeerr.CodeDownloadFailed,
			fmt.Sprintf("cannot fetch %s", object), ferr)
	}

	a.log.Info().
		Int("files", len(result.Fetched)).
		Str("prefix", a.cfg.Storage.SourcePrefix).
		Msg("sources fetched")
	return len(result.Fetched), nil
}
