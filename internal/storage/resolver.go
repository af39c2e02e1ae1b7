package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Resolver promotes staged uploads to durable storage. A promotion is two-phase:
// Resolve copies the staged file and leaves it in place, then the caller either
// Releases the staged ref once the product is saved or Discards the durable key
// when the save fails.
type Resolver struct {
	Staging *Staging
	Store   Storage
	Log     *slog.Logger
}

// Resolve returns the durable key and public URL of the promoted copy.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, string, error) {
	f, in, err := r.Staging.Open(ref)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	res, err := r.Store.Put(ctx, f, in)
	if err != nil {
		return "", "", fmt.Errorf("promote %s: %w", ref, err)
	}
	return res.Key, res.URL, nil
}

// Discard deletes a promoted copy whose product was never saved.
func (r *Resolver) Discard(ctx context.Context, key string) error {
	if err := r.Store.Delete(ctx, key); err != nil {
		return fmt.Errorf("discard %s: %w", key, err)
	}
	return nil
}

// Release drops the staged file after its promoted copy has been saved.
func (r *Resolver) Release(ref string) error {
	return r.Staging.Remove(ref)
}

// Owns reports whether url points into the durable store.
func (r *Resolver) Owns(url string) bool {
	return r.Store.Owns(url)
}
