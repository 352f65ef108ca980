package main

import (
	"context"
	"errors"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// The matches listing resolves every matched id to a profile. Those are
// independent point reads, so they go through a short-lived batched loader:
// one loader per request, which also keeps results fresh.

func newProfileLoader(store DocumentStore) *dataloader.Loader[string, *UserProfile] {
	return dataloader.NewBatchedLoader(
		profileBatchFn(store),
		dataloader.WithWait[string, *UserProfile](2*time.Millisecond),
	)
}

func profileBatchFn(store DocumentStore) dataloader.BatchFunc[string, *UserProfile] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*UserProfile] {
		results := make([]*dataloader.Result[*UserProfile], len(keys))
		for i, key := range keys {
			profile, err := fetchProfile(ctx, store, key)
			if err != nil {
				// A vanished profile is represented as a nil value, not an
				// error, so one deleted account cannot poison the batch.
				if errors.Is(err, ErrNotFound) {
					results[i] = &dataloader.Result[*UserProfile]{}
				} else {
					results[i] = &dataloader.Result[*UserProfile]{Error: err}
				}
				continue
			}
			results[i] = &dataloader.Result[*UserProfile]{Data: &profile}
		}
		return results
	}
}

// loadProfiles resolves ids through the loader, dropping the ones that
// failed or no longer exist.
func loadProfiles(ctx context.Context, loader *dataloader.Loader[string, *UserProfile], ids []string) []*UserProfile {
	if len(ids) == 0 {
		return nil
	}
	thunk := loader.LoadMany(ctx, ids)
	values, _ := thunk()
	profiles := make([]*UserProfile, 0, len(values))
	for _, v := range values {
		if v != nil {
			profiles = append(profiles, v)
		}
	}
	return profiles
}
