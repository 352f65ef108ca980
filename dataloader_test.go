package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileLoader(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	ann := createTestUser(t, store, "ann@example.com", UserProfile{DisplayName: "Ann"})
	ben := createTestUser(t, store, "ben@example.com", UserProfile{DisplayName: "Ben"})

	t.Run("Batch Load Resolves All Ids", func(t *testing.T) {
		loader := newProfileLoader(store)
		profiles := loadProfiles(ctx, loader, []string{ann.ID, ben.ID})

		require.Len(t, profiles, 2)
		names := []string{profiles[0].DisplayName, profiles[1].DisplayName}
		assert.Contains(t, names, "Ann")
		assert.Contains(t, names, "Ben")
	})

	t.Run("Missing Ids Are Dropped Not Fatal", func(t *testing.T) {
		loader := newProfileLoader(store)
		profiles := loadProfiles(ctx, loader, []string{ann.ID, "deleted-account", ben.ID})

		require.Len(t, profiles, 2, "a vanished profile must not poison the batch")
		for _, p := range profiles {
			assert.NotEqual(t, "deleted-account", p.ID)
		}
	})

	t.Run("Empty Id List", func(t *testing.T) {
		loader := newProfileLoader(store)
		assert.Empty(t, loadProfiles(ctx, loader, nil))
	})

	t.Run("Repeated Ids Share The Cache", func(t *testing.T) {
		loader := newProfileLoader(store)
		profiles := loadProfiles(ctx, loader, []string{ann.ID, ann.ID})

		require.Len(t, profiles, 2)
		assert.Equal(t, profiles[0].ID, profiles[1].ID)
	})
}
