package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Shared test fixtures. Everything runs against the in-memory store, which
// has the same merge and ordering semantics as the Postgres store.

type testUser struct {
	ID    string
	Email string
	Token string
}

// createTestUser seeds a user document the way registration does and hands
// back a valid bearer token.
func createTestUser(t *testing.T, store DocumentStore, email string, profile UserProfile) testUser {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	profile.Email = email
	profile.PasswordHash = "not-a-real-hash"
	if profile.LikedUsers == nil {
		profile.LikedUsers = []string{}
	}
	if profile.DislikedUsers == nil {
		profile.DislikedUsers = []string{}
	}
	if profile.Matches == nil {
		profile.Matches = []string{}
	}
	profile.ProfileCompleted = profile.DisplayName != "" && len(profile.Interests) > 0
	profile.LastActive = now
	profile.CreatedAt = now

	if err := store.Create(context.Background(), usersCollection, id, encodeDoc(profile)); err != nil {
		t.Fatalf("seeding test user %s: %v", email, err)
	}

	token, err := issueToken(id)
	if err != nil {
		t.Fatalf("issuing token for %s: %v", email, err)
	}
	return testUser{ID: id, Email: email, Token: token}
}

func seedDestination(t *testing.T, store DocumentStore, d Destination) string {
	t.Helper()

	id := uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	if err := store.Create(context.Background(), destinationsCollection, id, encodeDoc(d)); err != nil {
		t.Fatalf("seeding destination %s: %v", d.Name, err)
	}
	return id
}

func mustProfile(t *testing.T, store DocumentStore, id string) UserProfile {
	t.Helper()

	profile, err := fetchProfile(context.Background(), store, id)
	if err != nil {
		t.Fatalf("fetching profile %s: %v", id, err)
	}
	return profile
}
