package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ============================================================================
// MUTUAL-MATCH DETECTOR TEST SUITE
// ============================================================================

func TestMutualMatchSuite(t *testing.T) {
	t.Run("LikeFlow", testLikeFlow)
	t.Run("DislikeFlow", testDislikeFlow)
	t.Run("CanonicalMatchID", testCanonicalMatchID)
	t.Run("ConcurrentLikes", testConcurrentLikes)
	t.Run("LikeHandlers", testLikeHandlers)
}

func testLikeFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Single Like Is Not A Match", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A", Interests: []string{"hiking"}})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B", Interests: []string{"hiking"}})

		result, err := applyLike(ctx, store, a.ID, b.ID)
		if err != nil {
			t.Fatalf("applyLike: %v", err)
		}
		if result.IsMatch {
			t.Error("one-directional like reported as match")
		}

		if !containsString(mustProfile(t, store, a.ID).LikedUsers, b.ID) {
			t.Error("like was not recorded")
		}
		docs, _ := store.Query(ctx, matchesCollection)
		if len(docs) != 0 {
			t.Errorf("expected zero match records, got %d", len(docs))
		}
	})

	t.Run("Reciprocal Like Creates One Match", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A", Interests: []string{"hiking"}})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B", Interests: []string{"hiking"}})

		first, err := applyLike(ctx, store, a.ID, b.ID)
		if err != nil || first.IsMatch {
			t.Fatalf("first like: result=%+v err=%v", first, err)
		}
		second, err := applyLike(ctx, store, b.ID, a.ID)
		if err != nil {
			t.Fatalf("second like: %v", err)
		}
		if !second.IsMatch {
			t.Fatal("reciprocal like did not produce a match")
		}
		if second.MatchID != canonicalMatchID(a.ID, b.ID) {
			t.Errorf("match id %q is not canonical", second.MatchID)
		}

		// Both sides see the match.
		if !containsString(mustProfile(t, store, a.ID).Matches, b.ID) {
			t.Error("liker side missing match entry")
		}
		if !containsString(mustProfile(t, store, b.ID).Matches, a.ID) {
			t.Error("liked side missing match entry")
		}

		// Exactly one record, with both participants.
		docs, _ := store.Query(ctx, matchesCollection)
		if len(docs) != 1 {
			t.Fatalf("expected one match record, got %d", len(docs))
		}
		var record MatchRecord
		if err := decodeDoc(docs[0], &record); err != nil {
			t.Fatalf("decoding match record: %v", err)
		}
		if len(record.Users) != 2 {
			t.Errorf("expected two participants, got %v", record.Users)
		}
		if len(record.Messages) != 0 {
			t.Errorf("messages must start empty, got %v", record.Messages)
		}
	})

	t.Run("Repeat Like Is Idempotent", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B"})

		applyLike(ctx, store, a.ID, b.ID)
		applyLike(ctx, store, b.ID, a.ID)
		result, err := applyLike(ctx, store, a.ID, b.ID)
		if err != nil {
			t.Fatalf("replayed like: %v", err)
		}
		if !result.IsMatch || result.MatchID != canonicalMatchID(a.ID, b.ID) {
			t.Errorf("replay lost match state: %+v", result)
		}

		if got := mustProfile(t, store, a.ID); len(got.LikedUsers) != 1 || len(got.Matches) != 1 {
			t.Errorf("replay duplicated set entries: liked=%v matches=%v", got.LikedUsers, got.Matches)
		}
		docs, _ := store.Query(ctx, matchesCollection)
		if len(docs) != 1 {
			t.Errorf("expected one match record after replay, got %d", len(docs))
		}
	})

	t.Run("Self Like Rejected", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})

		if _, err := applyLike(ctx, store, a.ID, a.ID); err != errInvalidTarget {
			t.Errorf("expected errInvalidTarget, got %v", err)
		}
		if len(mustProfile(t, store, a.ID).LikedUsers) != 0 {
			t.Error("self like reached the store")
		}
	})

	t.Run("Deleted Counterpart Fails Safe", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})

		result, err := applyLike(ctx, store, a.ID, "gone-user")
		if err != nil {
			t.Fatalf("like toward deleted account must not fail: %v", err)
		}
		if result.IsMatch {
			t.Error("deleted counterpart cannot be a match")
		}
		// The like itself still sticks.
		if !containsString(mustProfile(t, store, a.ID).LikedUsers, "gone-user") {
			t.Error("like was not recorded")
		}
	})
}

func testDislikeFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Dislike Never Checks Reciprocity", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B"})

		applyLike(ctx, store, b.ID, a.ID)
		if err := applyDislike(ctx, store, a.ID, b.ID); err != nil {
			t.Fatalf("applyDislike: %v", err)
		}

		docs, _ := store.Query(ctx, matchesCollection)
		if len(docs) != 0 {
			t.Error("dislike produced a match record")
		}
		if !containsString(mustProfile(t, store, a.ID).DislikedUsers, b.ID) {
			t.Error("dislike was not recorded")
		}
	})

	t.Run("Dislike Does Not Retract A Prior Like", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B"})

		applyLike(ctx, store, a.ID, b.ID)
		applyDislike(ctx, store, a.ID, b.ID)

		profile := mustProfile(t, store, a.ID)
		if !containsString(profile.LikedUsers, b.ID) {
			t.Error("dislike retracted the earlier like")
		}
		if !containsString(profile.DislikedUsers, b.ID) {
			t.Error("dislike missing")
		}
	})

	t.Run("Self Dislike Rejected", func(t *testing.T) {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})

		if err := applyDislike(ctx, store, a.ID, a.ID); err != errInvalidTarget {
			t.Errorf("expected errInvalidTarget, got %v", err)
		}
	})
}

func testCanonicalMatchID(t *testing.T) {
	if canonicalMatchID("alice", "bob") != "alice_bob" {
		t.Error("expected lexicographically smaller id first")
	}
	if canonicalMatchID("bob", "alice") != canonicalMatchID("alice", "bob") {
		t.Error("canonical id must not depend on argument order")
	}

	// Same match id regardless of which side completes the pair.
	ctx := context.Background()
	for _, reversed := range []bool{false, true} {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B"})

		first, second := a.ID, b.ID
		if reversed {
			first, second = second, first
		}
		applyLike(ctx, store, first, second)
		result, err := applyLike(ctx, store, second, first)
		if err != nil || !result.IsMatch {
			t.Fatalf("reversed=%v: result=%+v err=%v", reversed, result, err)
		}
		if result.MatchID != canonicalMatchID(a.ID, b.ID) {
			t.Errorf("reversed=%v: got non-canonical id %q", reversed, result.MatchID)
		}
	}
}

// Regression test for the mutual-like race: both directions fired at once
// must still converge to exactly one match record, visible as a match to at
// least one caller.
func testConcurrentLikes(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		store := NewMemStore()
		a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A"})
		b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B"})

		var wg sync.WaitGroup
		results := make([]LikeResult, 2)
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			results[0], errs[0] = applyLike(ctx, store, a.ID, b.ID)
		}()
		go func() {
			defer wg.Done()
			results[1], errs[1] = applyLike(ctx, store, b.ID, a.ID)
		}()
		wg.Wait()

		if errs[0] != nil || errs[1] != nil {
			t.Fatalf("iteration %d: errors %v %v", i, errs[0], errs[1])
		}
		if !results[0].IsMatch && !results[1].IsMatch {
			t.Fatalf("iteration %d: no caller observed the match", i)
		}

		docs, _ := store.Query(ctx, matchesCollection)
		if len(docs) != 1 {
			t.Fatalf("iteration %d: expected exactly one match record, got %d", i, len(docs))
		}
		if docs[0]["id"] != canonicalMatchID(a.ID, b.ID) {
			t.Fatalf("iteration %d: unexpected match id %v", i, docs[0]["id"])
		}
		if !containsString(mustProfile(t, store, a.ID).Matches, b.ID) ||
			!containsString(mustProfile(t, store, b.ID).Matches, a.ID) {
			t.Fatalf("iteration %d: match sets diverged", i)
		}
	}
}

func testLikeHandlers(t *testing.T) {
	store := NewMemStore()
	a := createTestUser(t, store, "a@example.com", UserProfile{DisplayName: "A", Interests: []string{"hiking"}})
	b := createTestUser(t, store, "b@example.com", UserProfile{DisplayName: "B", Interests: []string{"hiking"}})

	t.Run("Like Then Reciprocal Like Over HTTP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/"+b.ID+"/like", nil)
		req.Header.Set("Authorization", "Bearer "+a.Token)
		w := httptest.NewRecorder()
		usersDispatcher(store).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var first LikeResult
		json.NewDecoder(w.Body).Decode(&first)
		if first.IsMatch {
			t.Fatal("first like should not match")
		}

		req = httptest.NewRequest(http.MethodPost, "/users/"+a.ID+"/like", nil)
		req.Header.Set("Authorization", "Bearer "+b.Token)
		w = httptest.NewRecorder()
		usersDispatcher(store).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var second LikeResult
		json.NewDecoder(w.Body).Decode(&second)
		if !second.IsMatch || second.MatchID != canonicalMatchID(a.ID, b.ID) {
			t.Fatalf("expected canonical match, got %+v", second)
		}
	})

	t.Run("Self Like Over HTTP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/"+a.ID+"/like", nil)
		req.Header.Set("Authorization", "Bearer "+a.Token)
		w := httptest.NewRecorder()
		usersDispatcher(store).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Unauthorized Like", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/"+b.ID+"/like", nil)
		w := httptest.NewRecorder()
		usersDispatcher(store).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("Matches Listing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/matches", nil)
		req.Header.Set("Authorization", "Bearer "+a.Token)
		w := httptest.NewRecorder()
		matchesHandler(store).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Matches []PublicProfile `json:"matches"`
		}
		json.NewDecoder(w.Body).Decode(&resp)
		if len(resp.Matches) != 1 || resp.Matches[0].ID != b.ID {
			t.Errorf("expected B in matches, got %+v", resp.Matches)
		}
	})

	t.Run("Dislike Over HTTP", func(t *testing.T) {
		c := createTestUser(t, store, "c@example.com", UserProfile{DisplayName: "C"})
		req := httptest.NewRequest(http.MethodPost, "/users/"+c.ID+"/dislike", nil)
		req.Header.Set("Authorization", "Bearer "+a.Token)
		w := httptest.NewRecorder()
		usersDispatcher(store).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !containsString(mustProfile(t, store, a.ID).DislikedUsers, c.ID) {
			t.Error("dislike not recorded")
		}
	})
}
