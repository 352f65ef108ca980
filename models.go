package main

import "time"

// Collection names in the document store.
const (
	usersCollection        = "users"
	destinationsCollection = "destinations"
	matchesCollection      = "matches"
)

// UserProfile represents a traveler's account and matching state. A nil and
// an empty slice mean the same thing everywhere: the user has not set that
// field yet.
type UserProfile struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email,omitempty"`
	PasswordHash          string    `json:"passwordHash,omitempty"`
	DisplayName           string    `json:"displayName"`
	Bio                   string    `json:"bio"`
	Interests             []string  `json:"interests"`
	PreferredDestinations []string  `json:"preferredDestinations"`
	LikedUsers            []string  `json:"likedUsers"`
	DislikedUsers         []string  `json:"dislikedUsers"`
	Matches               []string  `json:"matches"`
	ProfileCompleted      bool      `json:"profileCompleted"`
	LastActive            time.Time `json:"lastActive"`
	CreatedAt             time.Time `json:"createdAt"`
}

// PublicProfile is what other users (and candidate listings) see. Email and
// credentials never leave the server; the like/dislike sets stay private to
// their owner.
type PublicProfile struct {
	ID                    string   `json:"id"`
	DisplayName           string   `json:"display_name"`
	Bio                   string   `json:"bio"`
	Interests             []string `json:"interests"`
	PreferredDestinations []string `json:"preferred_destinations"`
	ProfileCompleted      bool     `json:"profile_completed"`
}

func (p UserProfile) Public() PublicProfile {
	return PublicProfile{
		ID:                    p.ID,
		DisplayName:           p.DisplayName,
		Bio:                   p.Bio,
		Interests:             p.Interests,
		PreferredDestinations: p.PreferredDestinations,
		ProfileCompleted:      p.ProfileCompleted,
	}
}

// Coordinates is a map position for a destination.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Destination is a travel destination shown in recommendations and on the
// map. Created through the content endpoint, read-only for the matching
// flow.
type Destination struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Rating      float64      `json:"rating"`
	Trending    bool         `json:"trending"`
	IsNearby    bool         `json:"isNearby"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// MatchRecord is created exactly once per mutual like, keyed by the
// canonical pair id. Messages is reserved for a future chat feature and
// stays empty.
type MatchRecord struct {
	ID        string    `json:"id"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []any     `json:"messages"`
}
