package main

import (
	"log"
	"net/http"
	"os"
)

// JWT secret from environment variable or fallback
func getJWTSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("your_secret_key_please_change_in_production")
}

var jwtSecret = getJWTSecret()

// openStore picks the persistence backend: Postgres when DATABASE_URL is
// set, otherwise the in-memory store so the backend runs standalone during
// development.
func openStore() DocumentStore {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Default().Println("Warning: DATABASE_URL not set, using in-memory store")
		return NewMemStore()
	}
	store, err := OpenPGStore(connStr)
	if err != nil {
		log.Fatal("Error connecting to the database:", err)
	}
	return store
}

func main() {
	store := openStore()

	mux := http.NewServeMux()

	// Core auth & user endpoints
	mux.Handle("/register", registerHandler(store))
	mux.Handle("/login", loginHandler(store))
	mux.Handle("/me", meHandler(store))
	mux.Handle("/me/profile", meProfileHandler(store))

	// Matching flow
	mux.Handle("/explore", exploreHandler(store))
	mux.Handle("/matches", matchesHandler(store))
	mux.Handle("/matches/potential", potentialMatchesHandler(store))

	// Users dispatcher (search, profile, like/dislike)
	mux.Handle("/users/", usersDispatcher(store))

	// Destinations & map data
	mux.Handle("/destinations", destinationsHandler(store))
	mux.Handle("/destinations/recommended", recommendedDestinationsHandler(store))
	mux.Handle("/map/destinations", mapDestinationsHandler(store))

	// WebSocket match notifications
	mux.Handle("/ws/notifications", wsNotificationsHandler())

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Default().Println("Starting WanderMate backend on port " + port + "...")
	http.ListenAndServe(":"+port, withCORS(mux))
}
