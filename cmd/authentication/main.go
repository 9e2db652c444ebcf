// This is a **mock authentication service**, designed to provide JWT tokens
// for the recruit API, simulating user sign-in.
//
//	GET /token?user=<uuid>&org=<uuid>
//
// Missing parameters fall back to a fixed demo user and organization.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/recruit/internal/recruit/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
	tokenTTL      = 24 * time.Hour

	demoUserID         = "00000000-0000-4000-8000-000000000001"
	demoOrganizationID = "00000000-0000-4000-8000-0000000000aa"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token          string `json:"token"`
	UserID         string `json:"userId"`
	OrganizationID string `json:"organizationId,omitempty"`
}

type tokenHandler struct {
	secret string
	logger *zap.Logger
}

// ServeHTTP generates a JWT and returns it in a JSON response.
func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user")
	if userID == "" {
		userID = demoUserID
	}
	orgID := demoOrganizationID
	if q.Has("org") {
		// An empty org yields a token for a user without an organization.
		orgID = q.Get("org")
	}

	for _, id := range []string{userID, orgID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "user and org must be UUIDs", http.StatusBadRequest)
			return
		}
	}

	token, err := auth.GenerateToken(userID, orgID, h.secret, tokenTTL)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := TokenResponse{Token: token, UserID: userID, OrganizationID: orgID}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode token", zap.Error(err))
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}
	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/token", &tokenHandler{secret: secret, logger: logger})

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	logger.Info("Authentication service running", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("Authentication service stopped", zap.Error(err))
	}
}
