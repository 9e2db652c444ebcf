package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// Session identifies the caller of a request. It is built once per request
// and handed to the handler explicitly.
type Session struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
}

// OrganizationResolver looks up the organization of a user whose token
// carries no organization claim.
type OrganizationResolver interface {
	UserOrganization(ctx context.Context, userID string) (string, error)
}

// SessionHandlerFunc is a gateway handler that requires a Session.
type SessionHandlerFunc func(w http.ResponseWriter, r *http.Request, params map[string]string, sess Session)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Authenticator struct {
	jwtSecret string
	orgs      OrganizationResolver
}

func NewAuthenticator(jwtSecret string, orgs OrganizationResolver) *Authenticator {
	return &Authenticator{jwtSecret: jwtSecret, orgs: orgs}
}

// Authenticate validates the bearer token of r and resolves its Session.
// It returns ErrAuthenticationRequired or ErrNoOrganization.
func (a *Authenticator) Authenticate(r *http.Request) (Session, error) {
	tokenString, err := extractTokenFromHeader(r)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", e.ErrAuthenticationRequired, err)
	}

	claims, err := validateToken(tokenString, a.jwtSecret)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", e.ErrAuthenticationRequired, err)
	}

	userID, err := uuid.Parse(stringClaim(claims, claimSubject))
	if err != nil {
		return Session{}, fmt.Errorf("%w: invalid subject", e.ErrAuthenticationRequired)
	}

	org := stringClaim(claims, claimOrganization)
	if org == "" && a.orgs != nil {
		org, err = a.orgs.UserOrganization(r.Context(), userID.String())
		if err != nil {
			return Session{}, err
		}
	}
	orgID, err := uuid.Parse(org)
	if err != nil {
		return Session{}, e.ErrNoOrganization
	}

	return Session{UserID: userID, OrganizationID: orgID}, nil
}

// Wrap turns fn into a gateway handler that only runs with a valid Session.
func (a *Authenticator) Wrap(fn SessionHandlerFunc, onError ErrorWriter) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		sess, err := a.Authenticate(r)
		if err != nil {
			onError(w, r, err)
			return
		}
		fn(w, r, params, sess)
	}
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format: empty token")
	}
	return tokenString, nil
}
