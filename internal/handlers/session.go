// internal/handlers/session.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourcard/internal/auth"
)

// SessionCookie names the cookie carrying the table token.
const SessionCookie = "table_token"

// TableSessionID returns the table ID from a valid session cookie.
func TableSessionID(r *http.Request) (uuid.UUID, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return uuid.Nil, false
	}
	sub, err := auth.AuthenticateJWT(c.Value)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnsureTableSession returns the table ID bound to the request's session cookie.
// A missing or invalid cookie gets a fresh table ID and a new cookie.
func EnsureTableSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if id, ok := TableSessionID(r); ok {
		return id, nil
	}

	id := uuid.New()
	token, err := auth.CreateJWT(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create table token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
