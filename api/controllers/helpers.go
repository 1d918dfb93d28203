package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/api/middleware"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
)

// authenticatedUser extracts the user id the auth middleware stored.
func authenticatedUser(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity")
	}
	return userID, nil
}
