package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/middleware"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
)

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
