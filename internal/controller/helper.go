package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/service/room"
)

func (c controller) getRoomID(r *http.Request) string {
	return chi.URLParam(r, "room-id")
}

func (c controller) getClaims(r *http.Request) *room.Claims {
	claims, ok := r.Context().Value(claimsCtxKey).(*room.Claims)
	if !ok {
		return nil
	}

	return claims
}

func (c controller) decodeAndValidate(w http.ResponseWriter, r *http.Request, input any) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		c.respondError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErrors,
		})
		return false
	}

	return true
}

func (c controller) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.Error("failed to encode response", "err", err)
	}
}

func (c controller) respondError(w http.ResponseWriter, status int, message string) {
	c.respondJSON(w, status, map[string]string{"error": message})
}

func (c controller) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, domain.ErrTrackNotFound):
		c.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, room.ErrPermissionDenied):
		c.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, room.ErrMembersLimitReached),
		errors.Is(err, room.ErrPlaylistLimitReached),
		errors.Is(err, room.ErrSecondOwner),
		errors.Is(err, domain.ErrUserAlreadyExists):
		c.respondError(w, http.StatusConflict, err.Error())
	default:
		c.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
