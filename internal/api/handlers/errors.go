package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/campusmarket/marketplace/internal/api/response"
	"github.com/campusmarket/marketplace/internal/markerrors"
)

// respondServiceError maps service-layer errors to problem responses:
// not-found to 404, validation to 422, everything else to 500 with a generic
// detail (internals stay in the logs).
func respondServiceError(w http.ResponseWriter, err error, detail string) {
	if errors.Is(err, markerrors.ErrNotFound) {
		response.RespondNotFound(w, err.Error())

		return
	}

	if errors.Is(err, markerrors.ErrValidation) {
		response.RespondUnprocessableEntity(w, err.Error())

		return
	}

	response.RespondInternalServerError(w, detail)
}

// pathUUID parses the {id}-style path value named key. The second return is
// false when the value is missing or not a UUID; a problem response has
// already been written in that case.
func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	raw := r.PathValue(key)
	if raw == "" {
		response.RespondBadRequest(w, key+" path parameter is required")

		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondBadRequest(w, "Invalid "+key)

		return uuid.Nil, false
	}

	return id, true
}
