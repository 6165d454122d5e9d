package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"codenotes/internal/api/middleware"
	"codenotes/internal/common"
)

// maxBodyBytes caps request bodies; problem code is the largest field.
const maxBodyBytes = 1 << 20

func ownerFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
	}
	return userID, ok
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	code := common.HTTPStatusFromError(err)
	if code == http.StatusInternalServerError {
		common.RespondWithError(w, code, common.ErrInternalServer.Error())
		return
	}
	common.RespondWithError(w, code, err.Error())
}
