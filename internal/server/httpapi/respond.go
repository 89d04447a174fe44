package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rentshield/rewards/internal/errs"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// respondErr maps service errors onto HTTP statuses. Conflicts are definite
// "no" answers and get specific messages; anything unrecognized is treated as
// an infrastructure fault and gets a generic retry message with no detail.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, errs.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
	case errors.Is(err, errs.ErrNotEligible):
		writeError(w, http.StatusForbidden, "not available to you")
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrAlreadyVerified):
		writeError(w, http.StatusConflict, "task already verified (concurrent request)")
	case errors.Is(err, errs.ErrInvalidState):
		writeError(w, http.StatusConflict, "operation not allowed in the current state")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	default:
		writeError(w, http.StatusServiceUnavailable, "temporary problem, please try again")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
