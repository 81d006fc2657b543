package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/logctx"
)

var errBadRequest = errors.New("invalid request")

type errorResponse struct {
	Error string `json:"error"`
}

// writeError is the single place where engine errors become status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authcore.ErrRateLimited):
		if d, ok := authcore.RetryAfterOf(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
		}
		writeJSONError(w, http.StatusTooManyRequests, "too many requests")

	case errors.Is(err, authcore.ErrDependencyUnavailable), errors.Is(err, authcore.ErrEngineNotReady):
		logctx.From(r.Context()).Warn("dependency unavailable", slog.String("err", err.Error()))
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")

	case errors.Is(err, authcore.ErrInvalidCredentials):
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, authcore.ErrAccountDisabled):
		writeJSONError(w, http.StatusForbidden, "account disabled")

	case errors.Is(err, authcore.ErrTokenExpired):
		writeJSONError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, authcore.ErrTokenAlreadyUsed):
		writeJSONError(w, http.StatusUnauthorized, "token already used")
	case errors.Is(err, authcore.ErrTokenRevoked):
		writeJSONError(w, http.StatusUnauthorized, "token revoked")
	case authcore.IsTokenError(err):
		writeJSONError(w, http.StatusUnauthorized, "invalid token")

	case errors.Is(err, authcore.ErrEmailAlreadyExists):
		writeJSONError(w, http.StatusConflict, "email already exists")
	case errors.Is(err, authcore.ErrUserNotFound):
		writeJSONError(w, http.StatusNotFound, "user not found")

	case errors.Is(err, authcore.ErrInvalidEmail),
		errors.Is(err, authcore.ErrWeakPassword),
		errors.Is(err, authcore.ErrAlreadyVerified),
		errors.Is(err, authcore.ErrVerificationInvalid),
		errors.Is(err, authcore.ErrAlreadyDisabled),
		errors.Is(err, authcore.ErrAlreadyEnabled):
		writeJSONError(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, errBadRequest):
		writeJSONError(w, http.StatusBadRequest, err.Error())

	default:
		logctx.From(r.Context()).Error("unhandled error", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// rootMessage returns the sentinel text without wrapping detail.
func rootMessage(err error) string {
	for _, s := range []error{
		authcore.ErrInvalidEmail,
		authcore.ErrWeakPassword,
		authcore.ErrAlreadyVerified,
		authcore.ErrVerificationInvalid,
		authcore.ErrAlreadyDisabled,
		authcore.ErrAlreadyEnabled,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
