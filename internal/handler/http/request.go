package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
	"github.com/lorenzboss/m306-rate-mate/pkg/httputil"
	"github.com/lorenzboss/m306-rate-mate/pkg/middleware"
	"github.com/lorenzboss/m306-rate-mate/pkg/validator"
)

const maxBodyBytes = 1 << 20

// callerFrom returns the authenticated caller of r, or nil.
func callerFrom(r *http.Request) *domain.Caller {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		return nil
	}
	return &domain.Caller{UserID: c.UserID, Email: c.Email, Role: domain.Role(c.Role)}
}

// decodeBody reads a JSON body into dst and validates it. On failure the
// response has been written and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, apperrors.CodeInvalidInput, "invalid request body")
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteError(w, r, err, logger)
		return false
	}
	return true
}

// optionalUserID reads the user_id query parameter. An absent value yields "".
func optionalUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if raw == "" {
		return "", true
	}
	id, ok := httputil.ParseUUID(w, raw)
	if !ok {
		return "", false
	}
	return id.String(), true
}

// requireJSON rejects bodies that are not declared as JSON.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
