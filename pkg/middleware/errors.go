package middleware

import (
	"net/http"

	"github.com/lorenzboss/m306-rate-mate/pkg/httputil"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	httputil.WriteJSON(w, status, httputil.Response{
		Error: &httputil.ErrorResponse{Code: code, Message: message},
	})
}
