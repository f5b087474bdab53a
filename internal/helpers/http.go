package helpers

import (
	"net/http"
	"strings"

	"github.com/SirCryptic/iv-proxy/internal/models"
)

// RespondHTTP writes response to rw verbatim. A zero status code is written as 200 OK.
func RespondHTTP(response models.Response, rw http.ResponseWriter) {
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.WriteHeader(statusCode)
	_, _ = rw.Write([]byte(response.Body))
}

// LowerHeaders flattens h into a map keyed by lower-case header names, keeping the first value.
func LowerHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}
	return headers
}
