package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// RequireContentType rejects POST bodies whose media type is not one of allowed.
// JSON routes pass "application/json"; the upload route passes "multipart/form-data".
func RequireContentType(log *slog.Logger, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			// Bodyless POSTs such as submit and approve
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err == nil {
				for _, a := range allowed {
					if mediaType == a {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			log.Warn("invalid content type",
				slog.String("content_type", contentType),
				slog.String("method", r.Method),
			)
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be "+strings.Join(allowed, " or "))
		})
	}
}

// SanitizeInputs rejects query parameters carrying markup characters and
// paths with traversal sequences.
func SanitizeInputs(log *slog.Logger) func(http.Handler) http.Handler {
	dangerousChars := []string{"<", ">", "\"", "'"}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, values := range r.URL.Query() {
				for _, val := range values {
					for _, char := range dangerousChars {
						if strings.Contains(val, char) {
							log.Warn("suspicious input detected",
								slog.String("param", key),
								slog.String("pattern", char),
							)
							writeJSONError(w, http.StatusBadRequest, "invalid input: dangerous characters detected")
							return
						}
					}
				}
			}

			if strings.Contains(r.URL.Path, "..") || strings.Contains(r.URL.Path, "//") {
				log.Warn("suspicious path pattern detected")
				writeJSONError(w, http.StatusBadRequest, "invalid path")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
