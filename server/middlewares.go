package server

import (
	"context"
	"net/http"
	"time"

	"github.com/panic-app/panic-server/colors"
	"github.com/panic-app/panic-server/server/session"
)

type RequestContextKey string

const currentSessionKey = RequestContextKey("currentSession")

type ResponseWriterWithStatus struct {
	http.ResponseWriter
	Status int
}

func (r *ResponseWriterWithStatus) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		responseWriter := &ResponseWriterWithStatus{
			ResponseWriter: w,
			Status:         200,
		}

		defer func() {
			responseStatus := colors.Green(responseWriter.Status)
			if responseWriter.Status >= 400 {
				responseStatus = colors.Red(responseWriter.Status)
			}

			logg.Infof("%v %v %v %v",
				r.Method,
				r.RequestURI,
				responseStatus,
				colors.Yellow("[", time.Since(start), "]"))
		}()

		next.ServeHTTP(responseWriter, r)
	})
}

func initialContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware gates routes that require an authenticated user;
// it threads the session identity through the request context for
// downstream handlers.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, ok := sessionStore.CurrentSession(r)
		if !ok {
			sendResponse(w, http.StatusUnauthorized, "Invalid session")
			return
		}

		ctx := context.WithValue(r.Context(), currentSessionKey, current)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentSession returns the identity attached by sessionMiddleware.
func currentSession(r *http.Request) session.Current {
	current, _ := r.Context().Value(currentSessionKey).(session.Current)
	return current
}
