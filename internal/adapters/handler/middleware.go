package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// requestID tags the request with an id and attaches a logger carrying it to the context.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			generated, err := uuid.NewV4()
			if err != nil {
				log.Warn().Err(err).Msg("failed to generate request id")
			} else {
				id = generated.String()
			}
		}

		w.Header().Set(requestIDHeader, id)

		l := log.With().
			Str("requestId", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

const unmatchedRoute = "unmatched"

type routeLabelKey struct{}

type routeLabel struct {
	name string
}

// labelRoute runs inside the router and hands the matched path template back to instrument.
func labelRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeLabelKey{}).(*routeLabel); ok {
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					label.name = tpl
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

// instrument wraps the whole router so 404, 405 and preflight responses are counted too.
// Requests no route matched are labelled "unmatched" to keep label cardinality bounded.
func (h *HTTP) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		label := &routeLabel{name: unmatchedRoute}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), routeLabelKey{}, label)))

		elapsed := time.Since(start)
		log.Ctx(r.Context()).Debug().
			Int("status", rec.status).
			Str("route", label.name).
			Dur("elapsed", elapsed).
			Msg("request served")

		if h.metrics != nil {
			h.metrics.ObserveRequest(label.name, rec.status, elapsed)
		}
	})
}
