// Package httpapi serves census reports on demand.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"herd-census/internal/domain"
)

// CensusComputer is the usecase the router exposes.
type CensusComputer interface {
	ComputeCensus(ctx context.Context, periodStart, periodEnd time.Time, localityScope string) (*domain.CensusReport, error)
}

// Options configures NewRouter. Only Census is required.
type Options struct {
	Census  CensusComputer
	Metrics http.Handler // optional; mounted at /metrics
	Logger  *zap.Logger
}

// NewRouter builds the report routes:
//
//	GET /census?start=YYYY-MM-DD&end=YYYY-MM-DD[&locality=NAME]
//	GET /healthz
//	GET /metrics
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Get("/census", censusHandler(opts.Census, logger))
	return r
}

func censusHandler(census CensusComputer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start, err := time.Parse(time.DateOnly, q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
			return
		}
		end, err := time.Parse(time.DateOnly, q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
			return
		}

		report, err := census.ComputeCensus(r.Context(), start, end, q.Get("locality"))
		if err != nil {
			status := statusFor(err)
			logger.Warn("census request failed",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.Int("status", status),
				zap.Error(err),
			)
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCollaboratorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
