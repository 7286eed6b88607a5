// Package statshttp serves tree-building statistics over HTTP and
// provides the matching client. The wire protocol is stateless: every
// request names a dataset and carries the split rules that rebuild the
// node subset, so the server never tracks a caller's tree.
package statshttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/stats"
)

var errBadRequest = errors.New("statshttp: bad request")

// statsRequest is the body of both tree endpoints. Rules replay the
// root-to-node splits; an empty list means the whole dataset.
type statsRequest struct {
	Dataset       string            `json:"dataset"`
	Rules         []stats.SplitRule `json:"rules,omitempty"`
	Feature       int               `json:"feature_index"`
	Threshold     *float64          `json:"threshold,omitempty"`
	Bins          int               `json:"bins,omitempty"`
	MaxThresholds int               `json:"max_thresholds,omitempty"`
	Criterion     string            `json:"criterion,omitempty"`
}

// DatasetInfo describes one loadable dataset.
type DatasetInfo struct {
	Name     string   `json:"name"`
	Samples  int      `json:"samples"`
	Features []string `json:"features"`
	Classes  []string `json:"classes"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Service computes statistics for named datasets from a registry.
// Loaded datasets are cached for the lifetime of the service.
type Service struct {
	reg    *dataset.Registry
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*dataset.Dataset
}

func NewService(reg *dataset.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		reg:    reg,
		logger: logger,
		cache:  make(map[string]*dataset.Dataset),
	}
}

// RegisterHTTP mounts the service endpoints on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/api/datasets", s.handleDatasets)
	r.Post("/api/tree/histogram", s.handleHistogram)
	r.Post("/api/tree/feature-stats", s.handleFeatureStats)
}

// Serve runs the service on addr until ctx is canceled, then shuts the
// listener down gracefully.
func (s *Service) Serve(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)

	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stats service listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("statshttp: shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("stats service stopped")
	return nil
}

func (s *Service) handleDatasets(w http.ResponseWriter, r *http.Request) {
	infos := make([]DatasetInfo, 0)
	for _, name := range s.reg.Names() {
		ds, err := s.dataset(name)
		if err != nil {
			s.logger.Warn("skipping unloadable dataset", "name", name, "error", err)
			continue
		}
		infos = append(infos, DatasetInfo{
			Name:     name,
			Samples:  ds.NumSamples(),
			Features: ds.FeatureNames,
			Classes:  ds.ClassNames,
		})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Service) handleHistogram(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	local, err := s.provider(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := stats.Query{Rules: req.Rules, Feature: req.Feature, Threshold: req.Threshold}
	h, err := local.FetchHistogram(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

func (s *Service) handleFeatureStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	local, err := s.provider(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := stats.Query{Rules: req.Rules, Feature: req.Feature}
	fs, err := local.FeatureStats(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fs)
}

// provider builds a stats computer configured per request.
func (s *Service) provider(req statsRequest) (*stats.Local, error) {
	ds, err := s.dataset(req.Dataset)
	if err != nil {
		return nil, err
	}
	var opts []stats.LocalOption
	if req.Criterion != "" {
		crit, err := mltree.ParseCriterion(req.Criterion)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		opts = append(opts, stats.WithCriterion(crit))
	}
	if req.Bins > 0 {
		opts = append(opts, stats.WithBins(req.Bins))
	}
	if req.MaxThresholds > 0 {
		opts = append(opts, stats.WithMaxThresholds(req.MaxThresholds))
	}
	return stats.NewLocal(ds, opts...), nil
}

func (s *Service) dataset(name string) (*dataset.Dataset, error) {
	if name == "" {
		name = "iris"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds, ok := s.cache[name]; ok {
		return ds, nil
	}
	ds, err := s.reg.Load(name)
	if err != nil {
		return nil, err
	}
	s.cache[name] = ds
	return ds, nil
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dataset.ErrUnknownDataset):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, stats.ErrBadQuery),
		errors.Is(err, stats.ErrNoSplit),
		errors.Is(err, dataset.ErrBadFeature):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}
