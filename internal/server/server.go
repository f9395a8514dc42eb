// Package server exposes the published index snapshot as a small read-only
// JSON API. It serves exactly what the snapshot contains — admissions and
// rollbacks change what is served only through a republish.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/repoforge/repoforge/pkg/cache"
	"github.com/repoforge/repoforge/pkg/depgraph"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/index"
	"github.com/repoforge/repoforge/pkg/pkgspec"
	"github.com/repoforge/repoforge/pkg/repo"
)

// snapshotTTL bounds how stale a cached snapshot may get before the file is
// re-read.
const snapshotTTL = 30 * time.Second

// Server serves the index snapshot.
type Server struct {
	snapshotPath string
	cache        cache.Cache
	keyer        cache.Keyer
	logger       *log.Logger
}

// New creates a server reading the snapshot at snapshotPath.
func New(snapshotPath string, c cache.Cache, logger *log.Logger) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Server{
		snapshotPath: snapshotPath,
		cache:        c,
		keyer:        cache.NewDefaultKeyer(),
		logger:       logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/packages", s.handleListPackages)
	r.Get("/v1/packages/{name}", s.handlePackage)
	r.Get("/v1/packages/{name}/deps", s.handleDeps)

	return r
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("serving index API", "addr", addr, "snapshot", s.snapshotPath)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListPackages returns every package name with its versions.
func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadSnapshot(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handlePackage returns the snapshot entries for one package name.
func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	snap, err := s.loadSnapshot(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var entries []repo.SnapshotEntry
	for _, e := range snap.Packages {
		if e.Name == name {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		s.writeError(w, errors.New(errors.ErrCodePackageNotFound, "unknown package %q", name))
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleDeps returns the dependency sub-graph document for one package.
// ?reverse=1 switches to the dependents closure.
func (s *Server) handleDeps(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	snap, err := s.loadSnapshot(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := snapshotRecords(snap)
	if err != nil {
		s.writeError(w, err)
		return
	}
	idx, err := index.Build(records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if idx.Latest(name) == nil {
		s.writeError(w, errors.New(errors.ErrCodePackageNotFound, "unknown package %q", name))
		return
	}

	latest := make([]*pkgspec.Record, 0, len(idx.Names()))
	for _, n := range idx.Names() {
		latest = append(latest, idx.Latest(n))
	}

	dir := depgraph.Forward
	if r.URL.Query().Get("reverse") == "1" {
		dir = depgraph.Reverse
	}
	doc := depgraph.Build(latest).Render([]string{name}, dir)
	s.writeJSON(w, http.StatusOK, doc)
}

// loadSnapshot returns the cached snapshot, falling back to the file.
func (s *Server) loadSnapshot(r *http.Request) (*repo.Snapshot, error) {
	ctx := r.Context()
	key := s.keyer.SnapshotKey()

	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var snap repo.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
	}

	snap, err := repo.ReadSnapshot(s.snapshotPath)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snap); err == nil {
		if err := s.cache.Set(ctx, key, data, snapshotTTL); err != nil {
			s.logger.Warn("caching snapshot", "err", err)
		}
	}
	return snap, nil
}

// snapshotRecords rebuilds minimal package records from snapshot entries so
// the dependency graph can be computed server-side.
func snapshotRecords(snap *repo.Snapshot) ([]*pkgspec.Record, error) {
	records := make([]*pkgspec.Record, 0, len(snap.Packages))
	for _, e := range snap.Packages {
		version, err := pkgspec.ParseVersion(e.Version)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "snapshot entry %s", e.ID)
		}
		rec := &pkgspec.Record{Name: e.Name, Version: version, Synopsis: e.Synopsis, Category: e.Category}
		for _, dep := range e.Dependencies {
			rec.Dependencies = append(rec.Dependencies, pkgspec.Dependency{Name: dep})
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodePackageNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPackage:
		status = http.StatusBadRequest
	}

	s.writeJSON(w, status, map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": errors.UserMessage(err),
	})
}
