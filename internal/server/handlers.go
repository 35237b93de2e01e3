package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/conneroisu/livefield/internal/content"
	"github.com/conneroisu/livefield/internal/errors"
	"github.com/conneroisu/livefield/internal/partial"
	"github.com/conneroisu/livefield/internal/version"
)

const (
	maxRequestBytes = 1 << 20
	maxPartials     = 256

	// maxCachedPartials bounds the partial cache between reloads
	maxCachedPartials = 1024
)

// RenderRequest asks for the current HTML of a set of partials.
type RenderRequest struct {
	Partials []string `json:"partials"`
	Listing  []int64  `json:"listing"`
}

// RenderResponse maps each requested partial to its HTML, or false when the
// partial abstains. Partials that could not be built or are not visible to the
// caller appear in Errors instead.
type RenderResponse struct {
	Contents map[string]any    `json:"contents"`
	Errors   map[string]string `json:"errors,omitempty"`
}

func (s *PreviewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Partials) > maxPartials {
		http.Error(w, "Too many partials", http.StatusRequestEntityTooLarge)
		return
	}

	resp := s.renderPartials(r.Context(), s.role(r), req)
	writeJSON(w, http.StatusOK, resp)
}

func (s *PreviewServer) renderPartials(ctx context.Context, role string, req RenderRequest) RenderResponse {
	resp := RenderResponse{
		Contents: make(map[string]any, len(req.Partials)),
		Errors:   make(map[string]string),
	}

	rc := partial.RenderContext{
		Records:   s.store,
		Scope:     content.NewListingScope(req.Listing...),
		Transform: s.pipeline,
	}

	for _, id := range req.Partials {
		p, err := s.partial(id)
		if err != nil {
			s.errHandler.Handle(ctx, err)
			resp.Errors[id] = err.Error()
			continue
		}

		allowed, err := s.authorizer.Authorize(role, p.Capability())
		if err != nil {
			s.errHandler.Handle(ctx, err)
			resp.Errors[id] = "authorization failed"
			continue
		}
		if !allowed {
			forbidden := errors.NewForbiddenError(id, p.Capability()).WithContext("role", role)
			s.errHandler.Handle(ctx, forbidden)
			resp.Errors[id] = forbidden.Message
			continue
		}

		if html, ok := p.Render(ctx, rc); ok {
			resp.Contents[id] = html
		} else {
			resp.Contents[id] = false
		}
	}

	return resp
}

func (s *PreviewServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	p, err := partial.New(id, s.types,
		partial.WithSelector(r.URL.Query().Get("selector")),
		partial.WithDefaultCapability(s.config.Content.DefaultCapability))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, p.Export())
}

// handleHealth returns the server health status for health checks
func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"checks": map[string]interface{}{
			"store":     map[string]interface{}{"status": "healthy", "records": s.store.Count()},
			"types":     map[string]interface{}{"status": "healthy", "count": len(s.types.Types())},
			"websocket": map[string]interface{}{"status": "healthy", "clients": s.ClientCount()},
			"authz":     map[string]interface{}{"status": "healthy", "mode": s.authorizer.Mode()},
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// partial returns the cached partial for id, building it on first use.
// Only partials for stored records are cached. A partial built while Reload
// swapped the cache is returned but not kept.
func (s *PreviewServer) partial(id string) (*partial.FieldPartial, error) {
	s.partialsMutex.RLock()
	p, ok := s.partials[id]
	gen := s.partialsGen
	s.partialsMutex.RUnlock()
	if ok {
		return p, nil
	}

	p, err := partial.New(id, s.types, partial.WithDefaultCapability(s.config.Content.DefaultCapability))
	if err != nil {
		return nil, err
	}

	if _, exists := s.store.LookupRecord(p.ContentType(), p.RecordID()); exists {
		s.cachePartial(p, gen)
	}
	return p, nil
}

// cachePartial stores p unless the cache was reset after generation gen or is full.
func (s *PreviewServer) cachePartial(p *partial.FieldPartial, gen uint64) bool {
	s.partialsMutex.Lock()
	defer s.partialsMutex.Unlock()

	if s.partialsGen != gen || len(s.partials) >= maxCachedPartials {
		return false
	}
	s.partials[p.ID()] = p
	return true
}

func (s *PreviewServer) role(r *http.Request) string {
	if role := r.Header.Get(s.roleHeader()); role != "" {
		return role
	}
	return s.config.Auth.DefaultRole
}

func (s *PreviewServer) roleHeader() string {
	if s.config.Auth.RoleHeader == "" {
		return "X-Preview-Role"
	}
	return s.config.Auth.RoleHeader
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
