package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/vesta/pkg/audit"
	"mercator-hq/vesta/pkg/rbac"
	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/store/manager"
	"mercator-hq/vesta/pkg/telemetry/logging"
)

// entryPayload is the wire shape of a configuration entry. Value is carried
// as a string because the manager returns decrypted plaintext to authorized
// readers.
type entryPayload struct {
	ID          string            `json:"id"`
	Namespace   string            `json:"namespace"`
	Key         string            `json:"key"`
	Environment store.Environment `json:"environment"`
	Value       string            `json:"value"`
	Secret      bool              `json:"secret"`
	Tombstone   bool              `json:"tombstone,omitempty"`
	Version     uint64            `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	CreatedBy   string            `json:"created_by"`
	Tags        []string          `json:"tags,omitempty"`
	Description string            `json:"description,omitempty"`
}

func toEntryPayload(entry *store.ConfigEntry) entryPayload {
	return entryPayload{
		ID:          entry.ID,
		Namespace:   entry.Namespace,
		Key:         entry.Key,
		Environment: entry.Environment,
		Value:       string(entry.Value),
		Secret:      entry.Secret,
		Tombstone:   entry.Tombstone,
		Version:     entry.Version,
		CreatedAt:   entry.Metadata.CreatedAt,
		CreatedBy:   entry.Metadata.CreatedBy,
		Tags:        entry.Metadata.Tags,
		Description: entry.Metadata.Description,
	}
}

func toEntryPayloads(entries []*store.ConfigEntry) []entryPayload {
	payloads := make([]entryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, toEntryPayload(entry))
	}
	return payloads
}

type setRequest struct {
	Value       string   `json:"value"`
	Environment string   `json:"environment,omitempty"`
	Secret      bool     `json:"secret,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func setOptionsFrom(req *setRequest) manager.SetOptions {
	return manager.SetOptions{
		Secret:      req.Secret,
		Description: req.Description,
		Tags:        req.Tags,
	}
}

func environmentParam(r *http.Request) (store.Environment, error) {
	return store.ParseEnvironment(r.URL.Query().Get("environment"))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	env, err := environmentParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := logging.Actor(r.Context())

	entry, err := s.manager.Get(r.Context(), r.PathValue("namespace"), r.PathValue("key"), env, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryPayload(entry))
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.writeError(w, r, err)
			return
		}
		writeBadRequest(w, "invalid request body")
		return
	}
	env, err := store.ParseEnvironment(req.Environment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := logging.Actor(r.Context())

	entry, err := s.manager.Set(r.Context(), r.PathValue("namespace"), r.PathValue("key"), env,
		[]byte(req.Value), setOptionsFrom(&req), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryPayload(entry))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	env, err := environmentParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := logging.Actor(r.Context())

	deleted, err := s.manager.Delete(r.Context(), r.PathValue("namespace"), r.PathValue("key"), env, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	env, err := environmentParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := logging.Actor(r.Context())

	entries, err := s.manager.List(r.Context(), r.PathValue("namespace"), env, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryPayloads(entries)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	env, err := environmentParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := logging.Actor(r.Context())

	entries, err := s.manager.History(r.Context(), r.PathValue("namespace"), r.PathValue("key"), env, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": toEntryPayloads(entries)})
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	env, err := environmentParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	version, err := strconv.ParseUint(r.PathValue("version"), 10, 64)
	if err != nil || version == 0 {
		writeBadRequest(w, "version must be a positive integer")
		return
	}
	actor := logging.Actor(r.Context())

	entry, err := s.manager.Rollback(r.Context(), r.PathValue("namespace"), r.PathValue("key"), env, version, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryPayload(entry))
}

// handleAuditEvents serves the audit trail. Access requires the Admin or
// Auditor role; plain read permission on configuration data does not grant
// trail access.
func (s *Server) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	if s.auditSink == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	actor := logging.Actor(r.Context())
	if !s.canReadAudit(actor) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "permission denied"})
		return
	}

	query, err := auditQueryFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events, err := s.auditSink.Query(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) canReadAudit(actor string) bool {
	if s.enforcer == nil {
		return true
	}
	for _, assignment := range s.enforcer.Assignments() {
		if assignment.Actor != actor {
			continue
		}
		if assignment.Role == rbac.RoleAdmin || assignment.Role == rbac.RoleAuditor {
			return true
		}
	}
	return false
}

func auditQueryFrom(r *http.Request) (*audit.Query, error) {
	params := r.URL.Query()
	query := &audit.Query{
		Actor:     params.Get("actor"),
		Namespace: params.Get("namespace"),
		Limit:     100,
	}
	if raw := params.Get("type"); raw != "" {
		query.Types = []audit.EventType{audit.EventType(raw)}
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, store.NewValidationError("limit", "must be a non-negative integer")
		}
		query.Limit = limit
	}
	if raw := params.Get("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, store.NewValidationError("start", "must be an RFC 3339 timestamp")
		}
		query.Start = &start
	}
	if raw := params.Get("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, store.NewValidationError("end", "must be an RFC 3339 timestamp")
		}
		query.End = &end
	}
	return query, nil
}
