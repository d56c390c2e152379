// Package track is a client for the tracking server's batch API and
// event hub. A Session queries entities immediately and stages creates
// and updates until Commit flushes them in a single batch, mirroring
// the server's own transaction boundary.
package track

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds credentials and staged operations for one tracking
// server. Query methods hit the server immediately; Create and Update
// stage operations that Commit sends as one batch.
type Session struct {
	baseURL string
	apiUser string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger

	mu      sync.Mutex
	pending []operation
}

type operation struct {
	payload map[string]interface{}
	entity  Entity
}

// NewSession creates a session for the server at baseURL, authenticated
// with the given API user and key.
func NewSession(baseURL, apiUser, apiKey string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		baseURL: baseURL,
		apiUser: apiUser,
		apiKey:  apiKey,
		logger:  logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}
}

// BaseURL returns the server address the session talks to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Query runs an expression like `Shot where parent.id is "..."` and
// returns every matching entity.
func (s *Session) Query(ctx context.Context, expr string) ([]Entity, error) {
	results, err := s.call(ctx, []map[string]interface{}{
		{"action": "query", "expression": expr},
	})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("expected 1 query result, got %d", len(results))
	}
	return Entity(results[0]).Entities("data"), nil
}

// QueryOne runs a query and returns the first match, or nil when the
// query matched nothing.
func (s *Session) QueryOne(ctx context.Context, expr string) (Entity, error) {
	entities, err := s.Query(ctx, expr)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// Get fetches a single entity by type and id, or nil when it does not
// exist.
func (s *Session) Get(ctx context.Context, kind, id string) (Entity, error) {
	return s.QueryOne(ctx, fmt.Sprintf("%s where id is %q", kind, id))
}

// Create stages a new entity of the given kind. The id is assigned
// client-side so the entity can be referenced as a parent before
// Commit. The returned Entity is updated in place with server state
// once the batch commits.
func (s *Session) Create(kind string, attrs map[string]interface{}) Entity {
	ent := Entity{"__entity_type__": kind}
	for k, v := range attrs {
		ent[k] = v
	}
	if ent.ID() == "" {
		ent["id"] = uuid.New().String()
	}

	data := make(map[string]interface{}, len(ent))
	for k, v := range ent {
		if k == "__entity_type__" {
			continue
		}
		data[k] = v
	}

	s.mu.Lock()
	s.pending = append(s.pending, operation{
		payload: map[string]interface{}{
			"action":      "create",
			"entity_type": kind,
			"entity_data": data,
		},
		entity: ent,
	})
	s.mu.Unlock()
	return ent
}

// Update stages a single-attribute change on an existing entity.
func (s *Session) Update(ent Entity, key string, value interface{}) {
	ent[key] = value
	s.mu.Lock()
	s.pending = append(s.pending, operation{
		payload: map[string]interface{}{
			"action":      "update",
			"entity_type": ent.Type(),
			"entity_id":   ent.ID(),
			"entity_data": map[string]interface{}{key: value},
		},
		entity: ent,
	})
	s.mu.Unlock()
}

// Pending reports how many operations are staged.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Commit sends every staged operation as one batch. On success the
// staged entities are refreshed with the server's committed state and
// the stage is cleared. On failure the stage is left intact so the
// caller can Rollback.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	ops := s.pending
	s.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	payloads := make([]map[string]interface{}, len(ops))
	for i, op := range ops {
		payloads[i] = op.payload
	}

	results, err := s.call(ctx, payloads)
	if err != nil {
		return err
	}

	for i, op := range ops {
		if i >= len(results) {
			break
		}
		if data := Entity(results[i]).Map("data"); data != nil {
			for k, v := range data {
				op.entity[k] = v
			}
		}
	}

	s.logger.Debug("committed batch", "server", s.baseURL, "operations", len(ops))

	// Only the sent prefix is cleared; operations staged by another
	// goroutine while the call was in flight stay for the next commit.
	s.mu.Lock()
	if len(ops) <= len(s.pending) {
		s.pending = s.pending[len(ops):]
	} else {
		s.pending = nil
	}
	s.mu.Unlock()
	return nil
}

// Rollback discards every staged operation.
func (s *Session) Rollback() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// ServerInformation fetches the server's version and identity block,
// which doubles as a connectivity check.
func (s *Session) ServerInformation(ctx context.Context) (map[string]interface{}, error) {
	results, err := s.call(ctx, []map[string]interface{}{
		{"action": "query_server_information"},
	})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("expected 1 result, got %d", len(results))
	}
	return results[0], nil
}

// call posts a batch of operations to the API endpoint and returns the
// per-operation results. A JSON object response carrying an exception
// is decoded into a *ServerError.
func (s *Session) call(ctx context.Context, ops []map[string]interface{}) ([]map[string]interface{}, error) {
	body, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request batch: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/api", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to tracking server failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read server response: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode server response (status %d): %w", resp.StatusCode, err)
	}

	if obj, ok := generic.(map[string]interface{}); ok {
		if exc, ok := obj["exception"].(string); ok {
			se := &ServerError{
				Class:     classify(exc),
				Exception: exc,
				Code:      resp.StatusCode,
			}
			if msg, ok := obj["content"].(string); ok {
				se.Message = msg
			}
			return nil, se
		}
		return nil, fmt.Errorf("unexpected server response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracking server returned status %d", resp.StatusCode)
	}

	arr, ok := generic.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected server response shape")
	}
	results := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			results = append(results, m)
		} else {
			results = append(results, nil)
		}
	}
	return results, nil
}

// newRequest builds an authenticated request against the session's
// server.
func (s *Session) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Api-User", s.apiUser)
	req.Header.Set("X-Api-Key", s.apiKey)
	return req, nil
}
