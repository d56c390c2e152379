package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// CreateCall records one entity create received by a FakeTrack.
type CreateCall struct {
	EntityType string
	Data       map[string]interface{}
}

// FakeTrack is an in-memory tracking API endpoint for tests. Queries
// are answered from a canned expression table; creates and updates are
// recorded and echoed back.
type FakeTrack struct {
	Server *httptest.Server

	mu      sync.Mutex
	queries map[string][]map[string]interface{}
	creates []CreateCall
	updates []map[string]interface{}

	// FailCreates maps an entity type to the exception name the fake
	// raises for creates of that type.
	FailCreates map[string]string
}

// NewFakeTrack starts a fake tracking server, stopped on test cleanup.
func NewFakeTrack(t *testing.T) *FakeTrack {
	t.Helper()
	f := &FakeTrack{
		queries:     make(map[string][]map[string]interface{}),
		FailCreates: make(map[string]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake server's base address.
func (f *FakeTrack) URL() string {
	return f.Server.URL
}

// Stub answers the exact query expression with the given entities.
func (f *FakeTrack) Stub(expression string, entities ...map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entities == nil {
		entities = []map[string]interface{}{}
	}
	f.queries[expression] = entities
}

// Creates returns the creates received so far.
func (f *FakeTrack) Creates() []CreateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CreateCall(nil), f.creates...)
}

// Updates returns the update operations received so far.
func (f *FakeTrack) Updates() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.updates...)
}

func (f *FakeTrack) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api" {
		http.NotFound(w, r)
		return
	}

	var ops []map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	results := make([]interface{}, 0, len(ops))
	for _, op := range ops {
		switch op["action"] {
		case "query":
			expr, _ := op["expression"].(string)
			entities := f.queries[expr]
			data := make([]interface{}, len(entities))
			for i, ent := range entities {
				data[i] = ent
			}
			results = append(results, map[string]interface{}{"action": "query", "data": data})

		case "create":
			entityType, _ := op["entity_type"].(string)
			data, _ := op["entity_data"].(map[string]interface{})
			if exc, ok := f.FailCreates[entityType]; ok {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"exception": exc,
					"content":   "rejected by fake server",
				})
				return
			}
			f.creates = append(f.creates, CreateCall{EntityType: entityType, Data: data})
			results = append(results, map[string]interface{}{"action": "create", "data": data})

		case "update":
			f.updates = append(f.updates, op)
			results = append(results, map[string]interface{}{"action": "update", "data": op["entity_data"]})

		case "query_server_information":
			results = append(results, map[string]interface{}{"version": "fake", "data": nil})

		default:
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"exception": "ServerError",
				"content":   "unknown action",
			})
			return
		}
	}
	json.NewEncoder(w).Encode(results)
}
