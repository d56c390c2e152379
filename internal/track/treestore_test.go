package track

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fathomvfx/showsync/internal/clone"
	"github.com/fathomvfx/showsync/internal/domain"
)

func TestTreeStore_Children(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]interface{}{
			map[string]interface{}{
				"action": "query",
				"data": []interface{}{
					map[string]interface{}{
						"__entity_type__": "Shot",
						"id":              "s1",
						"name":            "sh0010",
						"sort":            1.0,
						"frame_start":     float64(1001),
						"frame_end":       float64(1096),
						"custom_attributes": map[string]interface{}{
							"handles": 12.0,
						},
					},
					map[string]interface{}{
						"__entity_type__": "Shot",
						"id":              "s2",
						"name":            "sh0020",
					},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)

	ts := NewTreeStore(NewSession(srv.URL, "bot", "secret", nil))
	nodes, err := ts.Children(context.Background(), &clone.Node{ID: "seq-1", Kind: domain.KindSequence, Name: "seq010"})
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}

	first := nodes[0]
	if first.Kind != domain.KindShot || first.Name != "sh0010" {
		t.Errorf("unexpected node: %+v", first)
	}
	if first.Position == nil || *first.Position != 1.0 {
		t.Errorf("expected position 1.0, got %v", first.Position)
	}
	if first.FrameStart == nil || *first.FrameStart != 1001 {
		t.Errorf("expected frame_start 1001, got %v", first.FrameStart)
	}
	if first.Custom["handles"] != 12.0 {
		t.Errorf("expected custom attributes, got %v", first.Custom)
	}
	if nodes[1].Position != nil {
		t.Errorf("missing sort should map to nil position, got %v", nodes[1].Position)
	}
}

func TestTreeStore_CreateTranslatesRejections(t *testing.T) {
	tests := []struct {
		name      string
		exception string
		wantClass clone.ErrorClass
	}{
		{"duplicate", "DuplicateEntryError", clone.ClassDuplicate},
		{"validation", "ValidationError", clone.ClassValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"exception": tt.exception,
					"content":   "rejected",
				})
			}))
			t.Cleanup(srv.Close)

			ts := NewTreeStore(NewSession(srv.URL, "bot", "secret", nil))
			_, err := ts.Create(context.Background(), "p1", clone.CreateSpec{
				Kind: domain.KindSequence,
				Name: "seq010",
			})

			var ce *clone.CreateError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *clone.CreateError, got %v", err)
			}
			if ce.Class != tt.wantClass {
				t.Errorf("expected class %q, got %q", tt.wantClass, ce.Class)
			}
			if ts.Session().Pending() != 0 {
				t.Error("rejected create should leave no staged state")
			}
		})
	}
}

func TestTreeStore_CreateSuccess(t *testing.T) {
	var sent map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ops []map[string]interface{}
		json.NewDecoder(r.Body).Decode(&ops)
		sent = ops[0]
		data := sent["entity_data"].(map[string]interface{})
		data["custom_attributes"] = map[string]interface{}{"handles": nil}
		json.NewEncoder(w).Encode([]interface{}{
			map[string]interface{}{"action": "create", "data": data},
		})
	}))
	t.Cleanup(srv.Close)

	pos := 3.0
	ts := NewTreeStore(NewSession(srv.URL, "bot", "secret", nil))
	node, err := ts.Create(context.Background(), "p1", clone.CreateSpec{
		Kind:     domain.KindSequence,
		Name:     "seq010",
		TypeID:   "type-seq",
		Position: &pos,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if node.ID == "" || node.Name != "seq010" {
		t.Errorf("unexpected created node: %+v", node)
	}
	if _, ok := node.Custom["handles"]; !ok {
		t.Error("expected schema attribute keys on the created node")
	}

	data := sent["entity_data"].(map[string]interface{})
	if data["parent_id"] != "p1" || data["object_type_id"] != "type-seq" || data["sort"] != 3.0 {
		t.Errorf("unexpected create payload: %v", data)
	}
}

func TestTreeStore_FatalFaultPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"exception": "ServerError",
			"content":   "database unavailable",
		})
	}))
	t.Cleanup(srv.Close)

	ts := NewTreeStore(NewSession(srv.URL, "bot", "secret", nil))
	_, err := ts.Create(context.Background(), "p1", clone.CreateSpec{Kind: domain.KindFolder, Name: "assets"})

	var ce *clone.CreateError
	if errors.As(err, &ce) {
		t.Fatalf("server fault must not be recoverable, got %v", err)
	}
	var se *ServerError
	if !errors.As(err, &se) || se.Class != ClassFault {
		t.Errorf("expected fault server error, got %v", err)
	}
}
