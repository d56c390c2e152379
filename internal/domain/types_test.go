package domain

import (
	"reflect"
	"testing"
)

func TestKind_IsLeaf(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want bool
	}{
		{name: "task", kind: KindTask, want: true},
		{name: "milestone", kind: KindMilestone, want: true},
		{name: "project", kind: KindProject, want: false},
		{name: "folder", kind: KindFolder, want: false},
		{name: "sequence", kind: KindSequence, want: false},
		{name: "shot", kind: KindShot, want: false},
		{name: "custom kind", kind: Kind("Episode"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsLeaf(); got != tt.want {
				t.Errorf("IsLeaf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent_PayloadMap(t *testing.T) {
	tests := []struct {
		name    string
		payload *string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:    "nil payload",
			payload: nil,
			want:    map[string]interface{}{},
		},
		{
			name:    "empty string",
			payload: stringPtr(""),
			want:    map[string]interface{}{},
		},
		{
			name:    "object payload",
			payload: stringPtr(`{"note_id":"abc","server":"partner"}`),
			want:    map[string]interface{}{"note_id": "abc", "server": "partner"},
		},
		{
			name:    "invalid JSON",
			payload: stringPtr(`not-json`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Payload: tt.payload}
			got, err := e.PayloadMap()
			if tt.wantErr {
				if err == nil {
					t.Error("PayloadMap() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("PayloadMap() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PayloadMap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func stringPtr(s string) *string {
	return &s
}
