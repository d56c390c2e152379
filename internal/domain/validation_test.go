package domain

import (
	"testing"
	"time"
)

func TestValidateKind(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{name: "project", kind: "Project", wantErr: false},
		{name: "shot", kind: "Shot", wantErr: false},
		{name: "custom schema kind", kind: "Episode", wantErr: false},
		{name: "empty", kind: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKind(tt.kind)
			if tt.wantErr && err == nil {
				t.Error("ValidateKind() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateKind() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRunStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr bool
	}{
		{name: "running", status: "running", wantErr: false},
		{name: "completed", status: "completed", wantErr: false},
		{name: "failed", status: "failed", wantErr: false},
		{name: "invalid", status: "done", wantErr: true},
		{name: "empty", status: "", wantErr: true},
		{name: "uppercase", status: "RUNNING", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunStatus(tt.status)
			if tt.wantErr && err == nil {
				t.Error("ValidateRunStatus() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateRunStatus() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateResourceType(t *testing.T) {
	for _, valid := range []string{"task", "note", "version", "project", "job", "run", "system"} {
		if err := ValidateResourceType(valid); err != nil {
			t.Errorf("ValidateResourceType(%q) unexpected error: %v", valid, err)
		}
	}
	if err := ValidateResourceType("container"); err == nil {
		t.Error("ValidateResourceType() expected error for unknown type, got nil")
	}
}

func TestValidateTimestamp(t *testing.T) {
	got, err := ValidateTimestamp("2026-03-14T10:30:00Z")
	if err != nil {
		t.Fatalf("ValidateTimestamp() unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ValidateTimestamp() = %v, want %v", got, want)
	}

	if _, err := ValidateTimestamp("2026-03-14"); err == nil {
		t.Error("ValidateTimestamp() expected error for date-only input")
	}
}

func TestValidateDate(t *testing.T) {
	got, err := ValidateDate("2026-03-14")
	if err != nil {
		t.Fatalf("ValidateDate() unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ValidateDate() = %v, want %v", got, want)
	}

	if _, err := ValidateDate("14/03/2026"); err == nil {
		t.Error("ValidateDate() expected error for slash-format input")
	}
}
