package paths

import (
	"strings"
	"testing"
)

func TestShortName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		// Valid inputs
		{
			name:  "simple lowercase",
			input: "winter",
			want:  "winter",
		},
		{
			name:  "uppercase to lowercase",
			input: "Winter",
			want:  "winter",
		},
		{
			name:  "with numbers",
			input: "spot2026",
			want:  "spot2026",
		},
		{
			name:  "spaces to hyphens",
			input: "Winter Spot",
			want:  "winter-spot",
		},
		{
			name:  "underscores to hyphens",
			input: "winter_spot",
			want:  "winter-spot",
		},
		{
			name:  "removes invalid characters",
			input: "Winter & Spot!",
			want:  "winter--spot",
		},
		{
			name:  "leading/trailing hyphens removed",
			input: "-winter-",
			want:  "winter",
		},
		{
			name:  "starts with number",
			input: "2026 reel",
			want:  "2026-reel",
		},
		{
			name:  "long names truncated",
			input: strings.Repeat("a", 64),
			want:  strings.Repeat("a", 32),
		},
		{
			name:  "truncation trims trailing hyphen",
			input: strings.Repeat("a", 31) + " b",
			want:  strings.Repeat("a", 31),
		},

		// Invalid inputs
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only special characters",
			input:   "@@@",
			wantErr: true,
		},
		{
			name:    "only hyphens",
			input:   "---",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShortName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ShortName() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("ShortName() unexpected error: %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("ShortName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateShortName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Valid
		{name: "simple lowercase", input: "winter", wantErr: false},
		{name: "with numbers", input: "spot2026", wantErr: false},
		{name: "with hyphens", input: "winter-spot", wantErr: false},
		{name: "single char", input: "a", wantErr: false},
		{name: "max length", input: strings.Repeat("a", 32), wantErr: false},

		// Invalid
		{name: "empty", input: "", wantErr: true},
		{name: "uppercase", input: "Winter", wantErr: true},
		{name: "spaces", input: "winter spot", wantErr: true},
		{name: "starts with hyphen", input: "-winter", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShortName(tt.input)
			if tt.wantErr && err == nil {
				t.Error("ValidateShortName() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateShortName() unexpected error: %v", err)
			}
		})
	}
}

func TestShortNameIdempotent(t *testing.T) {
	inputs := []string{
		"winter",
		"Winter Spot",
		"spot_2026",
		"mix123-ABC",
	}

	for _, input := range inputs {
		first, err := ShortName(input)
		if err != nil {
			continue
		}
		second, err := ShortName(first)
		if err != nil {
			t.Errorf("second pass failed for %q: %v", first, err)
			continue
		}
		if first != second {
			t.Errorf("not idempotent: %q -> %q -> %q", input, first, second)
		}
		if err := ValidateShortName(first); err != nil {
			t.Errorf("derived short name %q failed validation: %v", first, err)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "shot path",
			input: "seq010/sh0010/comp",
			want:  []string{"seq010", "sh0010", "comp"},
		},
		{
			name:  "single segment",
			input: "seq010",
			want:  []string{"seq010"},
		},
		{
			name:  "leading and trailing slashes",
			input: "/seq010/sh0010/",
			want:  []string{"seq010", "sh0010"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "just slashes",
			input: "///",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPath(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitPath() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitPath() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("seq010", "sh0010", "comp"); got != "seq010/sh0010/comp" {
		t.Errorf("JoinPath() = %q", got)
	}
	if got := JoinPath("seq010"); got != "seq010" {
		t.Errorf("JoinPath() = %q", got)
	}
	if got := JoinPath(); got != "" {
		t.Errorf("JoinPath() = %q", got)
	}
}
