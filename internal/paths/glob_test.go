package paths

import "testing"

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{
			name:    "exact match",
			pattern: "seq010",
			path:    "seq010",
			want:    true,
		},
		{
			name:    "no match",
			pattern: "seq010",
			path:    "seq020",
			want:    false,
		},
		{
			name:    "star prefix",
			pattern: "seq*",
			path:    "seq010",
			want:    true,
		},
		{
			name:    "star no match",
			pattern: "seq*",
			path:    "assets",
			want:    false,
		},
		{
			name:    "question mark",
			pattern: "sh001?",
			path:    "sh0010",
			want:    true,
		},
		{
			name:    "question mark no match",
			pattern: "sh001?",
			path:    "sh00100",
			want:    false,
		},
		{
			name:    "segment match",
			pattern: "seq010/sh0010",
			path:    "seq010/sh0010",
			want:    true,
		},
		{
			name:    "segment no match",
			pattern: "seq010/sh0010",
			path:    "seq010/sh0020",
			want:    false,
		},
		{
			name:    "double star matches any depth",
			pattern: "**/comp",
			path:    "seq010/sh0010/comp",
			want:    true,
		},
		{
			name:    "double star at end",
			pattern: "seq010/**",
			path:    "seq010/sh0010/comp",
			want:    true,
		},
		{
			name:    "double star in middle",
			pattern: "seq010/**/comp",
			path:    "seq010/sh0010/comp",
			want:    true,
		},
		{
			name:    "double star matches zero segments",
			pattern: "seq010/**/comp",
			path:    "seq010/comp",
			want:    true,
		},
		{
			name:    "double star no match",
			pattern: "seq010/**/comp",
			path:    "seq010/sh0010/edit",
			want:    false,
		},
		{
			name:    "double star with wildcards",
			pattern: "seq010/**/sh*",
			path:    "seq010/a/b/sh0010",
			want:    true,
		},
		{
			name:    "empty pattern and path",
			pattern: "",
			path:    "",
			want:    true,
		},
		{
			name:    "just double star matches everything",
			pattern: "**",
			path:    "seq010/sh0010",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchGlob(tt.pattern, tt.path)
			if got != tt.want {
				t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestIsGlobPattern(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"seq*", true},
		{"sh001?", true},
		{"sh[12]", true},
		{"**/comp", true},
		{"seq010/sh0010", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsGlobPattern(tt.input); got != tt.want {
			t.Errorf("IsGlobPattern(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
