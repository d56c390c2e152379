package cli

import (
	"context"
	"testing"

	"github.com/fathomvfx/showsync/internal/domain"
	"github.com/fathomvfx/showsync/internal/testutil"
	"github.com/fathomvfx/showsync/internal/track"
)

func TestMatchRecords(t *testing.T) {
	records := []domain.CloneRecord{
		{Path: "seq010/sh0010", Kind: "Shot"},
		{Path: "seq010/sh0020", Kind: "Shot"},
		{Path: "assets/vehicles", Kind: "Folder"},
	}

	cases := []struct {
		pattern string
		want    int
	}{
		{"seq010/*", 2},
		{"**/sh0010", 1},
		{"assets/**", 1},
		{"editorial/*", 0},
	}
	for _, tc := range cases {
		got := matchRecords(records, tc.pattern)
		if len(got) != tc.want {
			t.Errorf("matchRecords(%q): expected %d records, got %v", tc.pattern, tc.want, got)
		}
	}
}

func TestOutlineProject(t *testing.T) {
	fake := testutil.NewFakeTrack(t)
	fake.Stub(`Project where id is "p1"`, map[string]interface{}{
		"__entity_type__": "Project",
		"id":              "p1",
		"name":            "tmpl",
	})
	fake.Stub(
		`select id, name, description, object_type_id, sort, frame_start, frame_end, custom_attributes from Context where parent_id is "p1"`,
		map[string]interface{}{
			"__entity_type__": "Sequence",
			"id":              "seq-1",
			"name":            "seq010",
		},
	)

	session := track.NewSession(fake.URL(), "bot", "secret", nil)
	lines, err := outlineProject(context.Background(), track.NewTreeStore(session), "p1")
	if err != nil {
		t.Fatalf("outlineProject failed: %v", err)
	}
	if len(lines) != 1 || lines[0] != "seq010 [Sequence]" {
		t.Errorf("unexpected outline: %v", lines)
	}
}

func TestOutlineProject_Missing(t *testing.T) {
	fake := testutil.NewFakeTrack(t)
	session := track.NewSession(fake.URL(), "bot", "secret", nil)

	if _, err := outlineProject(context.Background(), track.NewTreeStore(session), "p9"); err == nil {
		t.Fatal("expected error for missing project")
	}
}
