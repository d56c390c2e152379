package track

import (
	"context"
	"errors"
	"fmt"

	"github.com/fathomvfx/showsync/internal/clone"
	"github.com/fathomvfx/showsync/internal/domain"
)

// TreeStore adapts a Session to clone.Store: structure reads become
// queries and each node create is staged and committed as its own
// batch, so a rejection rolls back cleanly without touching the nodes
// already committed.
type TreeStore struct {
	session *Session
}

// NewTreeStore wraps a session for tree access.
func NewTreeStore(session *Session) *TreeStore {
	return &TreeStore{session: session}
}

// Session returns the underlying session.
func (t *TreeStore) Session() *Session {
	return t.session
}

// ProjectNode fetches a project as a tree root.
func (t *TreeStore) ProjectNode(ctx context.Context, projectID string) (*clone.Node, error) {
	ent, err := t.session.Get(ctx, "Project", projectID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	return nodeFromEntity(ent), nil
}

// Children returns the direct children of a structure node.
func (t *TreeStore) Children(ctx context.Context, node *clone.Node) ([]*clone.Node, error) {
	entities, err := t.session.Query(ctx, fmt.Sprintf(
		"select id, name, description, object_type_id, sort, frame_start, frame_end, custom_attributes "+
			"from Context where parent_id is %q", node.ID))
	if err != nil {
		return nil, err
	}
	nodes := make([]*clone.Node, len(entities))
	for i, ent := range entities {
		nodes[i] = nodeFromEntity(ent)
	}
	return nodes, nil
}

// Create stages the node, commits it and translates server rejections
// into the cloner's recoverable error classes. On rejection the staged
// state is discarded.
func (t *TreeStore) Create(ctx context.Context, parentID string, spec clone.CreateSpec) (*clone.Node, error) {
	attrs := map[string]interface{}{
		"name":      spec.Name,
		"parent_id": parentID,
	}
	if spec.Description != "" {
		attrs["description"] = spec.Description
	}
	if spec.TypeID != "" {
		attrs["object_type_id"] = spec.TypeID
	}
	if spec.Position != nil {
		attrs["sort"] = *spec.Position
	}
	if spec.FrameStart != nil {
		attrs["frame_start"] = *spec.FrameStart
	}
	if spec.FrameEnd != nil {
		attrs["frame_end"] = *spec.FrameEnd
	}

	ent := t.session.Create(string(spec.Kind), attrs)
	if err := t.session.Commit(ctx); err != nil {
		t.session.Rollback()
		var se *ServerError
		if errors.As(err, &se) {
			switch se.Class {
			case ClassDuplicate:
				return nil, &clone.CreateError{Class: clone.ClassDuplicate, Reason: se.Message}
			case ClassValidation:
				return nil, &clone.CreateError{Class: clone.ClassValidation, Reason: se.Message}
			}
		}
		return nil, err
	}
	return nodeFromEntity(ent), nil
}

// SetCustomAttributes writes attribute values on an existing node.
func (t *TreeStore) SetCustomAttributes(ctx context.Context, nodeID string, values map[string]interface{}) error {
	ent := Entity{"__entity_type__": "Context", "id": nodeID}
	t.session.Update(ent, "custom_attributes", values)
	if err := t.session.Commit(ctx); err != nil {
		t.session.Rollback()
		return err
	}
	return nil
}

// nodeFromEntity maps a server entity onto a tree node. Ordering uses
// sort when present, falling back to position.
func nodeFromEntity(ent Entity) *clone.Node {
	position := ent.Float("sort")
	if position == nil {
		position = ent.Float("position")
	}
	return &clone.Node{
		ID:          ent.ID(),
		Kind:        domain.Kind(ent.Type()),
		Name:        ent.Name(),
		Description: ent.String("description"),
		TypeID:      ent.String("object_type_id"),
		Position:    position,
		FrameStart:  ent.Int("frame_start"),
		FrameEnd:    ent.Int("frame_end"),
		Custom:      ent.Map("custom_attributes"),
	}
}
