// Package clone implements recursive duplication of a project tree:
// walk the source structure parent-before-child and recreate each node
// under a target root, degrading gracefully when the target server
// rejects a node.
package clone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fathomvfx/showsync/internal/domain"
)

// Node is one entity in a project structure tree.
type Node struct {
	ID          string
	Kind        domain.Kind
	Name        string
	Description string
	TypeID      string
	Position    *float64
	FrameStart  *int64
	FrameEnd    *int64
	Custom      map[string]interface{}
}

// CreateSpec describes the node to create under a parent.
type CreateSpec struct {
	Kind        domain.Kind
	Name        string
	Description string
	TypeID      string
	Position    *float64
	FrameStart  *int64
	FrameEnd    *int64
}

// Store is the tree access a Cloner needs. The source and target sides
// may be different servers.
type Store interface {
	// Children returns the direct children of node, in no particular
	// order.
	Children(ctx context.Context, node *Node) ([]*Node, error)

	// Create makes a new child under the parent id. The returned node
	// carries the server-assigned id and, in Custom, the attribute keys
	// the target schema defines for the created kind. Recoverable
	// rejections are returned as *CreateError; anything else is fatal.
	Create(ctx context.Context, parentID string, spec CreateSpec) (*Node, error)

	// SetCustomAttributes writes attribute values on an existing node.
	SetCustomAttributes(ctx context.Context, nodeID string, values map[string]interface{}) error
}

// ErrorClass distinguishes the recoverable create rejections.
type ErrorClass string

const (
	// ClassDuplicate means a sibling with the same identity already
	// exists. The node and its subtree are skipped.
	ClassDuplicate ErrorClass = "duplicate"

	// ClassValidation means the target schema rejected the node as
	// specified. The node is retried once as a plain fallback container.
	ClassValidation ErrorClass = "validation"
)

// CreateError is a recoverable rejection from the target store. Any
// other error returned by Store.Create aborts the clone.
type CreateError struct {
	Class  ErrorClass
	Reason string
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create rejected (%s): %s", e.Class, e.Reason)
}

// Outcome is what happened to one source node during a clone.
type Outcome string

const (
	OutcomeCreated           Outcome = "created"
	OutcomeCreatedAsFallback Outcome = "created_as_fallback"
	OutcomeSkippedDuplicate  Outcome = "skipped_duplicate"
	OutcomeSkippedFailed     Outcome = "skipped_failed"
)

// Result records the outcome for one source node. Path is the
// slash-joined name path below the source root. FallbackKind is set
// only for OutcomeCreatedAsFallback; Reason carries the server's
// rejection message for fallbacks and skips.
type Result struct {
	Path         string
	Kind         domain.Kind
	Outcome      Outcome
	FallbackKind domain.Kind
	Reason       string
}

type cloner struct {
	src     Store
	dst     Store
	logger  *slog.Logger
	results []Result
}

// Clone recreates the structure below sourceRoot under targetRoot.
// Children are visited ordered by position, missing positions sorting
// as zero and ties keeping discovery order. Task and milestone nodes
// are copied but never descended into.
//
// The returned results cover every node visited, in creation order,
// including the nodes copied before a fatal error aborted the walk.
func Clone(ctx context.Context, src, dst Store, sourceRoot, targetRoot *Node, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &cloner{src: src, dst: dst, logger: logger}
	err := c.cloneChildren(ctx, sourceRoot, targetRoot.ID, "")
	return c.results, err
}

func (c *cloner) cloneChildren(ctx context.Context, srcParent *Node, dstParentID, prefix string) error {
	children, err := c.src.Children(ctx, srcParent)
	if err != nil {
		return fmt.Errorf("failed to list children of %q: %w", srcParent.Name, err)
	}
	sortByPosition(children)

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := childPath(prefix, child.Name)
		created, res, err := c.createNode(ctx, dstParentID, child, path)
		if err != nil {
			return err
		}
		c.results = append(c.results, res)
		if created == nil {
			continue
		}

		if err := c.copyCustomAttributes(ctx, child, created, path); err != nil {
			return err
		}

		if child.Kind.IsLeaf() {
			continue
		}
		if err := c.cloneChildren(ctx, child, created.ID, path); err != nil {
			return err
		}
	}
	return nil
}

// createNode attempts the create, falling back to a plain container on
// schema rejection. It returns a nil node when the subtree should be
// skipped, and a non-nil error only for fatal faults.
func (c *cloner) createNode(ctx context.Context, parentID string, child *Node, path string) (*Node, Result, error) {
	created, err := c.dst.Create(ctx, parentID, CreateSpec{
		Kind:        child.Kind,
		Name:        child.Name,
		Description: child.Description,
		TypeID:      child.TypeID,
		Position:    child.Position,
		FrameStart:  child.FrameStart,
		FrameEnd:    child.FrameEnd,
	})
	if err == nil {
		c.logger.Debug("created node", "path", path, "kind", child.Kind)
		return created, Result{Path: path, Kind: child.Kind, Outcome: OutcomeCreated}, nil
	}

	var ce *CreateError
	if !errors.As(err, &ce) {
		return nil, Result{}, fmt.Errorf("failed to create %q: %w", path, err)
	}

	switch ce.Class {
	case ClassDuplicate:
		c.logger.Warn("skipping existing node", "path", path, "kind", child.Kind)
		return nil, Result{
			Path:    path,
			Kind:    child.Kind,
			Outcome: OutcomeSkippedDuplicate,
			Reason:  ce.Reason,
		}, nil

	case ClassValidation:
		// The target schema does not accept this node as-is. Retry as a
		// plain container with the type-specific attributes stripped.
		created, err := c.dst.Create(ctx, parentID, CreateSpec{
			Kind:        domain.FallbackKind,
			Name:        child.Name,
			Description: child.Description,
			Position:    child.Position,
		})
		if err == nil {
			c.logger.Warn("created node as fallback",
				"path", path, "kind", child.Kind, "fallback", domain.FallbackKind, "reason", ce.Reason)
			return created, Result{
				Path:         path,
				Kind:         child.Kind,
				Outcome:      OutcomeCreatedAsFallback,
				FallbackKind: domain.FallbackKind,
				Reason:       ce.Reason,
			}, nil
		}

		var ce2 *CreateError
		if !errors.As(err, &ce2) {
			return nil, Result{}, fmt.Errorf("failed to create fallback for %q: %w", path, err)
		}
		c.logger.Warn("skipping node, fallback rejected too",
			"path", path, "kind", child.Kind, "reason", ce2.Reason)
		return nil, Result{
			Path:    path,
			Kind:    child.Kind,
			Outcome: OutcomeSkippedFailed,
			Reason:  ce2.Reason,
		}, nil

	default:
		return nil, Result{}, fmt.Errorf("failed to create %q: %w", path, ce)
	}
}

// copyCustomAttributes writes the source node's custom attributes onto
// the created node, restricted to the keys the target schema defines.
// Keys the target does not know are dropped without error.
func (c *cloner) copyCustomAttributes(ctx context.Context, child, created *Node, path string) error {
	if len(child.Custom) == 0 {
		return nil
	}
	values := make(map[string]interface{})
	for key, val := range child.Custom {
		if _, ok := created.Custom[key]; ok {
			values[key] = val
		}
	}
	if len(values) == 0 {
		return nil
	}
	if err := c.dst.SetCustomAttributes(ctx, created.ID, values); err != nil {
		return fmt.Errorf("failed to copy custom attributes of %q: %w", path, err)
	}
	return nil
}

// sortByPosition orders siblings by position, treating a missing
// position as zero and keeping discovery order for ties.
func sortByPosition(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return positionOrZero(nodes[i]) < positionOrZero(nodes[j])
	})
}

func positionOrZero(n *Node) float64 {
	if n.Position == nil {
		return 0
	}
	return *n.Position
}

func childPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
