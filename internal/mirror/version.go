package mirror

import (
	"context"
	"fmt"

	"github.com/fathomvfx/showsync/internal/track"
)

// mirrorVersion recreates a published version on the target server,
// creating its asset there first when needed and skipping versions the
// target already has.
func (s *Syncer) mirrorVersion(ctx context.Context, versionID string) error {
	if echoed, err := s.consumeEcho("version", versionID); echoed || err != nil {
		return err
	}

	version, err := s.src.Get(ctx, "AssetVersion", versionID)
	if err != nil {
		return fmt.Errorf("failed to fetch source version: %w", err)
	}
	if version == nil {
		return s.skip("version", versionID, "version no longer exists on source")
	}

	asset, err := s.src.Get(ctx, "Asset", version.String("asset_id"))
	if err != nil {
		return fmt.Errorf("failed to fetch source asset: %w", err)
	}
	if asset == nil {
		return s.skip("version", versionID, "asset no longer exists on source")
	}

	project, err := s.targetProject(ctx, asset.String("project_id"))
	if err != nil {
		return fmt.Errorf("failed to resolve target project: %w", err)
	}
	if project == nil {
		return s.skip("version", versionID, "show does not exist on target")
	}

	targetAsset, err := s.ensureAsset(ctx, asset, project)
	if err != nil {
		return err
	}

	number := int64(0)
	if v := version.Int("version"); v != nil {
		number = *v
	}
	existing, err := s.dst.QueryOne(ctx, fmt.Sprintf(
		"AssetVersion where asset_id is %q and version is %d", targetAsset.ID(), number))
	if err != nil {
		return fmt.Errorf("failed to check target for existing version: %w", err)
	}
	if existing != nil {
		return s.skip("version", versionID, "version already exists on target")
	}

	attrs := map[string]interface{}{
		"asset_id":   targetAsset.ID(),
		"project_id": project.ID(),
		"version":    number,
	}
	if comment := version.String("comment"); comment != "" {
		attrs["comment"] = comment
	}

	created := s.dst.Create("AssetVersion", attrs)
	if err := s.commitCreate(ctx); err != nil {
		return fmt.Errorf("failed to create version on target: %w", err)
	}

	s.logger.Info("mirrored version",
		"asset", asset.Name(), "version", number, "project", project.Name())
	return s.mirrored("version", created.ID(), map[string]interface{}{
		"source_id": versionID,
		"asset":     asset.Name(),
		"version":   number,
		"project":   project.Name(),
	})
}

// ensureAsset finds the target's asset matching the source asset by
// name within the project, creating it when absent.
func (s *Syncer) ensureAsset(ctx context.Context, asset, project track.Entity) (track.Entity, error) {
	existing, err := s.dst.QueryOne(ctx, fmt.Sprintf(
		"Asset where name is %q and project_id is %q", asset.Name(), project.ID()))
	if err != nil {
		return nil, fmt.Errorf("failed to look up target asset: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	attrs := map[string]interface{}{
		"name":       asset.Name(),
		"project_id": project.ID(),
	}
	if typeName := asset.String("type"); typeName != "" {
		attrs["type"] = typeName
	}

	created := s.dst.Create("Asset", attrs)
	if err := s.commitCreate(ctx); err != nil {
		return nil, fmt.Errorf("failed to create asset on target: %w", err)
	}
	s.logger.Info("created asset on target", "asset", asset.Name(), "project", project.Name())
	return created, nil
}
