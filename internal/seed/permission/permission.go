package permission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// RoleDef names a role and the permission types it carries.
type RoleDef struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Diff is what it takes to bring the stored permissions in line with the
// seed file, keyed by permission type.
type Diff struct {
	Create []*types.Permission
	Update []*types.Permission
	Delete []*types.Permission
}

func Compute(existing, wanted []*types.Permission) Diff {
	var d Diff
	wantedMap := make(map[string]*types.Permission, len(wanted))
	for _, wp := range wanted {
		wantedMap[wp.PermissionType] = wp
	}
	existingMap := make(map[string]*types.Permission, len(existing))
	for _, ep := range existing {
		existingMap[ep.PermissionType] = ep
		if _, ok := wantedMap[ep.PermissionType]; !ok {
			d.Delete = append(d.Delete, ep)
		}
	}
	for _, wp := range wanted {
		ep, ok := existingMap[wp.PermissionType]
		if !ok {
			d.Create = append(d.Create, wp)
			continue
		}
		if ep.Name != wp.Name || ep.Category != wp.Category || ep.Action != wp.Action {
			ep.Name, ep.Category, ep.Action = wp.Name, wp.Category, wp.Action
			d.Update = append(d.Update, ep)
		}
	}
	return d
}

// SyncPermissions applies the permission diff and then makes sure every
// role exists and holds at least the permissions listed for it.
func SyncPermissions(
	ctx context.Context,
	tx *gorm.DB,
	permissionRepo repos.PermissionRepo,
	roleRepo repos.RoleRepo,
	wanted []*types.Permission,
	roles []RoleDef,
) error {
	existing, err := permissionRepo.GetAll(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed fetching existing permissions: %w", err)
	}
	diff := Compute(existing, wanted)
	if len(diff.Delete) > 0 {
		ids := make([]uuid.UUID, 0, len(diff.Delete))
		for _, p := range diff.Delete {
			ids = append(ids, p.ID)
		}
		if err := permissionRepo.FullDeleteByPermissionIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("failed deleting old permissions: %w", err)
		}
	}
	if len(diff.Update) > 0 {
		if _, err := permissionRepo.Update(ctx, tx, diff.Update); err != nil {
			return fmt.Errorf("failed updating changed permissions: %w", err)
		}
	}
	if len(diff.Create) > 0 {
		if _, err := permissionRepo.Create(ctx, tx, diff.Create); err != nil {
			return fmt.Errorf("failed creating new permissions: %w", err)
		}
	}

	all, err := permissionRepo.GetAll(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed re-fetching permissions: %w", err)
	}
	byType := make(map[string]*types.Permission, len(all))
	for _, p := range all {
		byType[p.PermissionType] = p
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	stored, err := roleRepo.GetByNames(ctx, tx, names)
	if err != nil {
		return fmt.Errorf("failed fetching roles: %w", err)
	}
	storedByName := make(map[string]*types.Role, len(stored))
	for _, r := range stored {
		storedByName[r.Name] = r
	}
	for _, def := range roles {
		role, ok := storedByName[def.Name]
		if !ok {
			created, err := roleRepo.Create(ctx, tx, []*types.Role{{Name: def.Name}})
			if err != nil {
				return fmt.Errorf("failed creating role %q: %w", def.Name, err)
			}
			role = created[0]
		}
		var perms []*types.Permission
		for _, pt := range def.Permissions {
			p, ok := byType[pt]
			if !ok {
				return fmt.Errorf("role %q references unknown permission %q", def.Name, pt)
			}
			perms = append(perms, p)
		}
		if err := roleRepo.AssociatePermissions(ctx, tx, []*types.Role{role}, perms); err != nil {
			return fmt.Errorf("failed associating permissions with role %q: %w", def.Name, err)
		}
	}
	return nil
}
