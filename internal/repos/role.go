package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type RoleRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, roles []*types.Role) ([]*types.Role, error)

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, roleIDs []uuid.UUID) ([]*types.Role, error)
	GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Role, error)

	// PERMISSIONS
	AssociatePermissions(ctx context.Context, tx *gorm.DB, roles []*types.Role, permissions []*types.Permission) error
}

type roleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo {
	repoLog := baseLog.With("repo", "RoleRepo")
	return &roleRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (rr *roleRepo) Create(ctx context.Context, tx *gorm.DB, roles []*types.Role) ([]*types.Role, error) {
	rr.log.Info("Starting Create Roles now...")
	if len(roles) == 0 {
		return []*types.Role{}, nil
	}
	if err := conn(ctx, tx, rr.db).Create(&roles).Error; err != nil {
		rr.log.Error("Failed to create roles", "error", err)
		return nil, err
	}
	rr.log.Info("Successfully created roles", "count", len(roles))
	return roles, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (rr *roleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, roleIDs []uuid.UUID) ([]*types.Role, error) {
	var results []*types.Role
	if len(roleIDs) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, rr.db).
		Preload("Permissions").
		Where("id IN ?", roleIDs).
		Find(&results).Error; err != nil {
		rr.log.Error("Failed to fetch roles by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

func (rr *roleRepo) GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Role, error) {
	var results []*types.Role
	if len(names) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, rr.db).
		Preload("Permissions").
		Where("name IN ?", names).
		Find(&results).Error; err != nil {
		rr.log.Error("Failed to fetch roles by names", "error", err)
		return nil, err
	}
	return results, nil
}

// ----------------------------------------------------------------
// PERMISSIONS
// ----------------------------------------------------------------

func (rr *roleRepo) AssociatePermissions(ctx context.Context, tx *gorm.DB, roles []*types.Role, permissions []*types.Permission) error {
	if len(roles) == 0 || len(permissions) == 0 {
		rr.log.Debug("No roles or permissions provided, skipping association", "roles", len(roles), "permissions", len(permissions))
		return nil
	}
	db := conn(ctx, tx, rr.db)
	for _, role := range roles {
		if err := db.Model(role).Association("Permissions").Append(permissions); err != nil {
			rr.log.Error("Failed to associate permissions with role", "roleID", role.ID, "error", err)
			return err
		}
	}
	rr.log.Info("Successfully associated permissions with roles", "roles", len(roles))
	return nil
}
