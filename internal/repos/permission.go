package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type PermissionRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, permissions []*types.Permission) ([]*types.Permission, error)

	// READ
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Permission, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, permissions []*types.Permission) ([]*types.Permission, error)

	// FULL (HARD) DELETE
	FullDeleteByPermissionIDs(ctx context.Context, tx *gorm.DB, permIDs []uuid.UUID) error
}

type permissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPermissionRepo(db *gorm.DB, baseLog *logger.Logger) PermissionRepo {
	repoLog := baseLog.With("repo", "PermissionRepo")
	return &permissionRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------------------
func (pr *permissionRepo) Create(ctx context.Context, tx *gorm.DB, permissions []*types.Permission) ([]*types.Permission, error) {
	if len(permissions) == 0 {
		return []*types.Permission{}, nil
	}
	if err := conn(ctx, tx, pr.db).Create(&permissions).Error; err != nil {
		pr.log.Error("Failed to create permissions", "error", err)
		return nil, err
	}
	pr.log.Info("Successfully created permissions", "count", len(permissions))
	return permissions, nil
}

// ----------------------------------------------------------------------------
// READ
// ----------------------------------------------------------------------------
func (pr *permissionRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Permission, error) {
	var results []*types.Permission
	if err := conn(ctx, tx, pr.db).Find(&results).Error; err != nil {
		pr.log.Error("Failed to fetch all permissions", "error", err)
		return nil, err
	}
	return results, nil
}

// ----------------------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------------------
func (pr *permissionRepo) Update(ctx context.Context, tx *gorm.DB, permissions []*types.Permission) ([]*types.Permission, error) {
	db := conn(ctx, tx, pr.db)
	for _, p := range permissions {
		if err := db.Model(&types.Permission{}).
			Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"name":     p.Name,
				"category": p.Category,
				"action":   p.Action,
			}).Error; err != nil {
			pr.log.Error("Failed to update permission", "permissionType", p.PermissionType, "error", err)
			return nil, err
		}
	}
	return permissions, nil
}

// ----------------------------------------------------------------------------
// FULL (HARD) DELETE
// ----------------------------------------------------------------------------
func (pr *permissionRepo) FullDeleteByPermissionIDs(ctx context.Context, tx *gorm.DB, permIDs []uuid.UUID) error {
	if len(permIDs) == 0 {
		return nil
	}
	db := conn(ctx, tx, pr.db)
	if err := db.Exec("DELETE FROM permissions_roles WHERE permission_id IN ?", permIDs).Error; err != nil {
		pr.log.Error("Failed to detach permissions from roles", "error", err)
		return err
	}
	if err := db.Where("id IN ?", permIDs).Delete(&types.Permission{}).Error; err != nil {
		pr.log.Error("Failed to hard-delete permissions", "error", err)
		return err
	}
	pr.log.Info("Hard-deleted permissions", "count", len(permIDs))
	return nil
}
