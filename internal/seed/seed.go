package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/seed/permission"
	"github.com/furnihome/furnihome-backend/internal/types"
)

// Catalog is the startup seed file: roles with their permissions plus the
// catalog reference data products point at.
type Catalog struct {
	Permissions       []*types.Permission      `json:"permissions"`
	Roles             []permission.RoleDef     `json:"roles"`
	RoomCategories    []*types.RoomCategory    `json:"room_categories"`
	ProductCategories []*types.ProductCategory `json:"product_categories"`
	Manufacturers     []*types.Manufacturer    `json:"manufacturers"`
}

// DefaultCatalog is used when no seed file is configured. It carries only
// the roles registration and the staff endpoints depend on.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Permissions: []*types.Permission{{
			PermissionType: types.PermissionManageCatalog,
			Name:           "Manage catalog",
			Category:       "catalog",
			Action:         "manage",
		}},
		Roles: []permission.RoleDef{
			{Name: types.RoleCustomer},
			{Name: types.RoleStaff, Permissions: []string{types.PermissionManageCatalog}},
		},
	}
}

// LoadCatalog reads path, falling back to DefaultCatalog when path is empty.
// Roles missing from the file are taken from the default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading catalog seed file: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed unmarshaling catalog seed file: %w", err)
	}
	if len(c.Roles) == 0 {
		def := DefaultCatalog()
		c.Roles = def.Roles
		if len(c.Permissions) == 0 {
			c.Permissions = def.Permissions
		}
	}
	return &c, nil
}

type Repos struct {
	Permission   repos.PermissionRepo
	Role         repos.RoleRepo
	Category     repos.CategoryRepo
	Manufacturer repos.ManufacturerRepo
}

func SeedAll(ctx context.Context, log *logger.Logger, txm repos.TxManager, r Repos, catalogPath string) error {
	seedLog := log.With("service", "Seed")
	seedLog.Info("Running SeedAll now...", "path", catalogPath)

	catalog, err := LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	err = txm.WithTx(ctx, func(tx *gorm.DB) error {
		if err := permission.SyncPermissions(ctx, tx, r.Permission, r.Role, catalog.Permissions, catalog.Roles); err != nil {
			return fmt.Errorf("failed to sync permissions: %w", err)
		}
		if err := r.Category.UpsertRoomCategories(ctx, tx, catalog.RoomCategories); err != nil {
			return fmt.Errorf("failed to seed room categories: %w", err)
		}
		if err := r.Category.UpsertProductCategories(ctx, tx, catalog.ProductCategories); err != nil {
			return fmt.Errorf("failed to seed product categories: %w", err)
		}
		if err := r.Manufacturer.Upsert(ctx, tx, catalog.Manufacturers); err != nil {
			return fmt.Errorf("failed to seed manufacturers: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	seedLog.Info("SeedAll Complete :)",
		"roles", len(catalog.Roles),
		"roomCategories", len(catalog.RoomCategories),
		"productCategories", len(catalog.ProductCategories),
		"manufacturers", len(catalog.Manufacturers),
	)
	return nil
}
