package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"

	PermissionManageCatalog = "manage_catalog"
)

type Role struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string        `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Users       []*User       `gorm:"foreignKey:RoleID" json:"users,omitempty"`
	Permissions []*Permission `gorm:"many2many:permissions_roles;" json:"permissions,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Role) TableName() string {
	return "role"
}

// HasPermission reports whether the role carries the named permission.
func (r *Role) HasPermission(name string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Permissions {
		if p != nil && (p.Name == name || p.PermissionType == name) {
			return true
		}
	}
	return false
}
