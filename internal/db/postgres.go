package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	//1) Get and Set Environment Variables
	serviceLog.Info("Attempting to load environment variables for Postgres now...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", serviceLog)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", serviceLog)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", serviceLog)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", serviceLog)
	postgresName := utils.GetEnv("POSTGRES_NAME", "furnihome", serviceLog)
	postgresSSLMode := utils.GetEnv("POSTGRES_SSLMODE", "disable", serviceLog)
	serviceLog.Debug("Environment variables loaded for Postgres",
		"host", postgresHost,
		"port", postgresPort,
		"user", postgresUser,
		"dbname", postgresName,
		"sslmode", postgresSSLMode,
	)

	//2) Construct DSN From Environment Variables
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName, postgresSSLMode)

	//3) Attempt DB Connection
	serviceLog.Info("Attempting to connect to Postgres DB now...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres DB", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}
	serviceLog.Info("Successfully Connected to Postgres DB :)")

	//4) Enable uuid-ossp Extension
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension :(", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	serviceLog.Info("uuid-ossp extension enabled or already exists :)")

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// foreignKey is one constraint added after AutoMigrate; gorm's own FK
// creation is disabled so the delete behaviour is explicit.
type foreignKey struct {
	name     string
	table    string
	column   string
	refTable string
	onDelete string
}

var foreignKeys = []foreignKey{
	{"fk_user_role_id", "user", "role_id", "role", "SET NULL"},
	{"fk_user_token_user_id", "user_token", "user_id", "user", "CASCADE"},
	{"fk_otp_record_user_id", "otp_record", "user_id", "user", "CASCADE"},
	{"fk_permissions_roles_role_id", "permissions_roles", "role_id", "role", "CASCADE"},
	{"fk_permissions_roles_permission_id", "permissions_roles", "permission_id", "permission", "CASCADE"},
	{"fk_product_room_category_id", "product", "room_category_id", "room_category", "RESTRICT"},
	{"fk_product_product_category_id", "product", "product_category_id", "product_category", "RESTRICT"},
	{"fk_product_manufacturer_id", "product", "manufacturer_id", "manufacturer", "RESTRICT"},
	{"fk_favorite_user_id", "favorite", "user_id", "user", "CASCADE"},
	{"fk_favorite_product_id", "favorite", "product_id", "product", "CASCADE"},
	{"fk_cart_user_id", "cart", "user_id", "user", "CASCADE"},
	{"fk_cart_item_cart_id", "cart_item", "cart_id", "cart", "CASCADE"},
	{"fk_cart_item_product_id", "cart_item", "product_id", "product", "CASCADE"},
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Starting AutoMigrateAll for all GORM models now...")

	err := s.db.AutoMigrate(
		&types.Role{},
		&types.Permission{},
		&types.User{},
		&types.UserToken{},
		&types.OTPRecord{},
		&types.RoomCategory{},
		&types.ProductCategory{},
		&types.Manufacturer{},
		&types.Product{},
		&types.Favorite{},
		&types.Cart{},
		&types.CartItem{},
	)
	if err != nil {
		s.log.Error("AutoMigrateAll failed for Base Tables :(", "error", err)
		return err
	}
	s.log.Info("AutoMigrateAll completed successfully for Base Tables :)")

	s.log.Info("Configuring Foreign Key Relationships for Base Tables now...")
	for _, fk := range foreignKeys {
		if err := s.addForeignKey(fk); err != nil {
			return err
		}
	}
	s.log.Info("Successfully Added Foreign Key Relationships to Base Tables :)")

	return nil
}

func (s *PostgresService) addForeignKey(fk foreignKey) error {
	var exists bool
	if err := s.db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, fk.name).Scan(&exists).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", fk.name, err)
	}
	if exists {
		return nil
	}
	stmt := fmt.Sprintf(`ALTER TABLE %q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q ("id") ON DELETE %s`,
		fk.table, fk.name, fk.column, fk.refTable, fk.onDelete)
	if err := s.db.Exec(stmt).Error; err != nil {
		s.log.Error("Failed to add foreign key", "constraint", fk.name, "error", err)
		return fmt.Errorf("failed to add %s: %w", fk.name, err)
	}
	s.log.Debug("Added foreign key", "constraint", fk.name)
	return nil
}
