package database

import (
	"fmt"
	"time"

	"github.com/forsetihq/flowd/internal/domain"

	"gorm.io/gorm"
)

// SchemaMigration is the version marker table. Each entry in Migrations is
// applied exactly once, in order, inside its own transaction.
type SchemaMigration struct {
	Version   int    `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt time.Time
}

type Migration struct {
	Version int
	Name    string
	Apply   func(tx *gorm.DB) error
}

var Migrations = []Migration{
	{
		Version: 1,
		Name:    "accounts and login challenges",
		Apply: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.Account{}, &domain.LoginChallenge{})
		},
	},
	{
		Version: 2,
		Name:    "record tables",
		Apply: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&domain.Project{},
				&domain.Task{},
				&domain.BacklogItem{},
				&domain.Sprint{},
				&domain.Resource{},
			)
		},
	},
}

// Migrate applies every pending migration. Safe to call repeatedly; a fresh
// database (e.g. right after a demo reset) is brought to the latest version.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, m := range Migrations {
		var count int64
		if err := db.Model(&SchemaMigration{}).Where("version = ?", m.Version).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Apply(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, 0 for a
// fresh store.
func SchemaVersion(db *gorm.DB) (int, error) {
	if !db.Migrator().HasTable(&SchemaMigration{}) {
		return 0, nil
	}
	var version *int
	if err := db.Model(&SchemaMigration{}).Select("max(version)").Scan(&version).Error; err != nil {
		return 0, err
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}
