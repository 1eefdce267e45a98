package db

import (
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mpetrov/fieldclock/internal/models"
)

// Open opens (creating if necessary) the local database at dbPath,
// runs migrations and seeds the singleton active-timer marker row.
func Open(dbPath string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, eris.Wrap(err, "failed to create data directory")
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Quiet by default
		TranslateError: true,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open database: %s", dbPath)
	}

	if err := runMigrations(db); err != nil {
		return nil, eris.Wrap(err, "failed to run migrations")
	}

	return db, nil
}

// OpenMemory opens an in-memory database, used by tests.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to open in-memory database")
	}

	if err := runMigrations(db); err != nil {
		return nil, eris.Wrap(err, "failed to run migrations")
	}

	return db, nil
}

// runMigrations creates/updates the database schema
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Client{},
		&models.TimeSession{},
		&models.ActiveTimerMarker{},
		&models.RecurringJob{},
		&models.RecurringJobOccurrence{},
		&models.ClientGeofence{},
		&models.Invoice{},
	); err != nil {
		return err
	}

	// The marker is a singleton: exactly one row with a fixed id.
	marker := models.ActiveTimerMarker{ID: models.ActiveTimerMarkerID}
	return db.FirstOrCreate(&marker, "id = ?", models.ActiveTimerMarkerID).Error
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
