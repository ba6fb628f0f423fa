package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database wraps the gorm handle so callers depend on this package rather
// than on gorm directly.
type Database struct {
	*gorm.DB
}

func New(dsn string) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[database.New] gorm.Open")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "[database.New] db.DB")
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Database{db}, nil
}

// Migrate creates or updates the schema for the given models.
func (db *Database) Migrate(models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return errors.Wrap(err, "[database.Migrate] AutoMigrate")
	}
	return nil
}
