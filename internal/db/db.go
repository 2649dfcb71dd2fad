package db

import (
	"fmt"
	"time"

	"github.com/mjhajdugaNext/messenger/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the document store. Postgres is retried while the server comes
// up; sqlite is pinned to a single connection so in-memory databases survive.
func Connect(driver, dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}
	attempts := 10
	if driver == "sqlite" {
		attempts = 1
	}
	var gdb *gorm.DB
	for i := 0; i < attempts; i++ {
		gdb, err = gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				if driver == "sqlite" {
					sqlDB.SetMaxOpenConns(1)
					sqlDB.SetConnMaxLifetime(0)
				} else {
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetMaxOpenConns(20)
					sqlDB.SetConnMaxLifetime(time.Hour)
				}
				return gdb, nil
			}
			err = err2
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("driver", driver).Msg("db connect retry")
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
}

// Migrate creates or updates the users and messages collections.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&models.User{}, &models.Message{})
}
