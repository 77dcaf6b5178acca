package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// SetupDatabase connects to MySQL and migrates the mirror schema. The
// container setup can race the database start, hence the retry loop.
func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.User{},
				&models.Customer{},
				&models.Card{},
				&models.Subscription{},
				&models.Product{},
				&models.Price{},
				&models.Coupon{},
				&models.Event{},
			)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the shared GORM handle.
func GetDB() *gorm.DB {
	return DB
}
