package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"campusmerch/config"
	"campusmerch/models"
)

type Client struct {
	db *gorm.DB
}

// NewClient opens the shop database and applies the pool limits from cfg.
func NewClient(cfg config.PostgresConfig) (*Client, error) {
	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Client{db: db}, nil
}

// dsn builds a key/value connection string. Order timestamps are written in
// the shop's local zone, so TimeZone is always set.
func dsn(cfg config.PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	timeZone := cfg.TimeZone
	if timeZone == "" {
		timeZone = "Asia/Manila"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, sslMode, timeZone)
}

func (c *Client) DB() *gorm.DB {
	return c.db
}

// AutoMigrate creates or updates the checkout tables. The hosted backend
// normally owns the schema; this is for local and test databases.
func (c *Client) AutoMigrate() error {
	return c.db.AutoMigrate(
		&models.Shop{},
		&models.Merchandise{},
		&models.Variant{},
		&models.Membership{},
		&models.CartLineItem{},
		&models.OrderStatus{},
		&models.Order{},
		&models.Payment{},
		&models.Receipt{},
		&models.ShopNotification{},
	)
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
