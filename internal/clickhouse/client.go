package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"campusmerch/config"
	"campusmerch/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type Client struct {
	conn     driver.Conn
	database string
}

func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		DialTimeout:  time.Second * 30,
		TLS:          tlsConfig(cfg),
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{
		conn:     conn,
		database: cfg.Database,
	}, nil
}

// tlsConfig returns nil for plaintext connections. Certificate checks stay on
// unless CLICKHOUSE_TLS_SKIP_VERIFY is set for a self-signed dev server.
func tlsConfig(cfg config.ClickHouseConfig) *tls.Config {
	if !cfg.Secure {
		return nil
	}
	return &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.TLSSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// InsertOrderFact appends a submitted order to Fact_Merch_Order
func (c *Client) InsertOrderFact(ctx context.Context, f models.OrderFact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.Fact_Merch_Order (
			order_id, date_key, shop_key, merch_key, variant_key, user_id,
			quantity, revenue, payment_method, paid, event_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.database)

	var paid uint8
	if f.Paid {
		paid = 1
	}

	return c.conn.Exec(ctx, query,
		f.OrderID,
		f.DateKey,
		f.ShopID,
		f.MerchID,
		f.VariantID,
		f.UserID,
		f.Quantity,
		f.Revenue,
		f.PaymentMethod,
		paid,
		time.Now(),
	)
}

// EnsureSchema creates Fact_Merch_Order when it does not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.Fact_Merch_Order (
			order_id       Int64,
			date_key       String,
			shop_key       Int64,
			merch_key      Int64,
			variant_key    Int64,
			user_id        String,
			quantity       Int64,
			revenue        Float64,
			payment_method LowCardinality(String),
			paid           UInt8,
			event_time     DateTime
		) ENGINE = ReplacingMergeTree(event_time)
		ORDER BY (shop_key, order_id)
	`, c.database)

	return c.conn.Exec(ctx, query)
}
