package transport

import (
	"context"
	"fmt"
	"log"

	"NetSentry/internal/config"
	"NetSentry/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS packet_logs (
    Timestamp      DateTime,
    SrcIP          String,
    DstIP          String,
    Protocol       String,
    Size           UInt32,
    Flags          String,
    Classification String,
    Confidence     Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Classification, Timestamp);
`

// ClickHouseSink archives flushed batches into the packet_logs table. Like
// every sink it is best-effort: the in-memory ingestion store remains the
// source of truth for the live view.
type ClickHouseSink struct {
	conn driver.Conn
}

// NewClickHouseSink connects to ClickHouse and ensures the table exists.
func NewClickHouseSink(cfg config.ClickHouseConfig) (*ClickHouseSink, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseSink{conn: conn}, nil
}

// Deliver inserts the batch into packet_logs.
func (s *ClickHouseSink) Deliver(ctx context.Context, records []model.LogRecord) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO packet_logs")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, rec := range records {
		err = batch.Append(
			rec.Timestamp,
			rec.SrcIP,
			rec.DstIP,
			rec.Protocol,
			uint32(rec.Size),
			rec.Flags,
			rec.Classification,
			rec.Confidence,
		)
		if err != nil {
			return fmt.Errorf("failed to append record to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Close closes the ClickHouse connection.
func (s *ClickHouseSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
