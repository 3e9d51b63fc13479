package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
)

// Publisher is the slice of pkg/kafka.Producer the Kafka sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSnapshotSink publishes each valuation snapshot as one JSON message
// keyed by session id, so one session's snapshots stay ordered.
type KafkaSnapshotSink struct {
	producer Publisher
	topic    string
}

func NewKafkaSnapshotSink(producer Publisher, topic string) repository.SnapshotSink {
	return &KafkaSnapshotSink{producer: producer, topic: topic}
}

func (s *KafkaSnapshotSink) Record(ctx context.Context, snap *models.ValuationSnapshot) error {
	if snap == nil {
		return nil
	}
	return s.producer.Publish(ctx, s.topic, []byte(snap.SessionID), snap)
}

func (s *KafkaSnapshotSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

// ClickHouseSnapshotSink stores one row per valuation row, total included.
type ClickHouseSnapshotSink struct {
	db    *sql.DB
	table string
}

func NewClickHouseSnapshotSink(db *sql.DB, table string) *ClickHouseSnapshotSink {
	return &ClickHouseSnapshotSink{db: db, table: table}
}

// Schema returns the DDL for the sink table.
func (s *ClickHouseSnapshotSink) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            taken_at   DateTime64(3, 'UTC'),
            session_id String,
            currency   LowCardinality(String),
            fx_rate    Decimal(38, 10),
            asset      String,
            balance    Nullable(Decimal(38, 10)),
            unit_price Nullable(Decimal(38, 10)),
            value      Decimal(38, 2),
            is_total   UInt8
        ) ENGINE = MergeTree
        ORDER BY (session_id, taken_at, asset)
    `, s.table)}
}

const snapshotColumns = 9

func (s *ClickHouseSnapshotSink) Record(ctx context.Context, snap *models.ValuationSnapshot) error {
	if snap == nil || len(snap.Rows) == 0 {
		return nil
	}

	values := make([]string, 0, len(snap.Rows))
	args := make([]interface{}, 0, len(snap.Rows)*snapshotColumns)
	for _, r := range snap.Rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			snap.TakenAt,
			snap.SessionID,
			snap.Currency,
			snap.FXRate.String(),
			r.Asset,
			nullString(r.Balance.Valid, r.Balance.Decimal.String()),
			nullString(r.UnitPrice.Valid, r.UnitPrice.Decimal.String()),
			r.Value.StringFixed(2),
			boolToUInt8(r.IsTotal()),
		)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (taken_at, session_id, currency, fx_rate, asset, balance, unit_price, value, is_total) VALUES %s",
		s.table, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert valuation snapshot: %w", err)
	}
	return nil
}

// Close leaves the pool to its owner, pkg/clickhouse.Client.
func (s *ClickHouseSnapshotSink) Close() error {
	return nil
}

// NoopSnapshotSink discards snapshots.
type NoopSnapshotSink struct{}

func (NoopSnapshotSink) Record(context.Context, *models.ValuationSnapshot) error { return nil }
func (NoopSnapshotSink) Close() error                                            { return nil }

func nullString(valid bool, s string) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
