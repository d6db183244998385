package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteSchema mirrors the AWR migration in SQLite syntax
var sqliteSchema = []string{
	`CREATE TABLE awr_requests (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		request_no         TEXT NOT NULL UNIQUE,
		document_reference TEXT NOT NULL,
		awr_type           TEXT NOT NULL,
		prepared_by        TEXT NOT NULL,
		requested_at       DATETIME NOT NULL,
		comment            TEXT NOT NULL DEFAULT '',
		current_status     TEXT NOT NULL,
		created_at         DATETIME,
		updated_at         DATETIME
	)`,
	`CREATE TABLE awr_items (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id       INTEGER NOT NULL REFERENCES awr_requests (id),
		material_product TEXT NOT NULL,
		batch_no         TEXT NOT NULL,
		cross_reference  TEXT NOT NULL,
		qty_required     NUMERIC NOT NULL CHECK (qty_required > 0),
		status           TEXT NOT NULL,
		qty_issued       NUMERIC NOT NULL DEFAULT 0,
		issued_by        TEXT NOT NULL DEFAULT '',
		issued_at        DATETIME,
		received_by      TEXT NOT NULL DEFAULT '',
		received_at      DATETIME,
		returned_by      TEXT NOT NULL DEFAULT '',
		returned_at      DATETIME,
		remark           TEXT NOT NULL DEFAULT '',
		created_at       DATETIME,
		updated_at       DATETIME
	)`,
	`CREATE TABLE awr_sequences (
		name       TEXT PRIMARY KEY,
		value      INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME
	)`,
	`INSERT INTO awr_sequences (name, value, updated_at) VALUES ('awr_request_no', 0, CURRENT_TIMESTAMP)`,
}

// NewSQLiteDB opens a private in-memory SQLite database with the AWR schema.
// The pool holds a single connection so every statement sees the same database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// SeedItem describes one item inserted by SeedRequest
type SeedItem struct {
	Material       string
	BatchNo        string
	CrossReference string
	Qty            string
	// Status is the persisted status code, e.g. "PendingIssuance" or "InUse"
	Status    string
	QtyIssued string
	IssuedBy  string
}

// SeedRequest inserts a request header and its items directly and returns the
// header id and item ids. It bypasses the application so tests can start from
// any status.
func SeedRequest(t *testing.T, db *gorm.DB, requestNo, awrType, preparedBy string, items ...SeedItem) (int64, []int64) {
	t.Helper()
	require.NotEmpty(t, items)

	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO awr_requests (request_no, document_reference, awr_type, prepared_by, requested_at, comment, current_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, '', ?, ?, ?)`,
		requestNo, "DOC-"+requestNo, awrType, preparedBy, now, items[0].Status, now, now,
	).Error)

	var requestID int64
	require.NoError(t, db.Raw(`SELECT id FROM awr_requests WHERE request_no = ?`, requestNo).Scan(&requestID).Error)

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		qty := it.Qty
		if qty == "" {
			qty = "1"
		}
		issued := it.QtyIssued
		if issued == "" {
			issued = "0"
		}
		require.NoError(t, db.Exec(
			`INSERT INTO awr_items (request_id, material_product, batch_no, cross_reference, qty_required, status, qty_issued, issued_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			requestID, it.Material, it.BatchNo, it.CrossReference, qty, it.Status, issued, it.IssuedBy, now, now,
		).Error)

		var id int64
		require.NoError(t, db.Raw(`SELECT MAX(id) FROM awr_items WHERE request_id = ?`, requestID).Scan(&id).Error)
		ids = append(ids, id)
	}
	return requestID, ids
}
