/*
Package sqlite provides the SQLite-backed implementation of every storage
interface in the system.

INTERFACES IMPLEMENTED:
  inventory.Store:           capacity counters + allocation records
  inventory.Catalog:         sellable unit lookup
  inventory.StopSellChecker: stop-sell rule lookup
  ledger.Store:              append-only booking ledger
  settlement.Store:          settlement summaries

KEY TABLES:
  sellable_units:          catalog records (capacity + overbook policy)
  daily_capacity_counters: per-(unit, day) consumption, version column
  allocations:             append-only decision records
  ledger_entries:          immutable money records, one per booking
  settlement_summaries:    cached rollups + lifecycle status, version column
  stop_sell_rules:         unconditional sell blocks per unit/date range

CONCURRENCY:
  Counter and summary writes carry the version that was read; a stale
  write affects zero rows and surfaces as ErrConcurrentModification for
  the caller's bounded retry. Allocations and ledger entries are insert
  only and never contend. SQLite is opened in WAL mode.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE exists for allocations (beyond the one-way released
  flag) or ledger entries. Corrections are offsetting entries.

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tourvia/booking-core/inventory"
	"github.com/tourvia/booking-core/ledger"
	"github.com/tourvia/booking-core/settlement"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a store at the given database path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent allocators.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Catalog (read by the allocator, written by admin endpoints)
	CREATE TABLE IF NOT EXISTS sellable_units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capacity_mode TEXT NOT NULL DEFAULT 'pax',
		max_per_day INTEGER NOT NULL CHECK (max_per_day >= 0),
		overbook_allowed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Per-(unit, day) consumption. Created on first allocation attempt,
	-- never deleted. version guards optimistic writes.
	CREATE TABLE IF NOT EXISTS daily_capacity_counters (
		unit_id TEXT NOT NULL,
		date TEXT NOT NULL,
		consumed INTEGER NOT NULL DEFAULT 0 CHECK (consumed >= 0),
		overbooked BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (unit_id, date)
	);

	-- Allocation decisions, rejections included. Append-only; released
	-- is the single one-way flag flip.
	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		date TEXT NOT NULL,
		requested_qty INTEGER NOT NULL,
		granted BOOLEAN NOT NULL,
		overbook BOOLEAN NOT NULL DEFAULT FALSE,
		reason TEXT NOT NULL,
		released BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_unit_date
		ON allocations(unit_id, date);

	-- Immutable money records. One non-offset entry per allocation.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		agency_id TEXT NOT NULL,
		supplier_id TEXT NOT NULL,
		allocation_id TEXT NOT NULL,
		gross TEXT NOT NULL,
		commission TEXT NOT NULL,
		net TEXT NOT NULL,
		currency TEXT NOT NULL,
		booking_date TEXT NOT NULL,
		service_date TEXT NOT NULL,
		entry_month TEXT NOT NULL,
		offset_of TEXT,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_one_entry_per_allocation
		ON ledger_entries(allocation_id) WHERE offset_of IS NULL;
	CREATE INDEX IF NOT EXISTS idx_ledger_settlement_key
		ON ledger_entries(agency_id, entry_month, currency);

	-- Cached rollups + lifecycle. version guards concurrent transitions.
	CREATE TABLE IF NOT EXISTS settlement_summaries (
		agency_id TEXT NOT NULL,
		month TEXT NOT NULL,
		currency TEXT NOT NULL,
		gross TEXT NOT NULL,
		commission TEXT NOT NULL,
		net TEXT NOT NULL,
		entry_count INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		dispute_reason TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (agency_id, month, currency)
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_month
		ON settlement_summaries(month);
	CREATE INDEX IF NOT EXISTS idx_summaries_status
		ON settlement_summaries(status);

	-- Unconditional sell blocks
	CREATE TABLE IF NOT EXISTS stop_sell_rules (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stop_sell_unit
		ON stop_sell_rules(unit_id, date_from, date_to);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG (inventory.Catalog)
// =============================================================================

// PutUnit inserts or updates a sellable unit.
func (s *Store) PutUnit(ctx context.Context, unit inventory.SellableUnit) error {
	query := `
		INSERT INTO sellable_units (id, name, capacity_mode, max_per_day, overbook_allowed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			capacity_mode = excluded.capacity_mode,
			max_per_day = excluded.max_per_day,
			overbook_allowed = excluded.overbook_allowed
	`
	_, err := s.db.ExecContext(ctx, query,
		unit.ID, unit.Name, unit.Mode, unit.MaxPerDay, unit.OverbookAllowed,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetUnit returns the unit, or nil if it does not exist.
func (s *Store) GetUnit(ctx context.Context, id inventory.UnitID) (*inventory.SellableUnit, error) {
	var u inventory.SellableUnit
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, capacity_mode, max_per_day, overbook_allowed FROM sellable_units WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Name, &u.Mode, &u.MaxPerDay, &u.OverbookAllowed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUnits returns all sellable units.
func (s *Store) ListUnits(ctx context.Context) ([]inventory.SellableUnit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, capacity_mode, max_per_day, overbook_allowed FROM sellable_units ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []inventory.SellableUnit
	for rows.Next() {
		var u inventory.SellableUnit
		if err := rows.Scan(&u.ID, &u.Name, &u.Mode, &u.MaxPerDay, &u.OverbookAllowed); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// =============================================================================
// CAPACITY COUNTERS (inventory.Store)
// =============================================================================

// GetCounter returns the counter for unit/date, or nil if the day has
// never been allocated against.
func (s *Store) GetCounter(ctx context.Context, unitID inventory.UnitID, date inventory.Date) (*inventory.DailyCapacityCounter, error) {
	var c inventory.DailyCapacityCounter
	err := s.db.QueryRowContext(ctx,
		"SELECT unit_id, date, consumed, overbooked, version FROM daily_capacity_counters WHERE unit_id = ? AND date = ?",
		unitID, date,
	).Scan(&c.UnitID, &c.Date, &c.Consumed, &c.Overbooked, &c.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PutCounter applies an optimistic insert-or-update. The write only lands
// when the carried version matches the stored row (zero means a fresh
// insert); anything else is a concurrent modification.
func (s *Store) PutCounter(ctx context.Context, counter inventory.DailyCapacityCounter) error {
	if counter.Version == 0 {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO daily_capacity_counters (unit_id, date, consumed, overbooked, version) VALUES (?, ?, ?, ?, 1)",
			counter.UnitID, counter.Date, counter.Consumed, counter.Overbooked,
		)
		if isUniqueConstraintError(err) {
			return inventory.ErrConcurrentModification
		}
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE daily_capacity_counters
		 SET consumed = ?, overbooked = ?, version = version + 1
		 WHERE unit_id = ? AND date = ? AND version = ?`,
		counter.Consumed, counter.Overbooked, counter.UnitID, counter.Date, counter.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrConcurrentModification
	}
	return nil
}

// CountersInRange returns existing counters for a unit over [from, to].
// Days with no counter row are simply absent; the allocator treats them
// as fully available.
func (s *Store) CountersInRange(ctx context.Context, unitID inventory.UnitID, from, to inventory.Date) ([]inventory.DailyCapacityCounter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, date, consumed, overbooked, version
		 FROM daily_capacity_counters
		 WHERE unit_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		unitID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counters []inventory.DailyCapacityCounter
	for rows.Next() {
		var c inventory.DailyCapacityCounter
		if err := rows.Scan(&c.UnitID, &c.Date, &c.Consumed, &c.Overbooked, &c.Version); err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

// =============================================================================
// ALLOCATIONS (inventory.Store)
// =============================================================================

// SaveAllocation appends an allocation record. Append-only.
func (s *Store) SaveAllocation(ctx context.Context, a inventory.Allocation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO allocations (id, unit_id, date, requested_qty, granted, overbook, reason, released, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UnitID, a.Date, a.RequestedQty, a.Granted, a.Overbook, a.Reason, a.Released,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return nil
}

// GetAllocation returns an allocation by ID, or nil if absent.
func (s *Store) GetAllocation(ctx context.Context, id inventory.AllocationID) (*inventory.Allocation, error) {
	var a inventory.Allocation
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, unit_id, date, requested_qty, granted, overbook, reason, released, created_at
		 FROM allocations WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.UnitID, &a.Date, &a.RequestedQty, &a.Granted, &a.Overbook, &a.Reason, &a.Released, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// MarkReleased flips the released flag exactly once.
func (s *Store) MarkReleased(ctx context.Context, id inventory.AllocationID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE allocations SET released = TRUE WHERE id = ? AND released = FALSE",
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := s.GetAllocation(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return inventory.ErrAllocationNotFound
		}
		return inventory.ErrAlreadyReleased
	}
	return nil
}

// =============================================================================
// STOP-SELL (inventory.StopSellChecker)
// =============================================================================

// AddStopSell registers a stop-sell rule.
func (s *Store) AddStopSell(ctx context.Context, rule inventory.StopSellRule) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO stop_sell_rules (id, unit_id, date_from, date_to, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rule.ID, rule.UnitID, rule.From, rule.To, nullString(rule.Reason),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ActiveRule returns the rule blocking unit/date, or nil if selling is open.
func (s *Store) ActiveRule(ctx context.Context, unitID inventory.UnitID, date inventory.Date) (*inventory.StopSellRule, error) {
	var r inventory.StopSellRule
	var reason sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, unit_id, date_from, date_to, reason FROM stop_sell_rules
		 WHERE unit_id = ? AND date_from <= ? AND date_to >= ?
		 LIMIT 1`,
		unitID, date, date,
	).Scan(&r.ID, &r.UnitID, &r.From, &r.To, &reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Reason = reason.String
	return &r, nil
}

// =============================================================================
// LEDGER (ledger.Store)
// =============================================================================

// Append persists a ledger entry. Append-only; a second non-offset entry
// for the same allocation violates the partial unique index and maps to
// ErrDuplicateEntry.
func (s *Store) Append(ctx context.Context, e ledger.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_entries
		 (id, booking_id, agency_id, supplier_id, allocation_id, gross, commission, net,
		  currency, booking_date, service_date, entry_month, offset_of, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BookingID, e.AgencyID, e.SupplierID, e.AllocationID,
		e.Gross.String(), e.Commission.String(), e.Net.String(),
		e.Currency, e.BookingDate, e.ServiceDate, e.EntryMonth,
		nullString(string(e.OffsetOf)), nullString(e.Reason),
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// GetByID returns an entry, or nil if absent.
func (s *Store) GetByID(ctx context.Context, id ledger.EntryID) (*ledger.Entry, error) {
	return s.queryOneEntry(ctx, "WHERE id = ?", id)
}

// GetByAllocation returns the non-offset entry for an allocation, or nil.
func (s *Store) GetByAllocation(ctx context.Context, id inventory.AllocationID) (*ledger.Entry, error) {
	return s.queryOneEntry(ctx, "WHERE allocation_id = ? AND offset_of IS NULL", id)
}

// ListByKey returns all entries for one agency/month/currency bucket.
func (s *Store) ListByKey(ctx context.Context, key ledger.Key) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		entrySelect+` WHERE agency_id = ? AND entry_month = ? AND currency = ?
		 ORDER BY created_at ASC, id ASC`,
		key.AgencyID, key.Month, key.Currency,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListKeys returns every distinct settlement bucket present in the ledger.
func (s *Store) ListKeys(ctx context.Context) ([]ledger.Key, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT agency_id, entry_month, currency FROM ledger_entries
		 ORDER BY entry_month, agency_id, currency`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []ledger.Key
	for rows.Next() {
		var k ledger.Key
		if err := rows.Scan(&k.AgencyID, &k.Month, &k.Currency); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

const entrySelect = `
	SELECT id, booking_id, agency_id, supplier_id, allocation_id, gross, commission, net,
	       currency, booking_date, service_date, entry_month, offset_of, reason, created_at
	FROM ledger_entries`

func (s *Store) queryOneEntry(ctx context.Context, where string, args ...any) (*ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, entrySelect+" "+where+" LIMIT 1", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func scanEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for rows.Next() {
		var (
			e          ledger.Entry
			gross      string
			commission string
			net        string
			offsetOf   sql.NullString
			reason     sql.NullString
			createdAt  string
		)
		if err := rows.Scan(
			&e.ID, &e.BookingID, &e.AgencyID, &e.SupplierID, &e.AllocationID,
			&gross, &commission, &net,
			&e.Currency, &e.BookingDate, &e.ServiceDate, &e.EntryMonth,
			&offsetOf, &reason, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Gross = mustDecimal(gross)
		e.Commission = mustDecimal(commission)
		e.Net = mustDecimal(net)
		e.OffsetOf = ledger.EntryID(offsetOf.String)
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SETTLEMENT SUMMARIES (settlement.Store)
// =============================================================================

// GetSummary returns the summary for a key, or nil if none exists yet.
func (s *Store) GetSummary(ctx context.Context, key ledger.Key) (*settlement.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		summarySelect+" WHERE agency_id = ? AND month = ? AND currency = ?",
		key.AgencyID, key.Month, key.Currency,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return &summaries[0], nil
}

// PutSummary applies an optimistic insert-or-update, mirroring PutCounter.
func (s *Store) PutSummary(ctx context.Context, sum settlement.Summary) error {
	updatedAt := sum.UpdatedAt.Format(time.RFC3339)

	if sum.Version == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO settlement_summaries
			 (agency_id, month, currency, gross, commission, net, entry_count, status, dispute_reason, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			sum.Key.AgencyID, sum.Key.Month, sum.Key.Currency,
			sum.Gross.String(), sum.Commission.String(), sum.Net.String(),
			sum.EntryCount, sum.Status, nullString(sum.DisputeReason), updatedAt,
		)
		if isUniqueConstraintError(err) {
			return settlement.ErrConcurrentModification
		}
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE settlement_summaries
		 SET gross = ?, commission = ?, net = ?, entry_count = ?,
		     status = ?, dispute_reason = ?, version = version + 1, updated_at = ?
		 WHERE agency_id = ? AND month = ? AND currency = ? AND version = ?`,
		sum.Gross.String(), sum.Commission.String(), sum.Net.String(), sum.EntryCount,
		sum.Status, nullString(sum.DisputeReason), updatedAt,
		sum.Key.AgencyID, sum.Key.Month, sum.Key.Currency, sum.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return settlement.ErrConcurrentModification
	}
	return nil
}

// ListSummaries returns summaries matching the filter.
func (s *Store) ListSummaries(ctx context.Context, f settlement.Filter) ([]settlement.Summary, error) {
	var clauses []string
	var args []any
	if f.AgencyID != "" {
		clauses = append(clauses, "agency_id = ?")
		args = append(args, f.AgencyID)
	}
	if f.Month != "" {
		clauses = append(clauses, "month = ?")
		args = append(args, f.Month)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}

	query := summarySelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY month ASC, agency_id ASC, currency ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

const summarySelect = `
	SELECT agency_id, month, currency, gross, commission, net, entry_count,
	       status, dispute_reason, version, updated_at
	FROM settlement_summaries`

func scanSummaries(rows *sql.Rows) ([]settlement.Summary, error) {
	var summaries []settlement.Summary
	for rows.Next() {
		var (
			sum           settlement.Summary
			gross         string
			commission    string
			net           string
			disputeReason sql.NullString
			updatedAt     string
		)
		if err := rows.Scan(
			&sum.Key.AgencyID, &sum.Key.Month, &sum.Key.Currency,
			&gross, &commission, &net, &sum.EntryCount,
			&sum.Status, &disputeReason, &sum.Version, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement summary: %w", err)
		}
		sum.Gross = mustDecimal(gross)
		sum.Commission = mustDecimal(commission)
		sum.Net = mustDecimal(net)
		sum.DisputeReason = disputeReason.String
		sum.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"settlement_summaries", "ledger_entries", "allocations",
		"daily_capacity_counters", "stop_sell_rules", "sellable_units",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
