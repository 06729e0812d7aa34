/*
Package sqlite provides a SQLite-backed implementation of the leave
repository contracts.

PURPOSE:
  Implements leave.Repository (requests, schedules, allowance figures,
  directory data) using SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

THE SLOT INVARIANT:
  At most one live request may occupy a given (user, date, half) cell.
  This is enforced at the storage boundary, not only in application
  code: every live request's slots are materialised into request_slots,
  which carries

    CREATE UNIQUE INDEX idx_unique_live_slot
        ON request_slots(user_id, date, half)

  The request row and its slot rows are written in one transaction, so
  two concurrent submissions for the same user cannot both commit - the
  loser's slot insert violates the index and the whole transaction rolls
  back. When a request reaches a terminal status its slot rows are
  deleted in the same transaction as the status update, freeing the
  cells for future bookings.

AMOUNT STORAGE:
  Day quantities (nominal allowances, adjustments, carry-over, annual
  limits) are stored as decimal strings, never as floats.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := leave.NewAllowanceEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/repository.go: Interface definitions and atomicity contract
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// Store implements leave.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases coherent; all access is
	// serialized by the store mutex anyway.
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
	-- Tenants. carry_over: 0 = none, -1 = unlimited, N = cap in days.
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		carry_over INTEGER NOT NULL DEFAULT 0,
		default_week TEXT NOT NULL DEFAULT '1111100',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		auto_approve BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		uses_allowance BOOLEAN NOT NULL DEFAULT TRUE,
		annual_limit TEXT,
		display_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_leave_types_company ON leave_types(company_id);

	-- Work schedules. At most one row per user override and one per
	-- company; pattern is Mon..Sun as '1'/'0'.
	CREATE TABLE IF NOT EXISTS schedules (
		scope TEXT NOT NULL,
		company_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		pattern TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_user
		ON schedules(user_id) WHERE scope = 'user';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_company
		ON schedules(company_id) WHERE scope = 'company';

	CREATE TABLE IF NOT EXISTS holidays (
		company_id TEXT NOT NULL,
		date TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		UNIQUE(company_id, date)
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		approver_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		start_part TEXT NOT NULL,
		end_date TEXT NOT NULL,
		end_part TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user ON requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_user_status ON requests(user_id, status);

	-- CRITICAL: one live booking per (user, date, half). Slot rows exist
	-- only while their request is live; they are deleted in the same
	-- transaction that moves the request to a terminal status.
	CREATE TABLE IF NOT EXISTS request_slots (
		request_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		half TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_live_slot
		ON request_slots(user_id, date, half);
	CREATE INDEX IF NOT EXISTS idx_request_slots_request
		ON request_slots(request_id);

	-- Allowance figures, one row per user-year, amounts as decimal strings.
	CREATE TABLE IF NOT EXISTS nominal_allowances (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE(user_id, year)
	);

	CREATE TABLE IF NOT EXISTS adjustments (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE(user_id, year)
	);

	CREATE TABLE IF NOT EXISTS carry_over (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE(user_id, year)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUEST STORE
// =============================================================================

// CreateRequest inserts the request and, while it is live, its slot rows
// in one transaction. A unique-index violation on the slots maps to a
// *leave.OverlapError naming the conflicting live requests.
func (s *Store) CreateRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests
		(id, user_id, approver_id, leave_type_id, start_date, start_part, end_date, end_part, status, reason, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ApproverID, r.LeaveTypeID,
		r.Interval.Start.String(), string(r.Interval.StartPart),
		r.Interval.End.String(), string(r.Interval.EndPart),
		string(r.Status), r.Reason,
		r.CreatedAt.UTC().Format(time.RFC3339), nullTime(r.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	if r.Status.IsLive() {
		for _, slot := range r.Interval.Slots() {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO request_slots (request_id, user_id, date, half) VALUES (?, ?, ?, ?)`,
				r.ID, r.UserID, slot.Date.String(), string(slot.Half),
			)
			if err != nil {
				if isUniqueConstraintError(err) {
					// The violation aborts only the statement; the
					// transaction stays readable for conflict lookup
					// and is rolled back on return.
					return overlapError(ctx, tx, r)
				}
				return fmt.Errorf("failed to insert slot: %w", err)
			}
		}
	}

	return tx.Commit()
}

// overlapError rebuilds the conflict detail after a slot uniqueness
// violation, reading through the still-open transaction and skipping the
// candidate's own partially inserted rows.
func overlapError(ctx context.Context, tx *sql.Tx, r leave.Request) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT request_id FROM request_slots
		WHERE user_id = ? AND date >= ? AND date <= ? AND request_id != ?`,
		r.UserID, r.Interval.Start.String(), r.Interval.End.String(), r.ID,
	)
	if err != nil {
		return &leave.OverlapError{UserID: r.UserID, Candidate: r.Interval}
	}
	defer rows.Close()

	var ids []leave.RequestID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, leave.RequestID(id))
	}
	rows.Close()

	var conflicts []leave.Request
	for _, id := range ids {
		row := tx.QueryRowContext(ctx, `
			SELECT id, user_id, approver_id, leave_type_id, start_date, start_part, end_date, end_part, status, reason, created_at, decided_at
			FROM requests WHERE id = ?`, id)
		existing, err := scanRequest(row)
		if err == nil && leave.Overlaps(r.Interval, existing.Interval) {
			conflicts = append(conflicts, existing)
		}
	}
	return &leave.OverlapError{UserID: r.UserID, Candidate: r.Interval, Conflicts: conflicts}
}

// UpdateRequest persists a status change; terminal statuses release the
// request's slots in the same transaction.
func (s *Store) UpdateRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, decided_at = ? WHERE id = ?`,
		string(r.Status), nullTime(r.DecidedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}

	if !r.Status.IsLive() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM request_slots WHERE request_id = ?`, r.ID); err != nil {
			return fmt.Errorf("failed to release slots: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) RequestByID(ctx context.Context, id leave.RequestID) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requestByIDLocked(ctx, id)
}

func (s *Store) requestByIDLocked(ctx context.Context, id leave.RequestID) (leave.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, approver_id, leave_type_id, start_date, start_part, end_date, end_part, status, reason, created_at, decided_at
		FROM requests WHERE id = ?`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, err
}

func (s *Store) LiveRequests(ctx context.Context, userID leave.UserID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx, `
		SELECT id, user_id, approver_id, leave_type_id, start_date, start_part, end_date, end_part, status, reason, created_at, decided_at
		FROM requests
		WHERE user_id = ? AND status IN ('pending', 'approved', 'pending_revoke')
		ORDER BY start_date ASC, id ASC`, userID)
}

func (s *Store) RequestsByUser(ctx context.Context, userID leave.UserID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx, `
		SELECT id, user_id, approver_id, leave_type_id, start_date, start_part, end_date, end_part, status, reason, created_at, decided_at
		FROM requests
		WHERE user_id = ?
		ORDER BY start_date ASC, id ASC`, userID)
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]leave.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (leave.Request, error) {
	var (
		r                  leave.Request
		startDate, endDate string
		startPart, endPart string
		status             string
		reason             sql.NullString
		createdAt          string
		decidedAt          sql.NullString
	)

	err := row.Scan(&r.ID, &r.UserID, &r.ApproverID, &r.LeaveTypeID,
		&startDate, &startPart, &endDate, &endPart, &status, &reason, &createdAt, &decidedAt)
	if err != nil {
		return r, err
	}

	start, err := leave.ParseDate(startDate)
	if err != nil {
		return r, fmt.Errorf("corrupt start_date %q: %w", startDate, err)
	}
	end, err := leave.ParseDate(endDate)
	if err != nil {
		return r, fmt.Errorf("corrupt end_date %q: %w", endDate, err)
	}

	r.Interval = leave.Interval{
		Start:     start,
		StartPart: leave.DayPart(startPart),
		End:       end,
		EndPart:   leave.DayPart(endPart),
	}
	r.Status = leave.RequestStatus(status)
	r.Reason = reason.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		r.DecidedAt = &t
	}
	return r, nil
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

func (s *Store) FindSchedules(ctx context.Context, userID leave.UserID, companyID leave.CompanyID) ([]leave.WorkSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, company_id, user_id, pattern FROM schedules
		WHERE (scope = 'user' AND user_id = ?) OR (scope = 'company' AND company_id = ?)`,
		userID, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []leave.WorkSchedule
	for rows.Next() {
		var scope, cid, uid, pattern string
		if err := rows.Scan(&scope, &cid, &uid, &pattern); err != nil {
			return nil, err
		}
		wp, err := decodePattern(pattern)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, leave.WorkSchedule{
			Scope:     leave.ScheduleScope(scope),
			CompanyID: leave.CompanyID(cid),
			UserID:    leave.UserID(uid),
			Pattern:   wp,
		})
	}
	return schedules, rows.Err()
}

func (s *Store) SaveSchedule(ctx context.Context, ws leave.WorkSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws.Scope == leave.ScopeUser {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO schedules (scope, company_id, user_id, pattern) VALUES ('user', ?, ?, ?)
			ON CONFLICT(user_id) WHERE scope = 'user' DO UPDATE SET pattern = excluded.pattern`,
			ws.CompanyID, ws.UserID, encodePattern(ws.Pattern),
		)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (scope, company_id, user_id, pattern) VALUES ('company', ?, '', ?)
		ON CONFLICT(company_id) WHERE scope = 'company' DO UPDATE SET pattern = excluded.pattern`,
		ws.CompanyID, encodePattern(ws.Pattern),
	)
	return err
}

func (s *Store) DeleteUserSchedule(ctx context.Context, userID leave.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE scope = 'user' AND user_id = ?`, userID)
	return err
}

// Weekdays in storage order: Mon..Sun.
var patternOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func encodePattern(wp leave.WeekPattern) string {
	var b strings.Builder
	for _, day := range patternOrder {
		if wp[day] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func decodePattern(s string) (leave.WeekPattern, error) {
	if len(s) != 7 {
		return nil, fmt.Errorf("corrupt schedule pattern %q", s)
	}
	wp := make(leave.WeekPattern, 7)
	for i, day := range patternOrder {
		wp[day] = s[i] == '1'
	}
	return wp, nil
}

// =============================================================================
// ALLOWANCE STORE
// =============================================================================

func (s *Store) Nominal(ctx context.Context, userID leave.UserID, year int) (decimal.Decimal, error) {
	return s.amountFor(ctx, "nominal_allowances", userID, year)
}

func (s *Store) Adjustment(ctx context.Context, userID leave.UserID, year int) (decimal.Decimal, error) {
	return s.amountFor(ctx, "adjustments", userID, year)
}

func (s *Store) SaveAdjustment(ctx context.Context, userID leave.UserID, year int, amount decimal.Decimal) error {
	return s.saveAmount(ctx, "adjustments", userID, year, amount)
}

func (s *Store) CarryOver(ctx context.Context, userID leave.UserID, year int) (decimal.Decimal, error) {
	return s.amountFor(ctx, "carry_over", userID, year)
}

func (s *Store) SaveCarryOver(ctx context.Context, userID leave.UserID, year int, amount decimal.Decimal) error {
	return s.saveAmount(ctx, "carry_over", userID, year, amount)
}

// SaveNominal records a user's annual entitlement.
func (s *Store) SaveNominal(ctx context.Context, userID leave.UserID, year int, amount decimal.Decimal) error {
	return s.saveAmount(ctx, "nominal_allowances", userID, year, amount)
}

func (s *Store) amountFor(ctx context.Context, table string, userID leave.UserID, year int) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var amount string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT amount FROM %s WHERE user_id = ? AND year = ?", table),
		userID, year,
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(amount)
}

func (s *Store) saveAmount(ctx context.Context, table string, userID leave.UserID, year int, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, year, amount) VALUES (?, ?, ?)
		ON CONFLICT(user_id, year) DO UPDATE SET amount = excluded.amount`, table),
		userID, year, amount.String(),
	)
	return err
}

// =============================================================================
// DIRECTORY STORE
// =============================================================================

func (s *Store) UserByID(ctx context.Context, id leave.UserID) (leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u         leave.User
		startDate string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, name, start_date, auto_approve, active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.CompanyID, &u.Name, &startDate, &u.AutoApprove, &u.Active)
	if err == sql.ErrNoRows {
		return leave.User{}, leave.ErrNotFound
	}
	if err != nil {
		return leave.User{}, err
	}
	u.StartDate, err = leave.ParseDate(startDate)
	return u, err
}

func (s *Store) ActiveUsers(ctx context.Context, companyID leave.CompanyID) ([]leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, start_date, auto_approve, active FROM users
		 WHERE company_id = ? AND active = TRUE ORDER BY id`, companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []leave.User
	for rows.Next() {
		var (
			u         leave.User
			startDate string
		)
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.Name, &startDate, &u.AutoApprove, &u.Active); err != nil {
			return nil, err
		}
		if u.StartDate, err = leave.ParseDate(startDate); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveUser creates or updates a user record.
func (s *Store) SaveUser(ctx context.Context, u leave.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, company_id, name, start_date, auto_approve, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			auto_approve = excluded.auto_approve,
			active = excluded.active`,
		u.ID, u.CompanyID, u.Name, u.StartDate.String(), u.AutoApprove, u.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) LeaveTypeByID(ctx context.Context, id leave.LeaveTypeID) (leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		lt    leave.LeaveType
		limit sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, name, uses_allowance, annual_limit, display_order FROM leave_types WHERE id = ?`, id,
	).Scan(&lt.ID, &lt.CompanyID, &lt.Name, &lt.UsesAllowance, &limit, &lt.DisplayOrder)
	if err == sql.ErrNoRows {
		return leave.LeaveType{}, leave.ErrNotFound
	}
	if err != nil {
		return leave.LeaveType{}, err
	}
	if limit.Valid {
		d, err := decimal.NewFromString(limit.String)
		if err != nil {
			return leave.LeaveType{}, fmt.Errorf("corrupt annual_limit %q: %w", limit.String, err)
		}
		lt.AnnualLimit = &d
	}
	return lt, nil
}

func (s *Store) LeaveTypes(ctx context.Context, companyID leave.CompanyID) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, uses_allowance, annual_limit, display_order
		 FROM leave_types WHERE company_id = ? ORDER BY display_order, name`, companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		var (
			lt    leave.LeaveType
			limit sql.NullString
		)
		if err := rows.Scan(&lt.ID, &lt.CompanyID, &lt.Name, &lt.UsesAllowance, &limit, &lt.DisplayOrder); err != nil {
			return nil, err
		}
		if limit.Valid {
			d, err := decimal.NewFromString(limit.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt annual_limit %q: %w", limit.String, err)
			}
			lt.AnnualLimit = &d
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

// SaveLeaveType creates or updates a leave type.
func (s *Store) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var limit *string
	if lt.AnnualLimit != nil {
		v := lt.AnnualLimit.String()
		limit = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types (id, company_id, name, uses_allowance, annual_limit, display_order)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			uses_allowance = excluded.uses_allowance,
			annual_limit = excluded.annual_limit,
			display_order = excluded.display_order`,
		lt.ID, lt.CompanyID, lt.Name, lt.UsesAllowance, limit, lt.DisplayOrder,
	)
	return err
}

func (s *Store) Holidays(ctx context.Context, companyID leave.CompanyID) (leave.HolidaySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM holidays WHERE company_id = ?`, companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := leave.HolidaySet{}
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, err
		}
		d, err := leave.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt holiday date %q: %w", dateStr, err)
		}
		set[d] = struct{}{}
	}
	return set, rows.Err()
}

// SaveHoliday records a non-working date for the company.
func (s *Store) SaveHoliday(ctx context.Context, companyID leave.CompanyID, date leave.Date, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (company_id, date, name) VALUES (?, ?, ?)
		ON CONFLICT(company_id, date) DO UPDATE SET name = excluded.name`,
		companyID, date.String(), name,
	)
	return err
}

// DeleteHoliday removes a holiday.
func (s *Store) DeleteHoliday(ctx context.Context, companyID leave.CompanyID, date leave.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM holidays WHERE company_id = ? AND date = ?`, companyID, date.String())
	return err
}

func (s *Store) CompanyConfig(ctx context.Context, companyID leave.CompanyID) (leave.CompanyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		carryOver int
		week      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT carry_over, default_week FROM companies WHERE id = ?`, companyID,
	).Scan(&carryOver, &week)
	if err == sql.ErrNoRows {
		return leave.CompanyConfig{}, leave.ErrNotFound
	}
	if err != nil {
		return leave.CompanyConfig{}, err
	}

	wp, err := decodePattern(week)
	if err != nil {
		return leave.CompanyConfig{}, err
	}

	cfg := leave.CompanyConfig{CompanyID: companyID, DefaultWeek: wp}
	if carryOver < 0 {
		cfg.CarryOver = leave.CarryOverUnlimited()
	} else {
		cfg.CarryOver = leave.CarryOverUpTo(carryOver)
	}
	return cfg, nil
}

// SaveCompany creates or updates a tenant. carryOver < 0 means unlimited.
func (s *Store) SaveCompany(ctx context.Context, companyID leave.CompanyID, name string, carryOver int, defaultWeek leave.WeekPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, carry_over, default_week, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			carry_over = excluded.carry_over,
			default_week = excluded.default_week`,
		companyID, name, carryOver, encodePattern(defaultWeek),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
