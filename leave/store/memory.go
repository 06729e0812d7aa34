// Package store provides an in-memory Repository implementation for
// tests and development. The (user, date, half) slot invariant is
// enforced the same way the SQLite store enforces it: occupancy is
// checked and written under one lock, so concurrent submissions for the
// same user cannot both land.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	requests  map[leave.RequestID]leave.Request
	slots     map[slotKey]leave.RequestID // live slots only
	schedules []leave.WorkSchedule

	nominal    map[userYear]decimal.Decimal
	adjustment map[userYear]decimal.Decimal
	carryOver  map[userYear]decimal.Decimal

	users      map[leave.UserID]leave.User
	leaveTypes map[leave.LeaveTypeID]leave.LeaveType
	holidays   map[leave.CompanyID]leave.HolidaySet
	configs    map[leave.CompanyID]leave.CompanyConfig

	// failures lets tests make one user's allowance reads fail, to
	// exercise batch failure isolation.
	failures map[leave.UserID]error
}

type slotKey struct {
	User leave.UserID
	Date string
	Half leave.Half
}

type userYear struct {
	User leave.UserID
	Year int
}

func NewMemory() *Memory {
	return &Memory{
		requests:   make(map[leave.RequestID]leave.Request),
		slots:      make(map[slotKey]leave.RequestID),
		nominal:    make(map[userYear]decimal.Decimal),
		adjustment: make(map[userYear]decimal.Decimal),
		carryOver:  make(map[userYear]decimal.Decimal),
		users:      make(map[leave.UserID]leave.User),
		leaveTypes: make(map[leave.LeaveTypeID]leave.LeaveType),
		holidays:   make(map[leave.CompanyID]leave.HolidaySet),
		configs:    make(map[leave.CompanyID]leave.CompanyConfig),
		failures:   make(map[leave.UserID]error),
	}
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (m *Memory) CreateRequest(_ context.Context, r leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Atomic check-then-write: occupancy check and slot registration
	// happen under the same lock.
	var conflicts []leave.Request
	seen := map[leave.RequestID]bool{}
	for _, s := range r.Interval.Slots() {
		if existingID, taken := m.slots[slotKey{User: r.UserID, Date: s.Date.String(), Half: s.Half}]; taken && !seen[existingID] {
			seen[existingID] = true
			conflicts = append(conflicts, m.requests[existingID])
		}
	}
	if len(conflicts) > 0 {
		return &leave.OverlapError{UserID: r.UserID, Candidate: r.Interval, Conflicts: conflicts}
	}

	m.requests[r.ID] = r
	if r.Status.IsLive() {
		m.registerSlots(r)
	}
	return nil
}

func (m *Memory) UpdateRequest(_ context.Context, r leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[r.ID]; !ok {
		return leave.ErrNotFound
	}
	m.requests[r.ID] = r
	if !r.Status.IsLive() {
		m.releaseSlots(r)
	}
	return nil
}

func (m *Memory) registerSlots(r leave.Request) {
	for _, s := range r.Interval.Slots() {
		m.slots[slotKey{User: r.UserID, Date: s.Date.String(), Half: s.Half}] = r.ID
	}
}

func (m *Memory) releaseSlots(r leave.Request) {
	for _, s := range r.Interval.Slots() {
		k := slotKey{User: r.UserID, Date: s.Date.String(), Half: s.Half}
		if m.slots[k] == r.ID {
			delete(m.slots, k)
		}
	}
}

func (m *Memory) RequestByID(_ context.Context, id leave.RequestID) (leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, nil
}

func (m *Memory) LiveRequests(_ context.Context, userID leave.UserID) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.Request
	for _, r := range m.requests {
		if r.UserID == userID && r.Status.IsLive() {
			out = append(out, r)
		}
	}
	sortByStart(out)
	return out, nil
}

func (m *Memory) RequestsByUser(_ context.Context, userID leave.UserID) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.Request
	for _, r := range m.requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(rs []leave.Request) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Interval.Start.Equal(rs[j].Interval.Start) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].Interval.Start.Before(rs[j].Interval.Start)
	})
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

func (m *Memory) FindSchedules(_ context.Context, userID leave.UserID, companyID leave.CompanyID) ([]leave.WorkSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.WorkSchedule
	for _, s := range m.schedules {
		if s.Scope == leave.ScopeUser && s.UserID == userID {
			out = append(out, s)
		}
		if s.Scope == leave.ScopeCompany && s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) SaveSchedule(_ context.Context, s leave.WorkSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.schedules {
		if existing.Scope != s.Scope {
			continue
		}
		if s.Scope == leave.ScopeUser && existing.UserID == s.UserID {
			m.schedules[i] = s
			return nil
		}
		if s.Scope == leave.ScopeCompany && existing.CompanyID == s.CompanyID {
			m.schedules[i] = s
			return nil
		}
	}
	m.schedules = append(m.schedules, s)
	return nil
}

func (m *Memory) DeleteUserSchedule(_ context.Context, userID leave.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.schedules[:0]
	for _, s := range m.schedules {
		if s.Scope == leave.ScopeUser && s.UserID == userID {
			continue
		}
		kept = append(kept, s)
	}
	m.schedules = kept
	return nil
}

// InjectScheduleRow appends a raw schedule row without replacing an
// existing one. Tests use it to fabricate the corrupt multi-row shapes
// the resolver must detect.
func (m *Memory) InjectScheduleRow(s leave.WorkSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, s)
}

// =============================================================================
// ALLOWANCE STORE
// =============================================================================

func (m *Memory) Nominal(_ context.Context, userID leave.UserID, year int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[userID]; err != nil {
		return decimal.Zero, err
	}
	return m.nominal[userYear{User: userID, Year: year}], nil
}

func (m *Memory) Adjustment(_ context.Context, userID leave.UserID, year int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adjustment[userYear{User: userID, Year: year}], nil
}

func (m *Memory) SaveAdjustment(_ context.Context, userID leave.UserID, year int, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustment[userYear{User: userID, Year: year}] = amount
	return nil
}

func (m *Memory) CarryOver(_ context.Context, userID leave.UserID, year int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.carryOver[userYear{User: userID, Year: year}], nil
}

func (m *Memory) SaveCarryOver(_ context.Context, userID leave.UserID, year int, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carryOver[userYear{User: userID, Year: year}] = amount
	return nil
}

// =============================================================================
// DIRECTORY STORE
// =============================================================================

func (m *Memory) UserByID(_ context.Context, id leave.UserID) (leave.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return leave.User{}, leave.ErrNotFound
	}
	return u, nil
}

func (m *Memory) ActiveUsers(_ context.Context, companyID leave.CompanyID) ([]leave.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.User
	for _, u := range m.users {
		if u.CompanyID == companyID && u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) LeaveTypeByID(_ context.Context, id leave.LeaveTypeID) (leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lt, ok := m.leaveTypes[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrNotFound
	}
	return lt, nil
}

func (m *Memory) LeaveTypes(_ context.Context, companyID leave.CompanyID) ([]leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.LeaveType
	for _, lt := range m.leaveTypes {
		if lt.CompanyID == companyID {
			out = append(out, lt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *Memory) Holidays(_ context.Context, companyID leave.CompanyID) (leave.HolidaySet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if hs, ok := m.holidays[companyID]; ok {
		return hs, nil
	}
	return leave.HolidaySet{}, nil
}

func (m *Memory) SaveHoliday(_ context.Context, companyID leave.CompanyID, date leave.Date, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hs, ok := m.holidays[companyID]
	if !ok {
		hs = leave.HolidaySet{}
		m.holidays[companyID] = hs
	}
	hs[date] = struct{}{}
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, companyID leave.CompanyID, date leave.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hs, ok := m.holidays[companyID]; ok {
		delete(hs, date)
	}
	return nil
}

func (m *Memory) CompanyConfig(_ context.Context, companyID leave.CompanyID) (leave.CompanyConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if cfg, ok := m.configs[companyID]; ok {
		return cfg, nil
	}
	return leave.CompanyConfig{
		CompanyID:   companyID,
		CarryOver:   leave.CarryOverNone(),
		DefaultWeek: leave.DefaultWeek(),
	}, nil
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (m *Memory) AddUser(u leave.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) AddLeaveType(lt leave.LeaveType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveTypes[lt.ID] = lt
}

func (m *Memory) SetNominal(userID leave.UserID, year int, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nominal[userYear{User: userID, Year: year}] = amount
}

func (m *Memory) SetHolidays(companyID leave.CompanyID, hs leave.HolidaySet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[companyID] = hs
}

func (m *Memory) SetConfig(cfg leave.CompanyConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.CompanyID] = cfg
}

// FailAllowanceReads makes every allowance read for the user return err.
func (m *Memory) FailAllowanceReads(userID leave.UserID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[userID] = err
}
