package activity

import (
	"context"
	"slices"
	"sync"

	"github.com/goliatone/go-directory/pkg/types"
	"github.com/google/uuid"
)

// MemoryLog keeps activity records in process. It is the default sink for
// hosts that do not configure a database.
type MemoryLog struct {
	mu      sync.RWMutex
	records []types.ActivityRecord
	clock   types.Clock
	idGen   types.IDGenerator
}

// NewMemoryLog returns an empty log. Nil collaborators fall back to the
// system clock and random UUIDs.
func NewMemoryLog(clock types.Clock, idGen types.IDGenerator) *MemoryLog {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &MemoryLog{clock: clock, idGen: idGen}
}

var (
	_ types.ActivitySink       = (*MemoryLog)(nil)
	_ types.ActivityRepository = (*MemoryLog)(nil)
)

// Log appends record.
func (m *MemoryLog) Log(_ context.Context, record types.ActivityRecord) error {
	if record.ID == uuid.Nil {
		record.ID = m.idGen.UUID()
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = m.clock.Now()
	}
	record.Data = cloneMap(record.Data)

	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()
	return nil
}

// ListActivity returns matching records newest first. Records logged with the
// same timestamp keep reverse insertion order.
func (m *MemoryLog) ListActivity(_ context.Context, filter types.ActivityFilter) (types.ActivityPage, error) {
	pagination := normalizePagination(filter.Pagination, defaultPageSize, maxPageSize)

	m.mu.RLock()
	matched := make([]types.ActivityRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		if matchesFilter(m.records[i], filter) {
			matched = append(matched, m.records[i])
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b types.ActivityRecord) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})

	total := len(matched)
	start := min(pagination.Offset, total)
	end := min(start+pagination.Limit, total)
	records := make([]types.ActivityRecord, 0, end-start)
	for _, record := range matched[start:end] {
		record.Data = cloneMap(record.Data)
		records = append(records, record)
	}
	return newPage(records, total, pagination), nil
}

// CountByVerb aggregates the records matching filter per verb.
func (m *MemoryLog) CountByVerb(_ context.Context, filter types.ActivityFilter) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, record := range m.records {
		if matchesFilter(record, filter) {
			counts[record.Verb]++
		}
	}
	return counts, nil
}

// Len reports how many records were logged.
func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func matchesFilter(record types.ActivityRecord, filter types.ActivityFilter) bool {
	if filter.ActorID != uuid.Nil && record.ActorID != filter.ActorID {
		return false
	}
	if len(filter.Verbs) > 0 && !slices.Contains(filter.Verbs, record.Verb) {
		return false
	}
	if filter.ObjectType != "" && record.ObjectType != filter.ObjectType {
		return false
	}
	if filter.ObjectID != "" && record.ObjectID != filter.ObjectID {
		return false
	}
	if filter.Since != nil && !filter.Since.IsZero() && record.OccurredAt.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && !filter.Until.IsZero() && record.OccurredAt.After(*filter.Until) {
		return false
	}
	return true
}
