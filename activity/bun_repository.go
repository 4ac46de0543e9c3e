package activity

import (
	"context"
	"errors"

	"github.com/goliatone/go-directory/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// RepositoryConfig wires the Bun-backed activity repository.
type RepositoryConfig struct {
	DB    *bun.DB
	Clock types.Clock
	IDGen types.IDGenerator
}

// Repository writes directory notifications to directory_activity and serves
// the feed and per-verb counts from it.
type Repository struct {
	entries repository.Repository[*LogEntry]
	db      *bun.DB
	clock   types.Clock
	idGen   types.IDGenerator
}

// NewRepository builds the sink and feed over cfg.DB.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("activity: db required")
	}
	repo := &Repository{
		entries: repository.NewRepository(cfg.DB, logEntryHandlers()),
		db:      cfg.DB,
		clock:   cfg.Clock,
		idGen:   cfg.IDGen,
	}
	if repo.clock == nil {
		repo.clock = types.SystemClock{}
	}
	if repo.idGen == nil {
		repo.idGen = types.UUIDGenerator{}
	}
	return repo, nil
}

func logEntryHandlers() repository.ModelHandlers[*LogEntry] {
	return repository.ModelHandlers[*LogEntry]{
		NewRecord: func() *LogEntry { return &LogEntry{} },
		GetID:     func(entry *LogEntry) uuid.UUID { return entry.ID },
		SetID:     func(entry *LogEntry, id uuid.UUID) { entry.ID = id },
	}
}

var (
	_ types.ActivitySink       = (*Repository)(nil)
	_ types.ActivityRepository = (*Repository)(nil)
)

// Log stamps the record with an ID and time when missing and inserts it.
func (r *Repository) Log(ctx context.Context, record types.ActivityRecord) error {
	entry := toLogEntry(record)
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	_, err := r.entries.Create(ctx, entry)
	return err
}

// ListActivity returns a paginated feed, newest first.
func (r *Repository) ListActivity(ctx context.Context, filter types.ActivityFilter) (types.ActivityPage, error) {
	pagination := normalizePagination(filter.Pagination, defaultPageSize, maxPageSize)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.OrderExpr("created_at DESC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
			return applyActivityFilter(q, filter)
		},
	}

	rows, total, err := r.entries.List(ctx, criteria...)
	if err != nil {
		return types.ActivityPage{}, err
	}
	records := make([]types.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toActivityRecord(row))
	}
	return newPage(records, total, pagination), nil
}

// CountByVerb aggregates the records matching filter per verb. Pagination is
// ignored.
func (r *Repository) CountByVerb(ctx context.Context, filter types.ActivityFilter) (map[string]int, error) {
	query := r.db.NewSelect().
		Table("directory_activity").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("verb").
		Group("verb")
	query = applyActivityFilter(query, filter)

	type row struct {
		Verb  string `bun:"verb"`
		Total int    `bun:"total"`
	}
	var rows []row
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, rec := range rows {
		counts[rec.Verb] = rec.Total
	}
	return counts, nil
}

func applyActivityFilter(q *bun.SelectQuery, filter types.ActivityFilter) *bun.SelectQuery {
	if filter.ActorID != uuid.Nil {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if len(filter.Verbs) > 0 {
		q = q.Where("verb IN (?)", bun.In(filter.Verbs))
	}
	if filter.ObjectType != "" {
		q = q.Where("object_type = ?", filter.ObjectType)
	}
	if filter.ObjectID != "" {
		q = q.Where("object_id = ?", filter.ObjectID)
	}
	if filter.Since != nil && !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if filter.Until != nil && !filter.Until.IsZero() {
		q = q.Where("created_at <= ?", filter.Until)
	}
	return q
}

func toLogEntry(record types.ActivityRecord) *LogEntry {
	return &LogEntry{
		ID:         record.ID,
		ActorID:    record.ActorID,
		Verb:       record.Verb,
		ObjectType: record.ObjectType,
		ObjectID:   record.ObjectID,
		Data:       cloneMap(record.Data),
		CreatedAt:  record.OccurredAt,
	}
}

func toActivityRecord(entry *LogEntry) types.ActivityRecord {
	if entry == nil {
		return types.ActivityRecord{}
	}
	return types.ActivityRecord{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Verb:       entry.Verb,
		ObjectType: entry.ObjectType,
		ObjectID:   entry.ObjectID,
		Data:       cloneMap(entry.Data),
		OccurredAt: entry.CreatedAt,
	}
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func newPage(records []types.ActivityRecord, total int, pagination types.Pagination) types.ActivityPage {
	return types.ActivityPage{
		Records:    records,
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}
}
