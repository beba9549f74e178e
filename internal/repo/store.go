package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"calparse/internal/services/events"
)

// ErrGroupNotFound is returned when a group ID has no matching record.
var ErrGroupNotFound = errors.New("events group not found")

// Group mirrors one extraction request and its processing status.
type Group struct {
	ID                 uuid.UUID `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	UseLLM             bool      `json:"use_llm"`
	ProcessingComplete bool      `json:"processing_complete"`
	ProcessingError    string    `json:"processing_error"`
}

// Event is a persisted canonical event.
type Event struct {
	ID            uuid.UUID  `json:"id"`
	GroupID       uuid.UUID  `json:"group_id"`
	Title         string     `json:"title"`
	StartDatetime time.Time  `json:"start_datetime"`
	EndDatetime   *time.Time `json:"end_datetime"`
	Location      string     `json:"location"`
	Venue         string     `json:"venue"`
	Suggestions   string     `json:"suggestions"`
	OriginalText  string     `json:"original_text"`
	Attendees     []Attendee `json:"attendees"`
	Notes         []Note     `json:"notes"`
}

type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Note struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupDetail is a group with all its events loaded.
type GroupDetail struct {
	Group
	Events []Event `json:"events"`
}

// EventStore is the persistence boundary the extraction pipeline hands
// finished batches to.
type EventStore interface {
	CreateGroup(ctx context.Context, useLLM bool) (Group, error)
	SaveBatch(ctx context.Context, groupID uuid.UUID, batch *events.ExtractionBatch) error
	FailGroup(ctx context.Context, groupID uuid.UUID, processingError string) error
	GetGroup(ctx context.Context, groupID uuid.UUID) (GroupDetail, error)
	ListGroups(ctx context.Context, limit int) ([]Group, error)
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error
}

type store struct {
	db *DB
}

func NewStore(db *DB) EventStore {
	return &store{db: db}
}

func (s *store) CreateGroup(ctx context.Context, useLLM bool) (Group, error) {
	g := Group{ID: uuid.New(), UseLLM: useLLM}

	row := s.db.pool.QueryRow(ctx,
		`INSERT INTO events_groups (id, use_llm) VALUES ($1, $2)
		 RETURNING created_at, updated_at`,
		g.ID, g.UseLLM)
	if err := row.Scan(&g.CreatedAt, &g.UpdatedAt); err != nil {
		return Group{}, fmt.Errorf("creating group: %w", err)
	}

	return g, nil
}

// SaveBatch persists every event of a batch and marks the group complete, all
// in one transaction. A batch is never partially visible.
func (s *store) SaveBatch(ctx context.Context, groupID uuid.UUID, batch *events.ExtractionBatch) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, event := range batch.Events {
		eventID := uuid.New()
		_, err := tx.Exec(ctx,
			`INSERT INTO events (id, group_id, title, start_datetime, end_datetime,
			                     location, venue, suggestions, original_text)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			eventID, groupID, event.Title, event.StartDatetime, event.EndDatetime,
			event.Location, event.Venue, event.Suggestions, event.OriginalText)
		if err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}

		for _, attendee := range event.Attendees {
			if attendee.Name == "" {
				continue
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO attendees (event_id, name, email) VALUES ($1, $2, $3)`,
				eventID, attendee.Name, attendee.Email)
			if err != nil {
				return fmt.Errorf("inserting attendee: %w", err)
			}
		}

		if event.Notes != "" {
			_, err := tx.Exec(ctx,
				`INSERT INTO event_notes (event_id, content) VALUES ($1, $2)`,
				eventID, event.Notes)
			if err != nil {
				return fmt.Errorf("inserting note: %w", err)
			}
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE events_groups SET processing_complete = TRUE, updated_at = now() WHERE id = $1`,
		groupID)
	if err != nil {
		return fmt.Errorf("completing group: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *store) FailGroup(ctx context.Context, groupID uuid.UUID, processingError string) error {
	_, err := s.db.pool.Exec(ctx,
		`UPDATE events_groups
		 SET processing_complete = TRUE, processing_error = $2, updated_at = now()
		 WHERE id = $1`,
		groupID, processingError)
	if err != nil {
		return fmt.Errorf("marking group failed: %w", err)
	}
	return nil
}

func (s *store) GetGroup(ctx context.Context, groupID uuid.UUID) (GroupDetail, error) {
	var detail GroupDetail

	row := s.db.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at, use_llm, processing_complete, processing_error
		 FROM events_groups WHERE id = $1`,
		groupID)
	err := row.Scan(&detail.ID, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.UseLLM, &detail.ProcessingComplete, &detail.ProcessingError)
	if errors.Is(err, pgx.ErrNoRows) {
		return GroupDetail{}, ErrGroupNotFound
	}
	if err != nil {
		return GroupDetail{}, fmt.Errorf("fetching group: %w", err)
	}

	events, err := s.loadEvents(ctx, groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	detail.Events = events

	return detail, nil
}

func (s *store) loadEvents(ctx context.Context, groupID uuid.UUID) ([]Event, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT id, group_id, title, start_datetime, end_datetime,
		        location, venue, suggestions, original_text
		 FROM events WHERE group_id = $1 ORDER BY start_datetime`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	defer rows.Close()

	var loaded []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Title, &e.StartDatetime, &e.EndDatetime,
			&e.Location, &e.Venue, &e.Suggestions, &e.OriginalText); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		loaded = append(loaded, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range loaded {
		if err := s.loadEventRelations(ctx, &loaded[i]); err != nil {
			return nil, err
		}
	}

	return loaded, nil
}

func (s *store) loadEventRelations(ctx context.Context, event *Event) error {
	rows, err := s.db.pool.Query(ctx,
		`SELECT name, email FROM attendees WHERE event_id = $1 ORDER BY id`, event.ID)
	if err != nil {
		return fmt.Errorf("fetching attendees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Attendee
		if err := rows.Scan(&a.Name, &a.Email); err != nil {
			return fmt.Errorf("scanning attendee: %w", err)
		}
		event.Attendees = append(event.Attendees, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	noteRows, err := s.db.pool.Query(ctx,
		`SELECT content, created_at FROM event_notes WHERE event_id = $1 ORDER BY id`, event.ID)
	if err != nil {
		return fmt.Errorf("fetching notes: %w", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var n Note
		if err := noteRows.Scan(&n.Content, &n.CreatedAt); err != nil {
			return fmt.Errorf("scanning note: %w", err)
		}
		event.Notes = append(event.Notes, n)
	}
	return noteRows.Err()
}

func (s *store) ListGroups(ctx context.Context, limit int) ([]Group, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.pool.Query(ctx,
		`SELECT id, created_at, updated_at, use_llm, processing_complete, processing_error
		 FROM events_groups ORDER BY created_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt,
			&g.UseLLM, &g.ProcessingComplete, &g.ProcessingError); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *store) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	tag, err := s.db.pool.Exec(ctx, `DELETE FROM events_groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}
