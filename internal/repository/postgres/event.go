package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"

	"github.com/lib/pq"
)

const eventColumns = `id, title, date, time, address, image_url, type, description, status, value_party_helper, value_general_helper, created_on, updated_on`

const functionColumns = `id, event_id, name, description, pay, vacancies, filled`

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Upsert(ctx context.Context, e *domain.Event) error {
	logger.EnterMethod("eventRepository.Upsert", "eventID", e.ID, "functions", len(e.Functions))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err = classify(err)
		logger.ExitMethodWithError("eventRepository.Upsert", err, "reason", "begin")
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if e.CreatedOn.IsZero() {
		e.CreatedOn = now
	}
	e.UpdatedOn = now

	query := `INSERT INTO events (` + eventColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, date = EXCLUDED.date, time = EXCLUDED.time,
	          address = EXCLUDED.address, image_url = EXCLUDED.image_url, type = EXCLUDED.type,
	          description = EXCLUDED.description, status = EXCLUDED.status,
	          value_party_helper = EXCLUDED.value_party_helper, value_general_helper = EXCLUDED.value_general_helper,
	          updated_on = EXCLUDED.updated_on`
	logger.DatabaseCall("UPSERT", "events", "eventID", e.ID)
	res, err := tx.ExecContext(ctx, query,
		e.ID, e.Title, e.Date, e.Time, e.Address, e.ImageURL, e.Type, e.Description, e.Status,
		e.ValuePartyHelper, e.ValueGeneralHelper, e.CreatedOn, e.UpdatedOn)
	logger.DatabaseResult("UPSERT", affected(res), err, "eventID", e.ID)
	if err != nil {
		err = classify(err)
		logger.ExitMethodWithError("eventRepository.Upsert", err, "eventID", e.ID)
		return err
	}

	// filled is never written from the event payload; the returned value is
	// the ledger's current count.
	fnQuery := `INSERT INTO event_functions (id, event_id, position, name, description, pay, vacancies, filled)
	            VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
	            ON CONFLICT (id) DO UPDATE SET position = EXCLUDED.position, name = EXCLUDED.name,
	            description = EXCLUDED.description, pay = EXCLUDED.pay, vacancies = EXCLUDED.vacancies
	            WHERE event_functions.event_id = EXCLUDED.event_id AND event_functions.filled <= EXCLUDED.vacancies
	            RETURNING filled`
	for i := range e.Functions {
		f := &e.Functions[i]
		f.EventID = e.ID
		logger.DatabaseCall("UPSERT", "event_functions", "functionID", f.ID, "eventID", e.ID)
		err := tx.QueryRowContext(ctx, fnQuery,
			f.ID, e.ID, i, f.Name, f.Description, f.Pay, f.Vacancies).Scan(&f.Filled)
		logger.DatabaseResult("UPSERT", 1, err, "functionID", f.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = r.upsertConflict(ctx, tx, f)
			} else if pqCode(err) == pqCheckViolation {
				err = domain.ErrCannotReduceVacancies
			} else {
				err = classify(err)
			}
			logger.ExitMethodWithError("eventRepository.Upsert", err, "functionID", f.ID)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		err = classify(err)
		logger.ExitMethodWithError("eventRepository.Upsert", err, "reason", "commit")
		return err
	}

	logger.ExitMethod("eventRepository.Upsert", "eventID", e.ID)
	return nil
}

// upsertConflict explains why the conditional function update matched no row.
func (r *eventRepository) upsertConflict(ctx context.Context, tx *sql.Tx, f *domain.Function) error {
	var eventID string
	var filled int32
	err := tx.QueryRowContext(ctx, `SELECT event_id, filled FROM event_functions WHERE id = $1`, f.ID).Scan(&eventID, &filled)
	if err != nil {
		return classify(err)
	}
	if eventID != f.EventID {
		return domain.ErrFunctionMismatch
	}
	return domain.ErrCannotReduceVacancies
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	logger.DatabaseCall("SELECT", "events", "eventID", id)
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrEventNotFound)
	}

	if err := r.attachFunctions(ctx, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE ($1 = '' OR status = $1) ORDER BY date, time, id`
	logger.DatabaseCall("SELECT", "events", "status", filter.Status)
	rows, err := r.db.QueryContext(ctx, query, string(filter.Status))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, classify(err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	ptrs := make([]*domain.Event, len(events))
	for i := range events {
		ptrs[i] = &events[i]
	}
	if err := r.attachFunctions(ctx, ptrs); err != nil {
		return nil, err
	}
	return events, nil
}

// attachFunctions loads the functions of every event with a single query.
func (r *eventRepository) attachFunctions(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*domain.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
		e.Functions = []domain.Function{}
	}

	query := `SELECT ` + functionColumns + ` FROM event_functions WHERE event_id = ANY($1) ORDER BY event_id, position`
	logger.DatabaseCall("SELECT", "event_functions", "events", len(ids))
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFunction(rows)
		if err != nil {
			return classify(err)
		}
		if e, ok := byID[f.EventID]; ok {
			e.Functions = append(e.Functions, *f)
		}
	}
	return classify(rows.Err())
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var party, general sql.NullFloat64
	if err := row.Scan(
		&e.ID, &e.Title, &e.Date, &e.Time, &e.Address, &e.ImageURL, &e.Type, &e.Description, &e.Status,
		&party, &general, &e.CreatedOn, &e.UpdatedOn,
	); err != nil {
		return nil, err
	}
	if party.Valid {
		e.ValuePartyHelper = &party.Float64
	}
	if general.Valid {
		e.ValueGeneralHelper = &general.Float64
	}
	return &e, nil
}

func scanFunction(row rowScanner) (*domain.Function, error) {
	var f domain.Function
	if err := row.Scan(&f.ID, &f.EventID, &f.Name, &f.Description, &f.Pay, &f.Vacancies, &f.Filled); err != nil {
		return nil, err
	}
	return &f, nil
}
