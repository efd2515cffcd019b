package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/repository"
)

type functionRepository struct {
	db *sql.DB
}

func NewFunctionRepository(db *sql.DB) repository.FunctionRepository {
	return &functionRepository{db: db}
}

func (r *functionRepository) GetByID(ctx context.Context, id string) (*domain.Function, error) {
	query := `SELECT ` + functionColumns + ` FROM event_functions WHERE id = $1`
	logger.DatabaseCall("SELECT", "event_functions", "functionID", id)
	f, err := scanFunction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrFunctionNotFound)
	}
	return f, nil
}

func (r *functionRepository) IncrementFilled(ctx context.Context, id string) (*domain.Function, error) {
	logger.EnterMethod("functionRepository.IncrementFilled", "functionID", id)

	query := `UPDATE event_functions SET filled = filled + 1 WHERE id = $1 AND filled < vacancies
	          RETURNING ` + functionColumns
	logger.DatabaseCall("UPDATE", "event_functions", "functionID", id, "delta", 1)
	f, err := scanFunction(r.db.QueryRowContext(ctx, query, id))
	logger.DatabaseResult("UPDATE", 1, err, "functionID", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the function is full or it does not exist.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				err = getErr
			} else {
				err = domain.ErrCapacity
			}
		} else {
			err = classify(err)
		}
		logger.ExitMethodWithError("functionRepository.IncrementFilled", err, "functionID", id)
		return nil, err
	}

	logger.ExitMethod("functionRepository.IncrementFilled", "functionID", id, "filled", f.Filled)
	return f, nil
}

func (r *functionRepository) DecrementFilled(ctx context.Context, id string) (*domain.Function, bool, error) {
	logger.EnterMethod("functionRepository.DecrementFilled", "functionID", id)

	query := `UPDATE event_functions SET filled = filled - 1 WHERE id = $1 AND filled > 0
	          RETURNING ` + functionColumns
	logger.DatabaseCall("UPDATE", "event_functions", "functionID", id, "delta", -1)
	f, err := scanFunction(r.db.QueryRowContext(ctx, query, id))
	logger.DatabaseResult("UPDATE", 1, err, "functionID", id)
	if errors.Is(err, sql.ErrNoRows) {
		// Already at zero, or the function does not exist.
		f, err = r.GetByID(ctx, id)
		if err != nil {
			logger.ExitMethodWithError("functionRepository.DecrementFilled", err, "functionID", id)
			return nil, false, err
		}
		logger.ExitMethod("functionRepository.DecrementFilled", "functionID", id, "filled", f.Filled, "moved", false)
		return f, false, nil
	}
	if err != nil {
		err = classify(err)
		logger.ExitMethodWithError("functionRepository.DecrementFilled", err, "functionID", id)
		return nil, false, err
	}

	logger.ExitMethod("functionRepository.DecrementFilled", "functionID", id, "filled", f.Filled)
	return f, true, nil
}
