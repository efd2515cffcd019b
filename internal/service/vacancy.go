package service

import (
	"context"
	"errors"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/repository"
)

type vacancyLedger struct {
	functionRepo repository.FunctionRepository
	metrics      *metrics.Manager
}

// NewVacancyLedger returns a ledger running directly against the backend. It
// never consults the local cache.
func NewVacancyLedger(functionRepo repository.FunctionRepository, m *metrics.Manager) VacancyLedger {
	return &vacancyLedger{functionRepo: functionRepo, metrics: m}
}

func (l *vacancyLedger) Increment(ctx context.Context, functionID string) (*domain.Function, error) {
	f, err := l.functionRepo.IncrementFilled(ctx, functionID)
	if err != nil {
		if errors.Is(err, domain.ErrCapacity) {
			l.metrics.CapacityRejected()
		}
		logger.Warn("Vacancy increment refused", "function_id", functionID, "error", err)
		return nil, err
	}
	logger.Debug("Vacancy taken", "function_id", functionID, "filled", f.Filled, "vacancies", f.Vacancies)
	return f, nil
}

func (l *vacancyLedger) Decrement(ctx context.Context, functionID string) (*domain.Function, bool, error) {
	f, moved, err := l.functionRepo.DecrementFilled(ctx, functionID)
	if err != nil {
		logger.Warn("Vacancy release failed", "function_id", functionID, "error", err)
		return nil, false, err
	}
	if !moved {
		logger.Warn("Vacancy release on empty function", "function_id", functionID)
	}
	logger.Debug("Vacancy released", "function_id", functionID, "filled", f.Filled, "vacancies", f.Vacancies, "moved", moved)
	return f, moved, nil
}
