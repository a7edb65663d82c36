package expenses

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
)

// ChangeListener is notified after a user's expenses change (budget threshold checks).
type ChangeListener interface {
	OnExpensesChanged(ctx context.Context, userID string)
}

// Service validates expense writes and builds summaries
type Service struct {
	repo     *Repository
	emitter  domain.EventEmitter
	listener ChangeListener
	log      zerolog.Logger
}

// NewService creates an expense service. emitter may be nil.
func NewService(repo *Repository, emitter domain.EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		emitter: emitter,
		log:     log.With().Str("service", "expenses").Logger(),
	}
}

// SetChangeListener sets the listener called after writes (for dependency injection)
func (s *Service) SetChangeListener(l ChangeListener) {
	s.listener = l
}

// Create validates and stores a new expense
func (s *Service) Create(ctx context.Context, userID string, in Input) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.Create(userID, in)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, userID, e.ID, in, "created")
	return e, nil
}

// Update validates and replaces an existing expense
func (s *Service) Update(ctx context.Context, userID string, id int64, in Input) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(userID, id, in); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, userID, id, in, "updated")
	return e, nil
}

// Delete removes an expense
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	e, err := s.repo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(userID, id); err != nil {
		return err
	}

	s.changed(ctx, userID, id, Input{Category: e.Category, Amount: e.Amount, Date: e.Date}, "deleted")
	return nil
}

// List returns the user's expenses in the filter range
func (s *Service) List(userID string, f Filter) ([]Expense, error) {
	if err := validateRange(f.From, f.To); err != nil {
		return nil, err
	}
	return s.repo.List(userID, f)
}

// Summary summarizes the user's expenses in the filter range
func (s *Service) Summary(userID string, f Filter) (Summary, error) {
	expenses, err := s.List(userID, f)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(expenses), nil
}

func (s *Service) changed(ctx context.Context, userID string, id int64, in Input, action string) {
	s.log.Info().
		Str("user_id", userID).
		Int64("expense_id", id).
		Str("category", in.Category).
		Str("action", action).
		Msg("Expense changed")

	if s.emitter != nil {
		s.emitter.Emit(userID, &events.ExpenseRecordedData{
			ExpenseID: id,
			Category:  in.Category,
			Amount:    in.Amount,
			Action:    action,
		})
	}
	if s.listener != nil {
		s.listener.OnExpensesChanged(ctx, userID)
	}
}

func validateRange(from, to string) error {
	if from != "" {
		if _, err := domain.ParseDate(from); err != nil {
			return err
		}
	}
	if to != "" {
		if _, err := domain.ParseDate(to); err != nil {
			return err
		}
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("%w: from must not be after to", domain.ErrInvalidInput)
	}
	return nil
}
