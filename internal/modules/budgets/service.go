package budgets

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/modules/expenses"
	"github.com/smasshh/finmate/internal/modules/settings"
)

// ExpenseLister loads the expenses progress is computed from
type ExpenseLister interface {
	List(userID string, f expenses.Filter) ([]expenses.Expense, error)
}

// ThresholdSource supplies per-user notification thresholds
type ThresholdSource interface {
	Thresholds(userID string) settings.Thresholds
}

// Report is the result of one progress computation
type Report struct {
	Budgets       []Progress          `json:"budgets"`
	Notifications []Notification      `json:"notifications"`
	Thresholds    settings.Thresholds `json:"thresholds"`
}

// Service manages budgets and computes their progress
type Service struct {
	repo       *Repository
	expenses   ExpenseLister
	thresholds ThresholdSource
	monitor    *ThresholdMonitor
	log        zerolog.Logger
}

// NewService creates a budget service. thresholds may be nil to use the defaults.
func NewService(repo *Repository, expenseLister ExpenseLister, thresholds ThresholdSource, monitor *ThresholdMonitor, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		expenses:   expenseLister,
		thresholds: thresholds,
		monitor:    monitor,
		log:        log.With().Str("service", "budgets").Logger(),
	}
}

// Create validates and stores a budget
func (s *Service) Create(ctx context.Context, userID string, in Input) (*Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	b, err := s.repo.Create(userID, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Int64("budget_id", b.ID).Str("category", b.Category).Msg("Budget created")
	s.refresh(ctx, userID)
	return b, nil
}

// Update validates and replaces a budget
func (s *Service) Update(ctx context.Context, userID string, id int64, in Input) (*Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(userID, id, in); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, userID)
	return b, nil
}

// Delete removes a budget
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repo.Delete(userID, id); err != nil {
		return err
	}
	s.refresh(ctx, userID)
	return nil
}

// List returns the user's budgets
func (s *Service) List(userID string) ([]Budget, error) {
	return s.repo.List(userID)
}

// Progress computes every budget's progress and runs the threshold monitor
func (s *Service) Progress(ctx context.Context, userID string) (*Report, error) {
	budgetList, err := s.repo.List(userID)
	if err != nil {
		return nil, err
	}

	th := settings.DefaultThresholds()
	if s.thresholds != nil {
		th = s.thresholds.Thresholds(userID)
	}

	report := &Report{
		Budgets:       []Progress{},
		Notifications: []Notification{},
		Thresholds:    th,
	}
	if len(budgetList) > 0 {
		from, to := span(budgetList)
		expenseList, err := s.expenses.List(userID, expenses.Filter{From: from, To: to})
		if err != nil {
			return nil, err
		}
		report.Budgets = ComputeProgress(budgetList, expenseList, th)
	}

	if s.monitor != nil {
		report.Notifications = s.monitor.Check(ctx, userID, report.Budgets)
	}
	return report, nil
}

// OnExpensesChanged re-runs the threshold check after an expense write
func (s *Service) OnExpensesChanged(ctx context.Context, userID string) {
	s.refresh(ctx, userID)
}

func (s *Service) refresh(ctx context.Context, userID string) {
	if _, err := s.Progress(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to refresh budget progress")
	}
}

// span returns the smallest date range covering every budget.
func span(list []Budget) (string, string) {
	from, to := list[0].StartDate, list[0].EndDate
	for _, b := range list[1:] {
		if b.StartDate < from {
			from = b.StartDate
		}
		if b.EndDate > to {
			to = b.EndDate
		}
	}
	return from, to
}
