package creditscore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
)

// RecordStore is the persistence the service needs.
type RecordStore interface {
	Create(rec Record) error
	ListByUser(userID string, limit int) ([]Record, error)
	Latest(userID string) (*Record, error)
}

// SourceRecorder counts recommendation sets by source (metrics).
type SourceRecorder interface {
	RecordRecommendations(source string)
}

// Service runs an estimation end to end: score, recommendations, history row, event.
type Service struct {
	store     RecordStore
	generator *Generator
	emitter   domain.EventEmitter
	recorder  SourceRecorder
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a credit score service. emitter and recorder may be nil.
func NewService(store RecordStore, generator *Generator, emitter domain.EventEmitter, recorder SourceRecorder, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		emitter:   emitter,
		recorder:  recorder,
		log:       log.With().Str("service", "credit_score").Logger(),
		now:       time.Now,
	}
}

// Estimate computes and stores one estimation. A persistence failure does not fail
// the call: the result comes back with Saved=false and SaveError set.
func (s *Service) Estimate(ctx context.Context, userID string, profile FinancialProfile) *Estimate {
	profile = profile.Normalize()
	result := Calculate(profile)
	recs, source := s.generator.Recommend(ctx, profile, result)

	est := &Estimate{
		ID:              uuid.NewString(),
		Result:          result,
		Recommendations: recs,
		Source:          source,
		CreatedAt:       s.now().UTC(),
	}

	err := s.store.Create(Record{
		ID:              est.ID,
		UserID:          userID,
		Profile:         profile,
		Score:           result.Score,
		Category:        result.Category,
		Recommendations: recs,
		Source:          source,
		CreatedAt:       est.CreatedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to save credit score")
		est.SaveError = "Your score was calculated but could not be saved. Please try again."
	} else {
		est.Saved = true
	}

	if s.recorder != nil {
		s.recorder.RecordRecommendations(string(source))
	}
	if s.emitter != nil {
		s.emitter.Emit(userID, &events.CreditScoreCalculatedData{
			Score:    result.Score,
			Category: string(result.Category),
			Source:   string(source),
			Saved:    est.Saved,
		})
	}

	s.log.Info().
		Str("user_id", userID).
		Int("score", result.Score).
		Str("category", string(result.Category)).
		Str("source", string(source)).
		Bool("saved", est.Saved).
		Msg("Credit score estimated")

	return est
}

// History returns past estimations, newest first.
func (s *Service) History(userID string, limit int) ([]Record, error) {
	return s.store.ListByUser(userID, limit)
}

// Latest returns the most recent estimation or domain.ErrNotFound.
func (s *Service) Latest(userID string) (*Record, error) {
	return s.store.Latest(userID)
}
