package settings

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
)

// Service exposes typed, validated access to user settings.
type Service struct {
	repo     *Repository
	emitter  domain.EventEmitter
	defaults map[string]float64
	log      zerolog.Logger
}

// NewService creates a settings service. emitter may be nil.
func NewService(repo *Repository, emitter domain.EventEmitter, log zerolog.Logger) *Service {
	defaults := make(map[string]float64, len(Definitions))
	for key, def := range Definitions {
		defaults[key] = def.Default
	}
	return &Service{
		repo:     repo,
		emitter:  emitter,
		defaults: defaults,
		log:      log.With().Str("service", "settings").Logger(),
	}
}

// SetDefault overrides the default of a known setting (e.g. starting cash from config).
func (s *Service) SetDefault(key string, value float64) {
	if _, ok := Definitions[key]; ok {
		s.defaults[key] = value
	}
}

// GetFloat returns the stored value for key, or its default when unset or unparsable.
func (s *Service) GetFloat(userID, key string) (float64, error) {
	fallback, ok := s.defaults[key]
	if !ok {
		return 0, fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	value, err := s.repo.Get(userID, key)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		s.log.Warn().Str("key", key).Str("value", *value).Msg("Stored setting is not a number, using default")
		return fallback, nil
	}
	return v, nil
}

// GetAll returns every known setting for the user, defaults filled in.
func (s *Service) GetAll(userID string) (map[string]float64, error) {
	stored, err := s.repo.GetAll(userID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, len(s.defaults))
	for key, fallback := range s.defaults {
		result[key] = fallback
		if raw, ok := stored[key]; ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				result[key] = v
			}
		}
	}
	return result, nil
}

// Set validates and stores one setting.
func (s *Service) Set(userID, key, value string) (float64, error) {
	v, err := ValidateValue(key, value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidInput)
	}

	formatted := strconv.FormatFloat(v, 'f', -1, 64)
	if err := s.repo.Set(userID, key, formatted); err != nil {
		return 0, err
	}

	s.log.Info().Str("user_id", userID).Str("key", key).Float64("value", v).Msg("Setting updated")
	if s.emitter != nil {
		s.emitter.Emit(userID, &events.SettingsChangedData{Key: key, Value: formatted})
	}
	return v, nil
}

// Update validates every entry first and stores them only if all are valid.
func (s *Service) Update(userID string, values map[string]string) (map[string]float64, error) {
	for key, value := range values {
		if _, err := ValidateValue(key, value); err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidInput)
		}
	}
	for key, value := range values {
		if _, err := s.Set(userID, key, value); err != nil {
			return nil, err
		}
	}
	return s.GetAll(userID)
}

// Thresholds returns the user's budget notification thresholds. An inconsistent pair
// (approaching >= exceeded) falls back to the defaults.
func (s *Service) Thresholds(userID string) Thresholds {
	approaching, err := s.GetFloat(userID, KeyBudgetApproachingPercent)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read approaching threshold")
	}
	exceeded, err := s.GetFloat(userID, KeyBudgetExceededPercent)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read exceeded threshold")
	}
	if approaching >= exceeded {
		return DefaultThresholds()
	}
	return Thresholds{ApproachingPercent: approaching, ExceededPercent: exceeded}
}

// StartingCash returns the paper-trading starting balance for the user.
func (s *Service) StartingCash(userID string) float64 {
	v, err := s.GetFloat(userID, KeyStartingCash)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read starting cash")
	}
	return v
}
