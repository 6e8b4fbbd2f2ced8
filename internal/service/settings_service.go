package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
)

// SettingsService holds the session configuration for the lifetime of the
// process. Nothing is persisted.
type SettingsService struct {
	mu       sync.RWMutex
	current  model.Settings
	defaults model.Settings
	validate *validator.Validate
}

// NewSettingsService starts with defaults as the current configuration.
func NewSettingsService(defaults model.Settings) *SettingsService {
	return &SettingsService{current: defaults, defaults: defaults, validate: validator.New()}
}

// Get returns the current settings.
func (s *SettingsService) Get() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Defaults returns the configuration restored by "reset to defaults".
func (s *SettingsService) Defaults() model.Settings {
	return s.defaults
}

// Validate checks the ranges of every field.
func (s *SettingsService) Validate(settings model.Settings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %s", app_errors.ErrValidation, err.Error())
	}
	var msgs []string
	for _, fieldErr := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
	}
	return fmt.Errorf("%w: %s", app_errors.ErrValidation, strings.Join(msgs, "; "))
}

// Save validates and stores settings.
func (s *SettingsService) Save(settings model.Settings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = settings
	return nil
}
