package service

import (
	"context"

	"polyglot/backend/internal/llm"
)

// ModelService lists the models the runtime can load.
type ModelService struct {
	llm llm.ModelLister
}

// NewModelService creates a new ModelService.
func NewModelService(lister llm.ModelLister) *ModelService {
	return &ModelService{llm: lister}
}

// List returns all locally available models.
func (s *ModelService) List(ctx context.Context) (*llm.ListModelsResponse, error) {
	return s.llm.ListModels(ctx)
}
