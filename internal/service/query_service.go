package service

import (
	"context"

	"github.com/proplens/proplens/internal/model"
	"github.com/proplens/proplens/internal/repo"
)

const defaultListLimit = 100

// QueryService serves read-only access to extracted entities.
type QueryService struct {
	tasks *repo.TaskRepo
	rules *repo.RuleRepo
}

func NewQueryService(tasks *repo.TaskRepo, rules *repo.RuleRepo) *QueryService {
	return &QueryService{tasks: tasks, rules: rules}
}

func (s *QueryService) ListTasks(ctx context.Context, documentID string, limit, offset int) ([]model.ProjectTask, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if documentID != "" {
		tasks, err := s.tasks.ListByDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		// task ids are only unique within a document, so the merge stays
		// document-scoped
		return mergeTasks(tasks), nil
	}
	return s.tasks.List(ctx, limit, offset)
}

func (s *QueryService) ListRules(ctx context.Context, documentID string, limit, offset int) ([]model.RegulatoryRule, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if documentID != "" {
		return s.rules.ListByDocument(ctx, documentID)
	}
	return s.rules.List(ctx, limit, offset)
}
