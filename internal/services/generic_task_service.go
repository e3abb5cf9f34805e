package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"projectdesk/internal/models"
	"projectdesk/internal/repositories"
)

// GenericTaskService is the read-only query surface over every assignment type.
type GenericTaskService interface {
	GetTotalCount(ctx context.Context, criteria models.GenericTaskCriteria) (int, error)
	GetAccountsHasOverdueAssignments(ctx context.Context, criteria models.GenericTaskCriteria) ([]models.BillingAccount, error)
	GetProjectsHasOverdueAssignments(ctx context.Context, criteria models.GenericTaskCriteria) ([]int64, error)
	FindAbsoluteListByCriteria(ctx context.Context, criteria models.GenericTaskCriteria, offset, limit int) ([]models.GenericTask, error)
	FindPageableListByCriteria(ctx context.Context, criteria models.GenericTaskCriteria, page, size int) (*GenericTaskPage, error)
	// FindAssignment returns (nil, nil) when no such assignment exists.
	FindAssignment(ctx context.Context, assignmentType string, typeID int64) (*models.GenericTask, error)
}

// MaxPageSize bounds FindPageableListByCriteria's size.
const MaxPageSize = 100

type GenericTaskPage struct {
	Items []models.GenericTask `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
}

type genericTaskService struct {
	repo repositories.GenericTaskRepository
}

func NewGenericTaskService(repo repositories.GenericTaskRepository) GenericTaskService {
	return &genericTaskService{repo: repo}
}

// GetTotalCount sums the per-type counts. Type tables are disjoint, so no
// row is counted twice.
func (s *genericTaskService) GetTotalCount(ctx context.Context, criteria models.GenericTaskCriteria) (int, error) {
	counts := make([]int, len(models.AssignmentTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range models.AssignmentTypes {
		g.Go(func() error {
			n, err := s.repo.CountByType(gctx, t, criteria)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (s *genericTaskService) GetAccountsHasOverdueAssignments(ctx context.Context, criteria models.GenericTaskCriteria) ([]models.BillingAccount, error) {
	return s.repo.FindAccountsHasOverdueAssignments(ctx, criteria)
}

func (s *genericTaskService) GetProjectsHasOverdueAssignments(ctx context.Context, criteria models.GenericTaskCriteria) ([]int64, error) {
	return s.repo.FindProjectsHasOverdueAssignments(ctx, criteria)
}

func (s *genericTaskService) FindAbsoluteListByCriteria(ctx context.Context, criteria models.GenericTaskCriteria, offset, limit int) ([]models.GenericTask, error) {
	return s.repo.Search(ctx, criteria, offset, limit)
}

func (s *genericTaskService) FindPageableListByCriteria(ctx context.Context, criteria models.GenericTaskCriteria, page, size int) (*GenericTaskPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	items, err := s.repo.Search(ctx, criteria, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	total, err := s.GetTotalCount(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return &GenericTaskPage{Items: items, Total: total, Page: page, Size: size}, nil
}

func (s *genericTaskService) FindAssignment(ctx context.Context, assignmentType string, typeID int64) (*models.GenericTask, error) {
	t, err := models.ParseAssignmentType(assignmentType)
	if err != nil {
		return nil, err
	}
	criteria := models.GenericTaskCriteria{
		Types:   []models.AssignmentType{t},
		TypeIDs: []int64{typeID},
	}
	assignments, err := s.repo.Search(ctx, criteria, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", t, typeID, err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return &assignments[0], nil
}
