package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/haflows/tasknotify/internal/cache"
	dom "github.com/haflows/tasknotify/internal/domain"
	"github.com/haflows/tasknotify/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyTitle = errors.New("title must not be empty")
)

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

func (s *TaskService) Create(ctx context.Context, userID, title, detail string, priority dom.Priority, dueDate *time.Time) (dom.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dom.Task{}, ErrEmptyTitle
	}
	if !priority.Valid() {
		priority = dom.PriorityMedium
	}

	var detailPtr *string
	if d := strings.TrimSpace(detail); d != "" {
		detailPtr = &d
	}

	t, err := s.repo.Create(ctx, dom.Task{
		UserID:   userID,
		Title:    title,
		Detail:   detailPtr,
		Priority: priority,
		Status:   dom.StatusTodo,
		DueDate:  dueDate,
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]dom.Task, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("list:"+userID, func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx, userID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx, userID)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetList(ctx, userID, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.List(ctx, userID)
}

func (s *TaskService) Pending(ctx context.Context, userID string) ([]dom.Task, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("pending:"+userID, func() (interface{}, error) {
			if list, err := s.cache.GetPending(ctx, userID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.ListPending(ctx, userID)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetPending(ctx, userID, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.ListPending(ctx, userID)
}

func (s *TaskService) GetByID(ctx context.Context, userID, id string) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, title, detail, priority, status *string, dueDate *time.Time, clearDue bool) (dom.Task, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	patch := existing
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return dom.Task{}, ErrEmptyTitle
		}
		patch.Title = t
	}
	if detail != nil {
		if d := strings.TrimSpace(*detail); d == "" {
			patch.Detail = nil
		} else {
			patch.Detail = &d
		}
	}
	if priority != nil {
		p := dom.Priority(*priority)
		if p.Valid() {
			patch.Priority = p
		}
	}
	if status != nil {
		st := dom.Status(*status)
		if st.Valid() {
			patch.Status = st
		}
	}
	if dueDate != nil {
		patch.DueDate = dueDate
	} else if clearDue {
		patch.DueDate = nil
	}
	t, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// Toggle flips Todo <-> Done.
func (s *TaskService) Toggle(ctx context.Context, userID, id string) (dom.Task, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	next := dom.StatusDone
	if existing.Status == dom.StatusDone {
		next = dom.StatusTodo
	}
	t, err := s.repo.SetStatus(ctx, userID, id, next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
}
