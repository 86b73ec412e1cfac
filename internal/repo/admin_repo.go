package repo

import (
	"context"
	"errors"

	dom "github.com/haflows/tasknotify/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepo is the elevated gateway used by server-side batch and webhook
// flows. It can read and write across all users, so only those flows
// should ever hold one; interactive handlers get the user-scoped repos.
type AdminRepo interface {
	// ListUserIDsWithPendingTasks returns the distinct owners of Todo
	// tasks, oldest first task first.
	ListUserIDsWithPendingTasks(ctx context.Context) ([]string, error)
	// GetUserByID resolves account email and name for any user.
	GetUserByID(ctx context.Context, userID string) (dom.User, error)
	// FindUserIDByLineID maps a LINE sender to an account. Empty string
	// when no profile carries the id.
	FindUserIDByLineID(ctx context.Context, lineUserID string) (string, error)
	// GetLineUserID returns the stored chat identity for a user, empty
	// when none is set.
	GetLineUserID(ctx context.Context, userID string) (string, error)
	// ListPendingTasks reads any user's Todo tasks, newest first.
	ListPendingTasks(ctx context.Context, userID string) ([]dom.Task, error)
	// CreateTask inserts a task on behalf of a user (webhook ingestion).
	CreateTask(ctx context.Context, userID, title string, priority dom.Priority, status dom.Status) (dom.Task, error)
}

type PGAdminRepo struct {
	db *pgxpool.Pool
}

func NewPGAdminRepo(db *pgxpool.Pool) *PGAdminRepo {
	return &PGAdminRepo{db: db}
}

func (r *PGAdminRepo) ListUserIDsWithPendingTasks(ctx context.Context) ([]string, error) {
	query := `
		SELECT user_id FROM tasks
		WHERE status = 'Todo'
		GROUP BY user_id
		ORDER BY MIN(created_at)`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGAdminRepo) GetUserByID(ctx context.Context, userID string) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (r *PGAdminRepo) FindUserIDByLineID(ctx context.Context, lineUserID string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM profiles WHERE line_user_id = $1 LIMIT 1`,
		lineUserID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (r *PGAdminRepo) GetLineUserID(ctx context.Context, userID string) (string, error) {
	var lineID *string
	err := r.db.QueryRow(ctx,
		`SELECT line_user_id FROM profiles WHERE id = $1`,
		userID,
	).Scan(&lineID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if lineID == nil {
		return "", nil
	}
	return *lineID, nil
}

func (r *PGAdminRepo) ListPendingTasks(ctx context.Context, userID string) ([]dom.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND status = 'Todo'
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *PGAdminRepo) CreateTask(ctx context.Context, userID, title string, priority dom.Priority, status dom.Status) (dom.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title, priority, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, userID, title, priority, status))
}
