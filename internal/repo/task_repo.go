package repo

import (
	"context"

	dom "github.com/haflows/tasknotify/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepo is the user-scoped task gateway: every query filters on the
// owning user id, so a caller can only see and modify its own rows.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, userID, id string) (dom.Task, error)
	List(ctx context.Context, userID string) ([]dom.Task, error)
	ListPending(ctx context.Context, userID string) ([]dom.Task, error)
	Update(ctx context.Context, userID, id string, patch dom.Task) (dom.Task, error)
	SetStatus(ctx context.Context, userID, id string, status dom.Status) (dom.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

const taskColumns = `id, user_id, title, detail, priority, status, due_date, created_at`

func scanTask(row pgx.Row) (dom.Task, error) {
	var t dom.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Detail, &t.Priority, &t.Status, &t.DueDate, &t.CreatedAt)
	return t, err
}

func collectTasks(rows pgx.Rows) ([]dom.Task, error) {
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title, detail, priority, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, t.UserID, t.Title, t.Detail, t.Priority, t.Status, t.DueDate))
}

func (r *PGTaskRepo) GetByID(ctx context.Context, userID, id string) (dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND id = $2`
	return scanTask(r.db.QueryRow(ctx, query, userID, id))
}

func (r *PGTaskRepo) List(ctx context.Context, userID string) ([]dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *PGTaskRepo) ListPending(ctx context.Context, userID string) ([]dom.Task, error) {
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

func (r *PGTaskRepo) Update(ctx context.Context, userID, id string, patch dom.Task) (dom.Task, error) {
	query := `
		UPDATE tasks SET title = $3, detail = $4, priority = $5, status = $6, due_date = $7
		WHERE user_id = $1 AND id = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, userID, id,
		patch.Title, patch.Detail, patch.Priority, patch.Status, patch.DueDate))
}

func (r *PGTaskRepo) SetStatus(ctx context.Context, userID, id string, status dom.Status) (dom.Task, error) {
	query := `
		UPDATE tasks SET status = $3
		WHERE user_id = $1 AND id = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query, userID, id, status))
}

func (r *PGTaskRepo) Delete(ctx context.Context, userID, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}
