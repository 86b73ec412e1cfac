package repo

import (
	"context"
	"strings"

	dom "github.com/haflows/tasknotify/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepo is the user-scoped profile gateway.
type ProfileRepo interface {
	Get(ctx context.Context, userID string) (dom.Profile, error)
	Upsert(ctx context.Context, userID, lineUserID string) (dom.Profile, error)
}

type PGProfileRepo struct {
	db *pgxpool.Pool
}

func NewPGProfileRepo(db *pgxpool.Pool) *PGProfileRepo {
	return &PGProfileRepo{db: db}
}

func (r *PGProfileRepo) Get(ctx context.Context, userID string) (dom.Profile, error) {
	var p dom.Profile
	err := r.db.QueryRow(ctx,
		`SELECT id, line_user_id, updated_at FROM profiles WHERE id = $1`,
		userID,
	).Scan(&p.ID, &p.LineUserID, &p.UpdatedAt)
	return p, err
}

// Upsert creates or replaces the profile row. An empty line id is stored
// as NULL so the webhook join never matches it.
func (r *PGProfileRepo) Upsert(ctx context.Context, userID, lineUserID string) (dom.Profile, error) {
	var linePtr *string
	if s := strings.TrimSpace(lineUserID); s != "" {
		linePtr = &s
	}
	query := `
		INSERT INTO profiles (id, line_user_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET line_user_id = EXCLUDED.line_user_id, updated_at = NOW()
		RETURNING id, line_user_id, updated_at`
	var p dom.Profile
	err := r.db.QueryRow(ctx, query, userID, linePtr).Scan(&p.ID, &p.LineUserID, &p.UpdatedAt)
	return p, err
}
