package push

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Subscription é uma inscrição Web Push de um navegador do usuário.
type Subscription struct {
	ID        uuid.UUID `json:"id"`
	UsuarioID int64     `json:"usuarioId"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	UserAgent *string   `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persiste inscrições em push_subscriptions.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert insere ou atualiza chaves da inscrição (usuário, endpoint).
func (r *Repository) Upsert(ctx context.Context, sub Subscription) (*Subscription, error) {
	query := `
        INSERT INTO push_subscriptions (usuario_id, endpoint, p256dh, auth, user_agent)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (usuario_id, endpoint) DO UPDATE
        SET p256dh = EXCLUDED.p256dh,
            auth = EXCLUDED.auth,
            user_agent = COALESCE(EXCLUDED.user_agent, push_subscriptions.user_agent),
            updated_at = now()
        RETURNING id, usuario_id, endpoint, p256dh, auth, user_agent, created_at, updated_at`

	var out Subscription
	err := r.pool.QueryRow(ctx, query, sub.UsuarioID, sub.Endpoint, sub.P256dh, sub.Auth, sub.UserAgent).
		Scan(&out.ID, &out.UsuarioID, &out.Endpoint, &out.P256dh, &out.Auth, &out.UserAgent, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByUser devolve todas as inscrições do usuário.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, usuario_id, endpoint, p256dh, auth, user_agent, created_at, updated_at
        FROM push_subscriptions
        WHERE usuario_id = $1
        ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.UsuarioID, &s.Endpoint, &s.P256dh, &s.Auth, &s.UserAgent, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// DeleteByUserAndEndpoint remove a inscrição; false quando não havia.
func (r *Repository) DeleteByUserAndEndpoint(ctx context.Context, userID int64, endpoint string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE usuario_id = $1 AND endpoint = $2`, userID, endpoint)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
