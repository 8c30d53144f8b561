package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra o SQL de usuários, grupos e tipos de certidão.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o conjunto de queries sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}
