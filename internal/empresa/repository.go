package empresa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siscert/api/internal/db"
	"github.com/siscert/api/internal/repo"
)

const empresaColumns = `id, slug, nome, cor, ordem, ativo`

// Repository persiste empresas e bloqueios de tipos.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEmpresa(row pgx.Row) (Empresa, error) {
	var e Empresa
	if err := row.Scan(&e.ID, &e.Slug, &e.Nome, &e.Cor, &e.Ordem, &e.Ativo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Empresa{}, ErrNotFound
		}
		return Empresa{}, err
	}
	return e, nil
}

// List devolve empresas por ordem; grupoIDs != nil restringe às empresas dos grupos.
func (r *Repository) List(ctx context.Context, apenasAtivos bool, grupoIDs []int64) ([]Empresa, error) {
	var (
		clauses []string
		args    []any
	)
	if apenasAtivos {
		clauses = append(clauses, "ativo")
	}
	if grupoIDs != nil {
		args = append(args, grupoIDs)
		clauses = append(clauses, fmt.Sprintf("id IN (SELECT empresa_id FROM grupo_empresas WHERE grupo_id = ANY($%d))", len(args)))
	}

	query := `SELECT ` + empresaColumns + ` FROM empresas`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY ordem, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Empresa{}
	for rows.Next() {
		e, err := scanEmpresa(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Get busca empresa por id.
func (r *Repository) Get(ctx context.Context, id int64) (Empresa, error) {
	return scanEmpresa(r.pool.QueryRow(ctx, `SELECT `+empresaColumns+` FROM empresas WHERE id = $1`, id))
}

// SlugExists informa se o slug já está em uso.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM empresas WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// Insert cria empresa; slug repetido retorna repo.ErrConflict.
func (r *Repository) Insert(ctx context.Context, e Empresa) (Empresa, error) {
	created, err := scanEmpresa(r.pool.QueryRow(ctx, `
        INSERT INTO empresas (slug, nome, cor, ordem) VALUES ($1, $2, $3, $4)
        RETURNING `+empresaColumns, e.Slug, e.Nome, e.Cor, e.Ordem))
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return Empresa{}, repo.ErrConflict
		}
		return Empresa{}, err
	}
	return created, nil
}

// Update regrava os campos editáveis.
func (r *Repository) Update(ctx context.Context, e Empresa) (Empresa, error) {
	updated, err := scanEmpresa(r.pool.QueryRow(ctx, `
        UPDATE empresas SET slug = $2, nome = $3, cor = $4, ordem = $5, ativo = $6
        WHERE id = $1
        RETURNING `+empresaColumns, e.ID, e.Slug, e.Nome, e.Cor, e.Ordem, e.Ativo))
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return Empresa{}, repo.ErrConflict
		}
		return Empresa{}, err
	}
	return updated, nil
}

// Delete remove empresa.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM empresas WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TiposBloqueados devolve empresaID -> tipos bloqueados.
func (r *Repository) TiposBloqueados(ctx context.Context, empresaIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(empresaIDs))
	if len(empresaIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
        SELECT empresa_id, tipo_certidao_id FROM empresa_tipos_bloqueados
        WHERE empresa_id = ANY($1) ORDER BY empresa_id, tipo_certidao_id`, empresaIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var empresaID, tipoID int64
		if err := rows.Scan(&empresaID, &tipoID); err != nil {
			return nil, err
		}
		out[empresaID] = append(out[empresaID], tipoID)
	}
	return out, rows.Err()
}

// SetTiposBloqueados substitui os bloqueios da empresa numa transação.
func (r *Repository) SetTiposBloqueados(ctx context.Context, empresaID int64, tipoIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM empresa_tipos_bloqueados WHERE empresa_id = $1`, empresaID); err != nil {
			return err
		}
		for _, tipoID := range tipoIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO empresa_tipos_bloqueados (empresa_id, tipo_certidao_id) VALUES ($1, $2)
                ON CONFLICT DO NOTHING`, empresaID, tipoID); err != nil {
				if repo.IsForeignKeyViolation(err) {
					return ErrNotFound
				}
				return err
			}
		}
		return nil
	})
}
