package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/siscert/api/internal/db"
)

// ListGrupos lista grupos por nome.
func (q *Queries) ListGrupos(ctx context.Context) ([]Grupo, error) {
	rows, err := q.pool.Query(ctx, `SELECT id, nome, created_at FROM grupos ORDER BY nome, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Grupo
	for rows.Next() {
		var g Grupo
		if err := rows.Scan(&g.ID, &g.Nome, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// GetGrupo busca grupo por id.
func (q *Queries) GetGrupo(ctx context.Context, id int64) (Grupo, error) {
	var g Grupo
	err := q.pool.QueryRow(ctx, `SELECT id, nome, created_at FROM grupos WHERE id = $1`, id).Scan(&g.ID, &g.Nome, &g.CreatedAt)
	if err != nil {
		return Grupo{}, notFound(err)
	}
	return g, nil
}

// InsertGrupo cria grupo.
func (q *Queries) InsertGrupo(ctx context.Context, nome string) (Grupo, error) {
	var g Grupo
	err := q.pool.QueryRow(ctx, `INSERT INTO grupos (nome) VALUES ($1) RETURNING id, nome, created_at`, nome).
		Scan(&g.ID, &g.Nome, &g.CreatedAt)
	return g, err
}

// UpdateGrupo renomeia grupo.
func (q *Queries) UpdateGrupo(ctx context.Context, id int64, nome string) (Grupo, error) {
	var g Grupo
	err := q.pool.QueryRow(ctx, `UPDATE grupos SET nome = $2 WHERE id = $1 RETURNING id, nome, created_at`, id, nome).
		Scan(&g.ID, &g.Nome, &g.CreatedAt)
	if err != nil {
		return Grupo{}, notFound(err)
	}
	return g, nil
}

// DeleteGrupo remove grupo; certidões do grupo passam a globais.
func (q *Queries) DeleteGrupo(ctx context.Context, id int64) (bool, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM grupos WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListGrupoMembros lista usuários do grupo com o nível de acesso.
func (q *Queries) ListGrupoMembros(ctx context.Context, grupoID int64) ([]GrupoMembro, error) {
	rows, err := q.pool.Query(ctx, `
        SELECT u.id, u.login, u.nome, ug.acesso
        FROM usuario_grupos ug
        JOIN usuarios u ON u.id = ug.usuario_id
        WHERE ug.grupo_id = $1
        ORDER BY u.login`, grupoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []GrupoMembro
	for rows.Next() {
		var m GrupoMembro
		if err := rows.Scan(&m.UsuarioID, &m.Login, &m.Nome, &m.Acesso); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListGrupoEmpresaIDs devolve as empresas associadas ao grupo.
func (q *Queries) ListGrupoEmpresaIDs(ctx context.Context, grupoID int64) ([]int64, error) {
	rows, err := q.pool.Query(ctx, `SELECT empresa_id FROM grupo_empresas WHERE grupo_id = $1 ORDER BY empresa_id`, grupoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetGrupoUsuarios substitui os membros do grupo.
func (q *Queries) SetGrupoUsuarios(ctx context.Context, grupoID int64, membros []UsuarioGrupo) error {
	return db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM usuario_grupos WHERE grupo_id = $1`, grupoID); err != nil {
			return err
		}
		for _, m := range membros {
			if _, err := tx.Exec(ctx, `
                INSERT INTO usuario_grupos (usuario_id, grupo_id, acesso) VALUES ($1, $2, $3)
                ON CONFLICT (usuario_id, grupo_id) DO UPDATE SET acesso = EXCLUDED.acesso`,
				m.UsuarioID, grupoID, m.Acesso); err != nil {
				if IsForeignKeyViolation(err) {
					return ErrNotFound
				}
				return err
			}
		}
		return nil
	})
}

// SetGrupoEmpresas substitui as empresas do grupo.
func (q *Queries) SetGrupoEmpresas(ctx context.Context, grupoID int64, empresaIDs []int64) error {
	return db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM grupo_empresas WHERE grupo_id = $1`, grupoID); err != nil {
			return err
		}
		for _, id := range empresaIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO grupo_empresas (grupo_id, empresa_id) VALUES ($1, $2)
                ON CONFLICT DO NOTHING`, grupoID, id); err != nil {
				if IsForeignKeyViolation(err) {
					return ErrNotFound
				}
				return err
			}
		}
		return nil
	})
}
