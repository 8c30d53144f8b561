package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/siscert/api/internal/db"
)

const usuarioColumns = `id, login, senha_hash, nome, role, status, approved_at, approved_by, created_at, updated_at`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Login, &u.SenhaHash, &u.Nome, &u.Role, &u.Status, &u.ApprovedAt, &u.ApprovedBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return Usuario{}, notFound(err)
	}
	return u, nil
}

// GetUsuarioByLogin busca usuário pelo login (case-sensitive, como cadastrado).
func (q *Queries) GetUsuarioByLogin(ctx context.Context, login string) (Usuario, error) {
	return scanUsuario(q.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE login = $1`, login))
}

// GetUsuarioByID busca usuário pelo id.
func (q *Queries) GetUsuarioByID(ctx context.Context, id int64) (Usuario, error) {
	return scanUsuario(q.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1`, id))
}

// ListUsuarios lista todos os usuários em ordem de cadastro.
func (q *Queries) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	rows, err := q.pool.Query(ctx, `SELECT `+usuarioColumns+` FROM usuarios ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// InsertUsuario cria usuário; login duplicado retorna ErrConflict.
func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        INSERT INTO usuarios (login, senha_hash, nome, role, status, approved_at)
        VALUES ($1, $2, $3, $4, $5, CASE WHEN $5 = 'ativo' THEN now() END)
        RETURNING `+usuarioColumns,
		arg.Login, arg.SenhaHash, arg.Nome, arg.Role, arg.Status)
	u, err := scanUsuario(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return Usuario{}, ErrConflict
		}
		return Usuario{}, err
	}
	return u, nil
}

// UpdateUsuario aplica apenas os campos informados.
func (q *Queries) UpdateUsuario(ctx context.Context, id int64, arg UpdateUsuarioParams) (Usuario, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if arg.Login != nil {
		setParts = append(setParts, fmt.Sprintf("login = $%d", idx))
		args = append(args, *arg.Login)
		idx++
	}
	if arg.SenhaHash != nil {
		setParts = append(setParts, fmt.Sprintf("senha_hash = $%d", idx))
		args = append(args, *arg.SenhaHash)
		idx++
	}
	if arg.SetNome {
		setParts = append(setParts, fmt.Sprintf("nome = $%d", idx))
		args = append(args, arg.Nome)
		idx++
	}
	if len(setParts) == 0 {
		return q.GetUsuarioByID(ctx, id)
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE usuarios SET %s WHERE id = $%d RETURNING %s`, strings.Join(setParts, ", "), idx, usuarioColumns)
	u, err := scanUsuario(q.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if IsUniqueViolation(err) {
			return Usuario{}, ErrConflict
		}
		return Usuario{}, err
	}
	return u, nil
}

// UpdateSenha troca o hash da senha.
func (q *Queries) UpdateSenha(ctx context.Context, id int64, senhaHash string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE usuarios SET senha_hash = $2, updated_at = now() WHERE id = $1`, id, senhaHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUsuarioStatus muda o status; ao ativar registra quem aprovou.
func (q *Queries) SetUsuarioStatus(ctx context.Context, id int64, status string, approvedBy *int64) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        UPDATE usuarios SET
            status = $2,
            approved_at = CASE WHEN $2 = 'ativo' AND $3::bigint IS NOT NULL THEN now() ELSE approved_at END,
            approved_by = CASE WHEN $2 = 'ativo' AND $3::bigint IS NOT NULL THEN $3 ELSE approved_by END,
            updated_at = now()
        WHERE id = $1
        RETURNING `+usuarioColumns, id, status, approvedBy)
	return scanUsuario(row)
}

// DeleteUsuario remove o usuário; vínculos e inscrições caem em cascata.
func (q *Queries) DeleteUsuario(ctx context.Context, id int64) (bool, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountUsuariosByStatus conta usuários por status.
func (q *Queries) CountUsuariosByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := q.pool.Query(ctx, `SELECT status, COUNT(*) FROM usuarios GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{StatusPendente: 0, StatusAtivo: 0, StatusBloqueado: 0}
	for rows.Next() {
		var status string
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, err
		}
		counts[status] = total
	}
	return counts, rows.Err()
}

// ListUsuarioGrupos devolve os vínculos do usuário.
func (q *Queries) ListUsuarioGrupos(ctx context.Context, usuarioID int64) ([]UsuarioGrupo, error) {
	rows, err := q.pool.Query(ctx, `
        SELECT usuario_id, grupo_id, acesso FROM usuario_grupos
        WHERE usuario_id = $1 ORDER BY grupo_id`, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVinculos(rows)
}

// ListAllUsuarioGrupos devolve todos os vínculos, para montar listagens.
func (q *Queries) ListAllUsuarioGrupos(ctx context.Context) ([]UsuarioGrupo, error) {
	rows, err := q.pool.Query(ctx, `SELECT usuario_id, grupo_id, acesso FROM usuario_grupos ORDER BY usuario_id, grupo_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVinculos(rows)
}

func collectVinculos(rows pgx.Rows) ([]UsuarioGrupo, error) {
	var list []UsuarioGrupo
	for rows.Next() {
		var v UsuarioGrupo
		if err := rows.Scan(&v.UsuarioID, &v.GrupoID, &v.Acesso); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// SetUsuarioGrupos substitui todos os vínculos do usuário numa transação.
func (q *Queries) SetUsuarioGrupos(ctx context.Context, usuarioID int64, vinculos []UsuarioGrupo) error {
	return db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM usuario_grupos WHERE usuario_id = $1`, usuarioID); err != nil {
			return err
		}
		for _, v := range vinculos {
			if _, err := tx.Exec(ctx, `
                INSERT INTO usuario_grupos (usuario_id, grupo_id, acesso) VALUES ($1, $2, $3)
                ON CONFLICT (usuario_id, grupo_id) DO UPDATE SET acesso = EXCLUDED.acesso`,
				usuarioID, v.GrupoID, v.Acesso); err != nil {
				if IsForeignKeyViolation(err) {
					return ErrNotFound
				}
				return err
			}
		}
		return nil
	})
}
