package repo

import (
	"context"
	"fmt"
	"strings"
)

const tipoColumns = `id, nome, ordem, ativo, created_at`

// ListTipos lista tipos por ordem e nome.
func (q *Queries) ListTipos(ctx context.Context, apenasAtivos bool) ([]TipoCertidao, error) {
	query := `SELECT ` + tipoColumns + ` FROM tipos_certidao`
	if apenasAtivos {
		query += ` WHERE ativo`
	}
	query += ` ORDER BY ordem, nome`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []TipoCertidao
	for rows.Next() {
		var t TipoCertidao
		if err := rows.Scan(&t.ID, &t.Nome, &t.Ordem, &t.Ativo, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// InsertTipo cria tipo de certidão.
func (q *Queries) InsertTipo(ctx context.Context, nome string, ordem int) (TipoCertidao, error) {
	var t TipoCertidao
	err := q.pool.QueryRow(ctx, `INSERT INTO tipos_certidao (nome, ordem) VALUES ($1, $2) RETURNING `+tipoColumns, nome, ordem).
		Scan(&t.ID, &t.Nome, &t.Ordem, &t.Ativo, &t.CreatedAt)
	return t, err
}

// UpdateTipo aplica os campos informados.
func (q *Queries) UpdateTipo(ctx context.Context, id int64, arg UpdateTipoParams) (TipoCertidao, error) {
	setParts := []string{}
	args := []any{}
	idx := 1
	if arg.Nome != nil {
		setParts = append(setParts, fmt.Sprintf("nome = $%d", idx))
		args = append(args, *arg.Nome)
		idx++
	}
	if arg.Ordem != nil {
		setParts = append(setParts, fmt.Sprintf("ordem = $%d", idx))
		args = append(args, *arg.Ordem)
		idx++
	}
	if arg.Ativo != nil {
		setParts = append(setParts, fmt.Sprintf("ativo = $%d", idx))
		args = append(args, *arg.Ativo)
		idx++
	}

	var t TipoCertidao
	var err error
	if len(setParts) == 0 {
		err = q.pool.QueryRow(ctx, `SELECT `+tipoColumns+` FROM tipos_certidao WHERE id = $1`, id).
			Scan(&t.ID, &t.Nome, &t.Ordem, &t.Ativo, &t.CreatedAt)
	} else {
		args = append(args, id)
		query := fmt.Sprintf(`UPDATE tipos_certidao SET %s WHERE id = $%d RETURNING %s`, strings.Join(setParts, ", "), idx, tipoColumns)
		err = q.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Nome, &t.Ordem, &t.Ativo, &t.CreatedAt)
	}
	if err != nil {
		return TipoCertidao{}, notFound(err)
	}
	return t, nil
}

// DeleteTipo remove tipo de certidão.
func (q *Queries) DeleteTipo(ctx context.Context, id int64) (bool, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM tipos_certidao WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
