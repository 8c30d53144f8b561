package certidao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siscert/api/internal/acesso"
)

const selectColumns = `
        SELECT id, empresa, tipo, nome, descricao,
               to_char(data_emissao, 'YYYY-MM-DD'), to_char(data_validade, 'YYYY-MM-DD'),
               tipo_documento, url_documento, alerta_ativo, notificar_dias_antes, observacoes,
               pendencias, documentos_adicionais, notas, status, data_exclusao, grupo_id,
               created_at, updated_at
        FROM certidoes`

const returningColumns = `
        RETURNING id, empresa, tipo, nome, descricao,
               to_char(data_emissao, 'YYYY-MM-DD'), to_char(data_validade, 'YYYY-MM-DD'),
               tipo_documento, url_documento, alerta_ativo, notificar_dias_antes, observacoes,
               pendencias, documentos_adicionais, notas, status, data_exclusao, grupo_id,
               created_at, updated_at`

// PgRepository provê acesso à tabela certidoes.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// List aplica filtro de status e visibilidade, ordenando pela validade.
func (r *PgRepository) List(ctx context.Context, filter Filter) ([]Certidao, error) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", idx))
		args = append(args, string(*filter.Status))
		idx++
	}
	if !filter.Visibility.All {
		clauses = append(clauses, fmt.Sprintf("(grupo_id IS NULL OR grupo_id = ANY($%d))", idx))
		args = append(args, nonNilIDs(filter.Visibility.GrupoIDs))
		idx++
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY data_validade ASC, created_at ASC"

	return r.query(ctx, query, args...)
}

// ListExpiring busca ativas com alerta ligado e validade em [from, to].
func (r *PgRepository) ListExpiring(ctx context.Context, vis acesso.Visibility, from, to string) ([]Certidao, error) {
	query := selectColumns + `
        WHERE status = 'ativa'
          AND alerta_ativo
          AND data_validade BETWEEN $1::date AND $2::date`
	args := []any{from, to}
	if !vis.All {
		query += " AND (grupo_id IS NULL OR grupo_id = ANY($3))"
		args = append(args, nonNilIDs(vis.GrupoIDs))
	}
	query += " ORDER BY data_validade ASC, created_at ASC"

	return r.query(ctx, query, args...)
}

// Get busca uma certidão pelo id.
func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Certidao, error) {
	row := r.pool.QueryRow(ctx, selectColumns+" WHERE id = $1", id)
	return scanCertidao(row)
}

// Insert grava nova certidão com o id já atribuído.
func (r *PgRepository) Insert(ctx context.Context, c Certidao) (*Certidao, error) {
	pendencias, documentos, notas, err := marshalSubRecords(c)
	if err != nil {
		return nil, err
	}

	query := `
        INSERT INTO certidoes (id, empresa, tipo, nome, descricao, data_emissao, data_validade,
            tipo_documento, url_documento, alerta_ativo, notificar_dias_antes, observacoes,
            pendencias, documentos_adicionais, notas, status, data_exclusao, grupo_id)
        VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)` + returningColumns

	row := r.pool.QueryRow(ctx, query,
		c.ID, c.Empresa, c.Tipo, c.Nome, c.Descricao, c.DataEmissao, c.DataValidade,
		string(c.TipoDocumento), c.URLDocumento, c.AlertaAtivo, c.NotificarDiasAntes, c.Observacoes,
		pendencias, documentos, notas, string(c.Status), c.DataExclusao, c.GrupoID,
	)
	return scanCertidao(row)
}

// Update regrava todos os campos editáveis (último a escrever vence).
func (r *PgRepository) Update(ctx context.Context, c Certidao) (*Certidao, error) {
	pendencias, documentos, notas, err := marshalSubRecords(c)
	if err != nil {
		return nil, err
	}

	query := `
        UPDATE certidoes SET
            empresa = $2, tipo = $3, nome = $4, descricao = $5,
            data_emissao = $6::date, data_validade = $7::date,
            tipo_documento = $8, url_documento = $9, alerta_ativo = $10,
            notificar_dias_antes = $11, observacoes = $12,
            pendencias = $13, documentos_adicionais = $14, notas = $15,
            status = $16, data_exclusao = $17, grupo_id = $18,
            updated_at = now()
        WHERE id = $1` + returningColumns

	row := r.pool.QueryRow(ctx, query,
		c.ID, c.Empresa, c.Tipo, c.Nome, c.Descricao, c.DataEmissao, c.DataValidade,
		string(c.TipoDocumento), c.URLDocumento, c.AlertaAtivo, c.NotificarDiasAntes, c.Observacoes,
		pendencias, documentos, notas, string(c.Status), c.DataExclusao, c.GrupoID,
	)
	return scanCertidao(row)
}

// SetStatus altera apenas status e data de exclusão.
func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status, dataExclusao *time.Time) (*Certidao, error) {
	query := `
        UPDATE certidoes SET status = $2, data_exclusao = $3, updated_at = now()
        WHERE id = $1` + returningColumns

	row := r.pool.QueryRow(ctx, query, id, string(status), dataExclusao)
	return scanCertidao(row)
}

// Delete remove a linha; false quando não existia.
func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM certidoes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountByStatus conta certidões por status.
func (r *PgRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM certidoes GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[Status]int{StatusAtiva: 0, StatusArquivada: 0, StatusLixeira: 0}
	for rows.Next() {
		var status string
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, err
		}
		counts[Status(status)] = total
	}
	return counts, rows.Err()
}

func (r *PgRepository) query(ctx context.Context, query string, args ...any) ([]Certidao, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Certidao{}
	for rows.Next() {
		c, err := scanCertidao(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return list, nil
}

func scanCertidao(row pgx.Row) (*Certidao, error) {
	var (
		c                             Certidao
		tipoDocumento, status         string
		pendencias, documentos, notas []byte
	)
	err := row.Scan(
		&c.ID, &c.Empresa, &c.Tipo, &c.Nome, &c.Descricao,
		&c.DataEmissao, &c.DataValidade,
		&tipoDocumento, &c.URLDocumento, &c.AlertaAtivo, &c.NotificarDiasAntes, &c.Observacoes,
		&pendencias, &documentos, &notas, &status, &c.DataExclusao, &c.GrupoID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.TipoDocumento = TipoDocumento(tipoDocumento)
	c.Status = Status(status)

	if err := unmarshalList(pendencias, &c.Pendencias); err != nil {
		return nil, fmt.Errorf("pendencias: %w", err)
	}
	if err := unmarshalList(documentos, &c.DocumentosAdicionais); err != nil {
		return nil, fmt.Errorf("documentos_adicionais: %w", err)
	}
	if err := unmarshalList(notas, &c.Notas); err != nil {
		return nil, fmt.Errorf("notas: %w", err)
	}
	return &c, nil
}

func unmarshalList[T any](raw []byte, dst *[]T) error {
	*dst = []T{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

func marshalSubRecords(c Certidao) (pendencias, documentos, notas []byte, err error) {
	if pendencias, err = marshalList(c.Pendencias); err != nil {
		return nil, nil, nil, err
	}
	if documentos, err = marshalList(c.DocumentosAdicionais); err != nil {
		return nil, nil, nil, err
	}
	if notas, err = marshalList(c.Notas); err != nil {
		return nil, nil, nil, err
	}
	return pendencias, documentos, notas, nil
}

func marshalList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
