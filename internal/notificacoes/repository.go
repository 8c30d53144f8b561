package notificacoes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Elegivel é um usuário com notificações ligadas, configuração salva e ao
// menos uma inscrição push.
type Elegivel struct {
	UsuarioID  int64
	DiasAntes  int
	Frequencia Frequencia
	Horario    string
}

// Repository persiste notificacao_configs.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get devolve a configuração salva; ok=false quando não existe.
func (r *Repository) Get(ctx context.Context, userID int64) (Config, bool, error) {
	var cfg Config
	var freq string
	err := r.pool.QueryRow(ctx, `
        SELECT notificacoes_ligado, dias_antes, frequencia, horario, enviar_para_google_calendar
        FROM notificacao_configs WHERE usuario_id = $1`, userID).
		Scan(&cfg.NotificacoesLigado, &cfg.DiasAntes, &freq, &cfg.Horario, &cfg.EnviarParaGoogleCalendar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, false, nil
		}
		return Config{}, false, err
	}
	cfg.Frequencia = Frequencia(freq)
	return cfg, true, nil
}

// Upsert grava a configuração do usuário.
func (r *Repository) Upsert(ctx context.Context, userID int64, cfg Config) (Config, error) {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO notificacao_configs (usuario_id, notificacoes_ligado, dias_antes, frequencia, horario, enviar_para_google_calendar)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (usuario_id) DO UPDATE
        SET notificacoes_ligado = EXCLUDED.notificacoes_ligado,
            dias_antes = EXCLUDED.dias_antes,
            frequencia = EXCLUDED.frequencia,
            horario = EXCLUDED.horario,
            enviar_para_google_calendar = EXCLUDED.enviar_para_google_calendar,
            updated_at = now()`,
		userID, cfg.NotificacoesLigado, cfg.DiasAntes, string(cfg.Frequencia), cfg.Horario, cfg.EnviarParaGoogleCalendar)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListElegiveis lista usuários ativos aptos a receber lembretes por push.
func (r *Repository) ListElegiveis(ctx context.Context) ([]Elegivel, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT c.usuario_id, c.dias_antes, c.frequencia, c.horario
        FROM notificacao_configs c
        JOIN usuarios u ON u.id = c.usuario_id
        WHERE c.notificacoes_ligado
          AND u.status = 'ativo'
          AND EXISTS (SELECT 1 FROM push_subscriptions s WHERE s.usuario_id = c.usuario_id)
        ORDER BY c.usuario_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Elegivel
	for rows.Next() {
		var e Elegivel
		var freq string
		if err := rows.Scan(&e.UsuarioID, &e.DiasAntes, &freq, &e.Horario); err != nil {
			return nil, err
		}
		e.Frequencia = Frequencia(freq)
		list = append(list, e)
	}
	return list, rows.Err()
}
