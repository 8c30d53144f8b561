// Package lembrete roda o job que avisa por push sobre certidões perto do vencimento.
package lembrete

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/notificacoes"
	"github.com/siscert/api/internal/push"
	"github.com/siscert/api/internal/util"
)

const (
	everyMinute   = "* * * * *"
	maxCertidoes  = 10
	defaultWorker = 4
	payloadTitle  = "Siscert: certidões próximas do vencimento"
)

// Elegiveis lista usuários com notificação ligada e inscrição push.
type Elegiveis interface {
	Elegiveis(ctx context.Context) ([]notificacoes.Elegivel, error)
}

// AccessLoader monta o AuthContext de um usuário.
type AccessLoader interface {
	Load(ctx context.Context, userID int64) (acesso.AuthContext, error)
}

// Certidoes busca certidões ativas com alerta vencendo no intervalo.
type Certidoes interface {
	Expiring(ctx context.Context, vis acesso.Visibility, from, to string) ([]certidao.Certidao, error)
}

// Notifier entrega o payload a todas as inscrições do usuário.
type Notifier interface {
	SendToUser(ctx context.Context, userID int64, payload push.Payload) (push.SendResult, error)
}

// Summary descreve uma execução.
type Summary struct {
	Horario     string `json:"horario"`
	Elegiveis   int    `json:"elegiveis"`
	Devidos     int    `json:"devidos"`
	Notificados int    `json:"notificados"`
	Enviados    int    `json:"enviados"`
	Falhas      int    `json:"falhas"`
	Removidos   int    `json:"removidos"`
	Erros       int    `json:"erros"`
}

// Job agenda a verificação a cada minuto no fuso configurado.
type Job struct {
	users     Elegiveis
	access    AccessLoader
	certidoes Certidoes
	notifier  Notifier
	loc       *time.Location
	workers   int
	logger    zerolog.Logger

	once   sync.Once
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewJob(users Elegiveis, access AccessLoader, certidoes Certidoes, notifier Notifier, loc *time.Location, logger zerolog.Logger) *Job {
	if loc == nil {
		loc = time.Local
	}
	return &Job{
		users:     users,
		access:    access,
		certidoes: certidoes,
		notifier:  notifier,
		loc:       loc,
		workers:   defaultWorker,
		logger:    logger,
	}
}

// Start registra o agendamento. Execuções sobrepostas são descartadas.
func (j *Job) Start(parent context.Context) error {
	var startErr error
	j.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		cl := cronLogger{logger: j.logger}
		c := cron.New(
			cron.WithLocation(j.loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)
		if _, err := c.AddFunc(everyMinute, func() {
			if _, err := j.RunTick(ctx, time.Now()); err != nil {
				j.logger.Error().Err(err).Msg("lembrete: execução falhou")
			}
		}); err != nil {
			cancel()
			startErr = fmt.Errorf("agendar lembretes: %w", err)
			return
		}
		j.cron = c
		j.cancel = cancel
		c.Start()
		j.logger.Info().Str("timezone", j.loc.String()).Msg("lembrete: job iniciado")
	})
	return startErr
}

// Stop interrompe o agendamento e espera a execução em andamento terminar.
func (j *Job) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	j.cancel()
}

// RunTick processa o minuto atual: só atua quando algum usuário tem o
// horário igual a HH:MM de now e a cadência cai no dia.
func (j *Job) RunTick(ctx context.Context, now time.Time) (Summary, error) {
	local := now.In(j.loc)
	hhmm := local.Format("15:04")
	weekday := int(local.Weekday())

	summary := Summary{Horario: hhmm}
	users, err := j.users.Elegiveis(ctx)
	if err != nil {
		ticksTotal.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("listar elegíveis: %w", err)
	}
	summary.Elegiveis = len(users)

	var due []notificacoes.Elegivel
	for _, u := range users {
		if u.Horario == hhmm && u.Frequencia.Matches(weekday) {
			due = append(due, u)
		}
	}
	if len(due) == 0 {
		ticksTotal.WithLabelValues("skipped").Inc()
		return summary, nil
	}

	ticksTotal.WithLabelValues("executed").Inc()
	j.notify(ctx, local, due, &summary)
	j.logSummary(summary)
	return summary, nil
}

// RunNow executa fora do agendamento para os usuários do horário informado
// (todos quando vazio), sem considerar a cadência.
func (j *Job) RunNow(ctx context.Context, horario string) (Summary, error) {
	local := time.Now().In(j.loc)
	summary := Summary{Horario: horario}

	users, err := j.users.Elegiveis(ctx)
	if err != nil {
		return summary, fmt.Errorf("listar elegíveis: %w", err)
	}
	summary.Elegiveis = len(users)

	var due []notificacoes.Elegivel
	for _, u := range users {
		if horario == "" || u.Horario == horario {
			due = append(due, u)
		}
	}
	j.notify(ctx, local, due, &summary)
	j.logSummary(summary)
	return summary, nil
}

func (j *Job) notify(ctx context.Context, local time.Time, due []notificacoes.Elegivel, summary *Summary) {
	summary.Devidos = len(due)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)

	for _, u := range due {
		g.Go(func() error {
			res, notified, err := j.notifyUser(gctx, local, u)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Erros++
				j.logger.Warn().Err(err).Int64("user_id", u.UsuarioID).Msg("lembrete: falha ao processar usuário")
				return nil
			}
			if notified {
				summary.Notificados++
				usersNotified.Inc()
			}
			summary.Enviados += res.Sent
			summary.Falhas += res.Failed
			summary.Removidos += res.Pruned
			return nil
		})
	}
	_ = g.Wait()
}

func (j *Job) notifyUser(ctx context.Context, local time.Time, u notificacoes.Elegivel) (push.SendResult, bool, error) {
	ac, err := j.access.Load(ctx, u.UsuarioID)
	if err != nil {
		return push.SendResult{}, false, fmt.Errorf("carregar acesso: %w", err)
	}

	from := local.Format(util.DateLayout)
	to := local.AddDate(0, 0, u.DiasAntes).Format(util.DateLayout)
	list, err := j.certidoes.Expiring(ctx, ac.Visibility(), from, to)
	if err != nil {
		return push.SendResult{}, false, fmt.Errorf("buscar vencimentos: %w", err)
	}
	if len(list) == 0 {
		return push.SendResult{}, false, nil
	}

	res, err := j.notifier.SendToUser(ctx, u.UsuarioID, BuildPayload(list))
	if err != nil {
		return res, false, fmt.Errorf("enviar push: %w", err)
	}
	return res, true, nil
}

// BuildPayload resume até dez certidões; o total aparece no corpo.
func BuildPayload(list []certidao.Certidao) push.Payload {
	payload := push.Payload{
		Title: payloadTitle,
		Body:  fmt.Sprintf("%d certidão(ões) próxima(s) de vencer.", len(list)),
		URL:   "/",
	}
	for i, c := range list {
		if i == maxCertidoes {
			break
		}
		payload.Certidoes = append(payload.Certidoes, push.PayloadCertidao{
			ID:           c.ID.String(),
			Nome:         c.Nome,
			DataValidade: c.DataValidade,
			Empresa:      c.Empresa,
		})
	}
	return payload
}

func (j *Job) logSummary(s Summary) {
	j.logger.Info().
		Str("horario", s.Horario).
		Int("devidos", s.Devidos).
		Int("notificados", s.Notificados).
		Int("enviados", s.Enviados).
		Int("falhas", s.Falhas).
		Int("removidos", s.Removidos).
		Int("erros", s.Erros).
		Msg("lembrete: execução concluída")
}
