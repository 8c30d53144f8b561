package lembrete

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/notificacoes"
	"github.com/siscert/api/internal/push"
)

type fixedUsers []notificacoes.Elegivel

func (f fixedUsers) Elegiveis(context.Context) ([]notificacoes.Elegivel, error) { return f, nil }

type stubAccess map[int64]acesso.AuthContext

func (s stubAccess) Load(_ context.Context, userID int64) (acesso.AuthContext, error) {
	ac, ok := s[userID]
	if !ok {
		return acesso.AuthContext{}, errors.New("usuário inativo")
	}
	return ac, nil
}

type expiringCall struct {
	vis      acesso.Visibility
	from, to string
}

type stubCertidoes struct {
	mu    sync.Mutex
	rows  []certidao.Certidao
	calls []expiringCall
}

func (s *stubCertidoes) Expiring(_ context.Context, vis acesso.Visibility, from, to string) ([]certidao.Certidao, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, expiringCall{vis: vis, from: from, to: to})
	var out []certidao.Certidao
	for _, c := range s.rows {
		if vis.Allows(c.GrupoID) && c.DataValidade >= from && c.DataValidade <= to {
			out = append(out, c)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[int64]push.Payload
}

func (r *recordingNotifier) SendToUser(_ context.Context, userID int64, payload push.Payload) (push.SendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[int64]push.Payload{}
	}
	r.sent[userID] = payload
	return push.SendResult{Sent: 1}, nil
}

var saoPaulo = mustLoad("America/Sao_Paulo")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func cert(validade string, grupoID *int64) certidao.Certidao {
	nome := "CND " + validade
	return certidao.Certidao{ID: uuid.New(), Empresa: "acme", Nome: &nome, DataValidade: validade, GrupoID: grupoID}
}

func int64p(v int64) *int64 { return &v }

// segunda-feira, 09:00 em São Paulo
var monday0900 = time.Date(2026, 3, 9, 9, 0, 30, 0, saoPaulo)

func TestRunTickSendsDueUser(t *testing.T) {
	certs := &stubCertidoes{rows: []certidao.Certidao{
		cert("2026-03-20", int64p(1)),
		cert("2026-03-09", nil),
		cert("2026-05-01", int64p(1)),
		cert("2026-03-10", int64p(2)),
	}}
	notifier := &recordingNotifier{}
	users := fixedUsers{{UsuarioID: 5, DiasAntes: 30, Frequencia: notificacoes.FrequenciaDiaria, Horario: "09:00"}}
	access := stubAccess{5: acesso.NewAuthContext(5, acesso.RoleUsuario, []acesso.Vinculo{{GrupoID: 1, Acesso: acesso.NivelVisualizador}})}

	job := NewJob(users, access, certs, notifier, saoPaulo, zerolog.Nop())
	summary, err := job.RunTick(context.Background(), monday0900.UTC())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Devidos)
	assert.Equal(t, 1, summary.Notificados)
	assert.Equal(t, 1, summary.Enviados)

	require.Len(t, certs.calls, 1)
	assert.Equal(t, "2026-03-09", certs.calls[0].from)
	assert.Equal(t, "2026-04-08", certs.calls[0].to)

	payload := notifier.sent[5]
	assert.Equal(t, "Siscert: certidões próximas do vencimento", payload.Title)
	assert.Equal(t, "2 certidão(ões) próxima(s) de vencer.", payload.Body)
	assert.Equal(t, "/", payload.URL)
	require.Len(t, payload.Certidoes, 2)
}

func TestRunTickSkipsWhenNoHorarioMatches(t *testing.T) {
	certs := &stubCertidoes{rows: []certidao.Certidao{cert("2026-03-10", nil)}}
	notifier := &recordingNotifier{}
	users := fixedUsers{{UsuarioID: 5, DiasAntes: 30, Frequencia: notificacoes.FrequenciaDiaria, Horario: "09:01"}}

	job := NewJob(users, stubAccess{}, certs, notifier, saoPaulo, zerolog.Nop())
	summary, err := job.RunTick(context.Background(), monday0900)
	require.NoError(t, err)

	assert.Zero(t, summary.Devidos)
	assert.Empty(t, certs.calls)
	assert.Empty(t, notifier.sent)
}

func TestRunTickAppliesCadencePerUser(t *testing.T) {
	certs := &stubCertidoes{rows: []certidao.Certidao{cert("2026-03-11", nil)}}
	users := fixedUsers{
		{UsuarioID: 1, DiasAntes: 5, Frequencia: notificacoes.FrequenciaSemanal, Horario: "09:00"},
		{UsuarioID: 2, DiasAntes: 5, Frequencia: notificacoes.FrequenciaDiaria, Horario: "09:00"},
	}
	access := stubAccess{
		1: acesso.NewAuthContext(1, acesso.RoleUsuario, nil),
		2: acesso.NewAuthContext(2, acesso.RoleUsuario, nil),
	}

	tuesday := monday0900.AddDate(0, 0, 1)
	notifier := &recordingNotifier{}
	job := NewJob(users, access, certs, notifier, saoPaulo, zerolog.Nop())
	_, err := job.RunTick(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Contains(t, notifier.sent, int64(2))
	assert.NotContains(t, notifier.sent, int64(1))

	notifier = &recordingNotifier{}
	job = NewJob(users, access, certs, notifier, saoPaulo, zerolog.Nop())
	_, err = job.RunTick(context.Background(), monday0900)
	require.NoError(t, err)
	assert.Len(t, notifier.sent, 2)
}

func TestRunTickNoPushWhenNothingExpiring(t *testing.T) {
	certs := &stubCertidoes{rows: []certidao.Certidao{cert("2026-12-31", nil)}}
	notifier := &recordingNotifier{}
	users := fixedUsers{{UsuarioID: 5, DiasAntes: 0, Frequencia: notificacoes.FrequenciaDiaria, Horario: "09:00"}}
	access := stubAccess{5: acesso.NewAuthContext(5, acesso.RoleAdmin, nil)}

	job := NewJob(users, access, certs, notifier, saoPaulo, zerolog.Nop())
	summary, err := job.RunTick(context.Background(), monday0900)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Devidos)
	assert.Zero(t, summary.Notificados)
	assert.Empty(t, notifier.sent)
}

func TestRunTickIsolatesUserFailures(t *testing.T) {
	certs := &stubCertidoes{rows: []certidao.Certidao{cert("2026-03-09", nil)}}
	notifier := &recordingNotifier{}
	users := fixedUsers{
		{UsuarioID: 1, DiasAntes: 1, Frequencia: notificacoes.FrequenciaDiaria, Horario: "09:00"},
		{UsuarioID: 2, DiasAntes: 1, Frequencia: notificacoes.FrequenciaDiaria, Horario: "09:00"},
	}
	access := stubAccess{2: acesso.NewAuthContext(2, acesso.RoleUsuario, nil)}

	job := NewJob(users, access, certs, notifier, saoPaulo, zerolog.Nop())
	summary, err := job.RunTick(context.Background(), monday0900)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Erros)
	assert.Equal(t, 1, summary.Notificados)
	assert.Contains(t, notifier.sent, int64(2))
}

func TestBuildPayloadCapsAtTen(t *testing.T) {
	var list []certidao.Certidao
	for i := 0; i < 12; i++ {
		list = append(list, cert(fmt.Sprintf("2026-04-%02d", i+1), nil))
	}
	list[0].Nome = nil

	payload := BuildPayload(list)
	assert.Equal(t, "12 certidão(ões) próxima(s) de vencer.", payload.Body)
	require.Len(t, payload.Certidoes, 10)
	assert.Nil(t, payload.Certidoes[0].Nome)
	assert.Equal(t, list[9].ID.String(), payload.Certidoes[9].ID)
	assert.Equal(t, "acme", payload.Certidoes[9].Empresa)
}

func TestRunNowIgnoresCadence(t *testing.T) {
	certs := &stubCertidoes{rows: []certidao.Certidao{cert(time.Now().In(saoPaulo).Format("2006-01-02"), nil)}}
	notifier := &recordingNotifier{}
	users := fixedUsers{
		{UsuarioID: 1, DiasAntes: 1, Frequencia: notificacoes.FrequenciaSemanal, Horario: "07:00"},
		{UsuarioID: 2, DiasAntes: 1, Frequencia: notificacoes.FrequenciaDiaria, Horario: "18:00"},
	}
	access := stubAccess{
		1: acesso.NewAuthContext(1, acesso.RoleUsuario, nil),
		2: acesso.NewAuthContext(2, acesso.RoleUsuario, nil),
	}

	job := NewJob(users, access, certs, notifier, saoPaulo, zerolog.Nop())
	summary, err := job.RunNow(context.Background(), "07:00")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Devidos)
	assert.Contains(t, notifier.sent, int64(1))
}
