package notificacoes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siscert/api/internal/util"
)

func ptr[T any](v T) *T { return &v }

func validInput() Input {
	return Input{
		NotificacoesLigado:       ptr(true),
		DiasAntes:                ptr(15),
		Frequencia:               ptr(FrequenciaSemanal),
		Horario:                  ptr("8:05"),
		EnviarParaGoogleCalendar: ptr(false),
	}
}

func TestNormalizeHorario(t *testing.T) {
	cases := map[string]string{"9:00": "09:00", "09:00": "09:00", "23:59": "23:59", " 7:30 ": "07:30"}
	for in, want := range cases {
		got, err := NormalizeHorario(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"", "9", "24:00", "12:60", "123:00", "9:5", "ab:cd", "+9:00", "-0:00", "+1:+5", "1:-5"} {
		_, err := NormalizeHorario(bad)
		assert.Error(t, err, bad)
	}
}

func TestInputConfig(t *testing.T) {
	cfg, err := validInput().Config()
	require.NoError(t, err)
	assert.Equal(t, "08:05", cfg.Horario)
	assert.Equal(t, FrequenciaSemanal, cfg.Frequencia)

	cases := []struct {
		name  string
		mut   func(*Input)
		campo string
	}{
		{"dias negativos", func(in *Input) { in.DiasAntes = ptr(-1) }, "diasAntes"},
		{"dias acima", func(in *Input) { in.DiasAntes = ptr(366) }, "diasAntes"},
		{"frequencia", func(in *Input) { in.Frequencia = ptr(Frequencia("mensal")) }, "frequencia"},
		{"horario ausente", func(in *Input) { in.Horario = nil }, "horario"},
		{"ligado ausente", func(in *Input) { in.NotificacoesLigado = nil }, "notificacoesLigado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mut(&in)
			_, err := in.Config()
			verr, ok := util.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tc.campo, verr.Campo)
		})
	}

	in := validInput()
	in.DiasAntes = ptr(0)
	_, err = in.Config()
	assert.NoError(t, err)
}

func TestFrequenciaMatches(t *testing.T) {
	for wd := 0; wd < 7; wd++ {
		assert.True(t, FrequenciaDiaria.Matches(wd))
		assert.Equal(t, wd == 1, FrequenciaSemanal.Matches(wd))
	}
}

type memStore struct {
	cfgs map[int64]Config
}

func (m *memStore) Get(_ context.Context, userID int64) (Config, bool, error) {
	cfg, ok := m.cfgs[userID]
	return cfg, ok, nil
}

func (m *memStore) Upsert(_ context.Context, userID int64, cfg Config) (Config, error) {
	m.cfgs[userID] = cfg
	return cfg, nil
}

func (m *memStore) ListElegiveis(context.Context) ([]Elegivel, error) { return nil, nil }

func TestServiceDefaultsAndSave(t *testing.T) {
	svc := NewService(&memStore{cfgs: map[int64]Config{}})
	ctx := context.Background()

	cfg, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	saved, err := svc.Save(ctx, 1, validInput())
	require.NoError(t, err)
	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestCalendarioLiberado(t *testing.T) {
	svc := NewService(&memStore{cfgs: map[int64]Config{}})
	ctx := context.Background()

	assert.ErrorIs(t, svc.CalendarioLiberado(ctx, 1), ErrCalendarioDesativado)

	in := validInput()
	in.EnviarParaGoogleCalendar = ptr(true)
	_, err := svc.Save(ctx, 1, in)
	require.NoError(t, err)
	assert.NoError(t, svc.CalendarioLiberado(ctx, 1))
}
