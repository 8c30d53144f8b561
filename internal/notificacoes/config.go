// Package notificacoes guarda a preferência de lembretes de cada usuário.
package notificacoes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/siscert/api/internal/util"
)

// Frequencia define a cadência dos lembretes.
type Frequencia string

const (
	FrequenciaDiaria  Frequencia = "diaria"
	FrequenciaSemanal Frequencia = "semanal"
)

// Config é a preferência de notificação do usuário.
type Config struct {
	NotificacoesLigado       bool       `json:"notificacoesLigado"`
	DiasAntes                int        `json:"diasAntes"`
	Frequencia               Frequencia `json:"frequencia"`
	Horario                  string     `json:"horario"`
	EnviarParaGoogleCalendar bool       `json:"enviarParaGoogleCalendar"`
}

// Default é usada enquanto o usuário não salvou preferência.
func Default() Config {
	return Config{
		NotificacoesLigado:       true,
		DiasAntes:                30,
		Frequencia:               FrequenciaDiaria,
		Horario:                  "09:00",
		EnviarParaGoogleCalendar: false,
	}
}

// Input é o corpo do PUT; todos os campos são obrigatórios.
type Input struct {
	NotificacoesLigado       *bool       `json:"notificacoesLigado"`
	DiasAntes                *int        `json:"diasAntes"`
	Frequencia               *Frequencia `json:"frequencia"`
	Horario                  *string     `json:"horario"`
	EnviarParaGoogleCalendar *bool       `json:"enviarParaGoogleCalendar"`
}

// Config valida e normaliza o horário para HH:MM.
func (in Input) Config() (Config, error) {
	if in.NotificacoesLigado == nil {
		return Config{}, util.Invalid("notificacoesLigado", "notificacoesLigado é obrigatório")
	}
	if in.DiasAntes == nil {
		return Config{}, util.Invalid("diasAntes", "diasAntes é obrigatório")
	}
	if err := util.IntRange(*in.DiasAntes, 0, 365, "diasAntes"); err != nil {
		return Config{}, err
	}
	if in.Frequencia == nil || (*in.Frequencia != FrequenciaDiaria && *in.Frequencia != FrequenciaSemanal) {
		return Config{}, util.Invalid("frequencia", "Frequência deve ser diaria ou semanal")
	}
	if in.Horario == nil {
		return Config{}, util.Invalid("horario", "Horário deve ser HH:mm")
	}
	horario, err := NormalizeHorario(*in.Horario)
	if err != nil {
		return Config{}, err
	}
	if in.EnviarParaGoogleCalendar == nil {
		return Config{}, util.Invalid("enviarParaGoogleCalendar", "enviarParaGoogleCalendar é obrigatório")
	}

	return Config{
		NotificacoesLigado:       *in.NotificacoesLigado,
		DiasAntes:                *in.DiasAntes,
		Frequencia:               *in.Frequencia,
		Horario:                  horario,
		EnviarParaGoogleCalendar: *in.EnviarParaGoogleCalendar,
	}, nil
}

// NormalizeHorario aceita H:MM ou HH:MM e devolve HH:MM.
func NormalizeHorario(v string) (string, error) {
	invalid := util.Invalid("horario", "Horário deve ser HH:mm")

	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 || !allDigits(h) || !allDigits(m) {
		return "", invalid
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return "", invalid
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return "", invalid
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Matches informa se a cadência cai no dia da semana (0 = domingo).
func (f Frequencia) Matches(weekday int) bool {
	switch f {
	case FrequenciaDiaria:
		return true
	case FrequenciaSemanal:
		return weekday == 1
	}
	return false
}
