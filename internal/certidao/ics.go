package certidao

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/util"
)

// Calendar gera o feed ICS das certidões ativas com alerta ligado visíveis ao usuário.
func (s *Service) Calendar(ctx context.Context, ac acesso.AuthContext) ([]byte, error) {
	status := StatusAtiva
	rows, err := s.repo.List(ctx, Filter{Status: &status, Visibility: ac.Visibility()})
	if err != nil {
		return nil, err
	}

	eventos := make([]Certidao, 0, len(rows))
	for _, c := range rows {
		if c.AlertaAtivo {
			eventos = append(eventos, c)
		}
	}
	return BuildICS(eventos, s.now()), nil
}

// BuildICS monta um VCALENDAR com um evento de dia inteiro por vencimento.
// Escape e dobra de linhas (75 octetos) ficam a cargo do golang-ical.
func BuildICS(list []Certidao, now time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId("-//Siscert//Certidoes//PT-BR")
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("Siscert - Vencimentos")

	for _, c := range list {
		validade, err := time.Parse(util.DateLayout, c.DataValidade)
		if err != nil {
			continue
		}
		summary := "Vencimento: " + c.Tipo
		if c.Nome != nil && strings.TrimSpace(*c.Nome) != "" {
			summary = "Vencimento: " + *c.Nome
		}

		event := cal.AddEvent(c.ID.String() + "@siscert")
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(validade)
		event.SetAllDayEndAt(validade.AddDate(0, 0, 1))
		event.SetSummary(summary)
		event.SetDescription(fmt.Sprintf("Empresa: %s\nTipo: %s\nValidade: %s", c.Empresa, c.Tipo, validade.Format("02/01/2006")))
		event.SetTimeTransparency(ics.TransparencyTransparent)

		if c.NotificarDiasAntes != nil {
			alarm := event.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-P%dD", *c.NotificarDiasAntes))
			alarm.SetProperty(ics.ComponentPropertyDescription, summary)
		}
	}

	return []byte(cal.Serialize())
}
