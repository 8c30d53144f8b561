package lembrete

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siscert_lembrete_ticks_total",
			Help: "Execuções do job de lembretes por resultado.",
		},
		[]string{"result"},
	)
	usersNotified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siscert_lembrete_users_notified_total",
		Help: "Usuários que receberam lembrete de vencimento.",
	})
)
