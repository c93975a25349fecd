package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RoundsAutoLockedCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "pickem_rounds_auto_locked_total",
		Help: "Number of rounds locked by the scheduler",
	},
)

var RemindersSentCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pickem_reminders_sent_total",
	Help: "Number of reminder mails dispatched by kind",
}, []string{"kind"})

var TokensIssuedCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "pickem_tokens_issued_total",
		Help: "Number of access tokens issued",
	},
)

var ScoresComputedCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "pickem_scores_computed_total",
		Help: "Number of score rows written during round completion",
	},
)

var MailSentCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pickem_mail_sent_total",
	Help: "Number of mails handed to the mailer by template kind",
}, []string{"template"})

var MailFailedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pickem_mail_failed_total",
	Help: "Number of mail dispatch failures by template kind",
}, []string{"template"})

var SchedulerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "pickem_scheduler_tick_duration_seconds",
	Help: "Duration of scheduler ticks",
})
