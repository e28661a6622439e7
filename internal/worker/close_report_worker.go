package worker

import (
	"context"
	"fmt"

	"drawerledger/internal/infra"

	"github.com/rs/zerolog/log"
)

// CloseReportWorker mails the close summary of a drawer session to the
// configured supervisor address. Delivery is best effort: the ledger is
// durable before the job is ever enqueued, so a lost mail never loses data.
type CloseReportWorker struct {
	mailer    *infra.Mailer
	cb        *infra.CircuitBreaker
	recipient string
}

func NewCloseReportWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, recipient string) *CloseReportWorker {
	return &CloseReportWorker{mailer: mailer, cb: cb, recipient: recipient}
}

func (w *CloseReportWorker) Process(ctx context.Context, job CloseReportJob) error {
	if w.recipient == "" {
		log.Debug().Str("session_id", job.SessionID).Msg("no close report recipient configured, skipping")
		return nil
	}

	subject := fmt.Sprintf("Drawer %d closed — session %s", job.Drawer, job.SessionID)
	body := fmt.Sprintf(
		"Drawer %d was closed by %s.\n\n"+
			"Replayed balance: %s\n"+
			"Counted amount:   %s\n"+
			"Surplus/shortage: %s\n",
		job.Drawer, job.OperatorName, job.Balance, job.CountedAmount, job.CloseDelta)

	// The circuit breaker fast-fails while the SMTP server is down instead
	// of stalling a worker on every queued report.
	return w.cb.Execute(func() error {
		return w.mailer.SendCloseReport(w.recipient, subject, body)
	})
}
