package service

import (
	"context"
	"time"

	"storagify/file-api/internal/model"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Notifier sends notification mails in the background. Callers never wait
// for a mail and never see its errors, those are only logged.
type Notifier struct {
	mailer  Mailer
	timeout time.Duration
	app     string
	maxSize int64

	wg conc.WaitGroup
}

func NewNotifier(m Mailer, timeout time.Duration, app string, maxSize int64) *Notifier {
	return &Notifier{
		mailer:  m,
		timeout: timeout,
		app:     app,
		maxSize: maxSize,
	}
}

func (n *Notifier) Welcome(u *model.User) {
	mail, err := welcomeMail(n.app, n.maxSize, u)
	if err != nil {
		zap.L().Error("Failed to build welcome mail", zap.Error(err), zap.String("userID", u.ID))
		return
	}

	n.dispatch("welcome", mail)
}

func (n *Notifier) Uploaded(u *model.User, f *model.File) {
	mail, err := uploadedMail(u, f)
	if err != nil {
		zap.L().Error("Failed to build upload mail", zap.Error(err), zap.String("fileID", f.ID))
		return
	}

	n.dispatch("uploaded", mail)
}

// Wait blocks until every dispatched mail is sent or has failed
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// dispatch sends m on its own goroutine with a context that isn't tied
// to the request that triggered it
func (n *Notifier) dispatch(kind string, m Mail) {
	n.wg.Go(func() {
		var pc panics.Catcher

		pc.Try(func() {
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()

			if err := n.mailer.Send(ctx, m); err != nil {
				notificationsTotal.WithLabelValues(kind, "error").Inc()
				zap.L().Warn("Failed to send notification", zap.String("kind", kind), zap.Error(err))
				return
			}

			notificationsTotal.WithLabelValues(kind, "ok").Inc()
			zap.L().Debug("Notification sent", zap.String("kind", kind))
		})

		if r := pc.Recovered(); r != nil {
			notificationsTotal.WithLabelValues(kind, "panic").Inc()
			zap.L().Error("Notification panicked", zap.String("kind", kind), zap.Error(r.AsError()))
		}
	})
}
