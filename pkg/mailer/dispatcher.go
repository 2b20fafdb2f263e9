package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/grymm/barber-auth/pkg/helpers"
)

// Dispatcher delivers an OTP code to an email address. A returned error is a
// transport failure reported to the caller; the code itself stays issued.
type Dispatcher interface {
	SendOTP(ctx context.Context, email, code string) error
}

// QueueDispatcher enqueues the email job on RabbitMQ; the email worker picks
// it up and sends through Mailgun. A failed publish is the send failure.
type QueueDispatcher struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueDispatcher(pub *helpers.RabbitPublisher) *QueueDispatcher {
	return &QueueDispatcher{Pub: pub}
}

func (d *QueueDispatcher) SendOTP(ctx context.Context, email, code string) error {
	return d.Pub.PublishJSON(ctx, EmailJob{To: email, Code: code})
}

// DirectDispatcher sends the OTP email through Mailgun inline, for
// deployments without a broker.
type DirectDispatcher struct {
	MG *Mailgun
}

func NewDirectDispatcher(mg *Mailgun) *DirectDispatcher {
	return &DirectDispatcher{MG: mg}
}

func (d *DirectDispatcher) SendOTP(ctx context.Context, email, code string) error {
	subject, text, html := RenderOTP(code)
	return d.MG.Send(ctx, email, subject, text, html)
}

// LogDispatcher writes the code to the log instead of sending email. For
// local development only.
type LogDispatcher struct {
	Logger *logrus.Logger
}

func (d *LogDispatcher) SendOTP(_ context.Context, email, code string) error {
	d.Logger.WithFields(logrus.Fields{"email": email, "code": code}).Warn("mail sending disabled, otp logged")
	return nil
}

var (
	_ Dispatcher = (*QueueDispatcher)(nil)
	_ Dispatcher = (*DirectDispatcher)(nil)
	_ Dispatcher = (*LogDispatcher)(nil)
)
