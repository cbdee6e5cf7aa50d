// Package notify delivers the slots found by a run to the user.
package notify

import (
	"context"

	"sigawatch/internal/components/assert"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/siga"
)

const (
	report_dispatch_chat  = "dispatch.chat"
	report_dispatch_toast = "dispatch.toast"
	report_dispatch_mail  = "dispatch.mail"
)

// ChatSender sends a Markdown message to a chat.
type ChatSender interface {
	Send(ctx context.Context, text string) error
}

// MailSender sends a Markdown message by e-mail.
type MailSender interface {
	Send(ctx context.Context, subject, message string) error
}

// Dispatcher fans the result of a run out to every configured channel.
// Channel failures are reported and never retried.
type Dispatcher struct {
	tel   telemetry.API
	toast Toaster
	chat  ChatSender
	mail  MailSender
}

// NewDispatcher creates a Dispatcher, chat and mail are optional and may be nil.
func NewDispatcher(tel telemetry.API, toast Toaster, chat ChatSender, mail MailSender) Dispatcher {
	assert.NotNil(tel)
	assert.NotNil(toast)
	return Dispatcher{
		tel:   telemetry.NewScopedAPI("notify", tel),
		toast: toast,
		chat:  chat,
		mail:  mail,
	}
}

// Dispatch does nothing when slots is empty. Otherwise it notifies every channel
// and clears slots, whatever the outcome of the channels.
func (d Dispatcher) Dispatch(ctx context.Context, header siga.NotificationHeader, slots *siga.SlotTable) {
	if slots == nil || slots.Empty() {
		d.tel.ReportDebug("no slots to dispatch")
		return
	}
	defer slots.Clear()

	message := BuildMessage(header, slots)

	if d.chat != nil {
		err := d.chat.Send(ctx, message)
		if err != nil {
			d.tel.ReportBroken(report_dispatch_chat, err)
		} else {
			d.tel.ReportInfo("message sent to telegram")
		}
	}

	err := d.toast.Toast(ToastTitle, ToastMessage(header))
	if err != nil {
		d.tel.ReportBroken(report_dispatch_toast, err)
	}

	if d.mail != nil {
		err := d.mail.Send(ctx, Subject(header), message)
		if err != nil {
			d.tel.ReportBroken(report_dispatch_mail, err)
		} else {
			d.tel.ReportInfo("e-mail sent")
		}
	}

	d.tel.ReportCount("slots_dispatched", int64(slots.Count()))
}
