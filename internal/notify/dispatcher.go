package notify

import (
	"context"

	"go.uber.org/zap"
)

// EmailSender and ChatSender are the channel contracts the dispatcher
// fans out to. Implemented by EmailClient and LineClient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type ChatSender interface {
	Push(ctx context.Context, to, text string) error
}

// Recipient identifies where a message goes. An empty field disables
// that channel.
type Recipient struct {
	Email      string
	LineUserID string
}

// Message is the prepared per-channel content.
type Message struct {
	Subject  string
	HTMLBody string
	LineText string
}

// ChannelResult is one channel's send outcome.
type ChannelResult struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// Outcome collects per-channel results. A nil entry means the channel
// was not attempted.
type Outcome struct {
	Email *ChannelResult `json:"email,omitempty"`
	Line  *ChannelResult `json:"line,omitempty"`
}

// Dispatcher sends through each enabled channel independently: one
// channel failing never prevents the other's attempt.
type Dispatcher struct {
	email  EmailSender
	chat   ChatSender
	logger *zap.Logger
}

func NewDispatcher(email EmailSender, chat ChatSender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{email: email, chat: chat, logger: logger}
}

// Dispatch attempts every channel the recipient has an address for and
// returns per-channel outcomes instead of failing on the first error.
func (d *Dispatcher) Dispatch(ctx context.Context, rcpt Recipient, msg Message) Outcome {
	var out Outcome

	if rcpt.Email != "" {
		res := ChannelResult{Sent: true}
		if err := d.email.Send(ctx, rcpt.Email, msg.Subject, msg.HTMLBody); err != nil {
			res = ChannelResult{Error: err.Error()}
			d.logger.Warn("email send failed", zap.String("to", rcpt.Email), zap.Error(err))
		}
		out.Email = &res
	}

	if rcpt.LineUserID != "" {
		res := ChannelResult{Sent: true}
		if err := d.chat.Push(ctx, rcpt.LineUserID, msg.LineText); err != nil {
			res = ChannelResult{Error: err.Error()}
			d.logger.Warn("line push failed", zap.String("to", rcpt.LineUserID), zap.Error(err))
		}
		out.Line = &res
	}

	return out
}
