package notify

import (
	"context"
	"errors"
	"testing"
)

type stubEmail struct {
	sent []string
	err  error
}

func (s *stubEmail) Send(_ context.Context, to, _, _ string) error {
	s.sent = append(s.sent, to)
	return s.err
}

type stubChat struct {
	sent []string
	err  error
}

func (s *stubChat) Push(_ context.Context, to, _ string) error {
	s.sent = append(s.sent, to)
	return s.err
}

func TestDispatchBothChannels(t *testing.T) {
	email := &stubEmail{}
	chat := &stubChat{}
	d := NewDispatcher(email, chat, nil)

	out := d.Dispatch(context.Background(),
		Recipient{Email: "a@example.com", LineUserID: "U1"},
		Message{Subject: "s", HTMLBody: "b", LineText: "l"})

	if out.Email == nil || !out.Email.Sent || out.Line == nil || !out.Line.Sent {
		t.Errorf("outcome = %+v", out)
	}
	if len(email.sent) != 1 || len(chat.sent) != 1 {
		t.Errorf("sends = email %d chat %d", len(email.sent), len(chat.sent))
	}
}

func TestDispatchSkipsChannelsWithoutAddress(t *testing.T) {
	email := &stubEmail{}
	chat := &stubChat{}
	d := NewDispatcher(email, chat, nil)

	out := d.Dispatch(context.Background(),
		Recipient{Email: "a@example.com"},
		Message{})

	if out.Line != nil {
		t.Errorf("line outcome = %+v, want nil when no line id", out.Line)
	}
	if len(chat.sent) != 0 {
		t.Error("chat must not be attempted without an address")
	}
	if out.Email == nil || !out.Email.Sent {
		t.Errorf("email outcome = %+v", out.Email)
	}
}

func TestDispatchChannelFailuresAreIndependent(t *testing.T) {
	email := &stubEmail{err: errors.New("smtp rejected")}
	chat := &stubChat{}
	d := NewDispatcher(email, chat, nil)

	out := d.Dispatch(context.Background(),
		Recipient{Email: "a@example.com", LineUserID: "U1"},
		Message{})

	if out.Email == nil || out.Email.Sent || out.Email.Error == "" {
		t.Errorf("email outcome = %+v, want recorded failure", out.Email)
	}
	if out.Line == nil || !out.Line.Sent {
		t.Errorf("line outcome = %+v: email failure must not block line", out.Line)
	}
	if len(chat.sent) != 1 {
		t.Error("line must still be attempted after email failure")
	}
}
