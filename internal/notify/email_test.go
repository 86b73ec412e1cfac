package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmailSend(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody sendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	c := NewEmailClient(EmailConfig{APIKey: "re_123", From: "noreply@karadanoarekore.com", BaseURL: srv.URL})
	if err := c.Send(context.Background(), "a@example.com", "今日のタスク", "<p>hi</p>"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/emails" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer re_123" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody.From != "noreply@karadanoarekore.com" {
		t.Errorf("from = %q", gotBody.From)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "a@example.com" {
		t.Errorf("to = %v", gotBody.To)
	}
	if gotBody.Subject != "今日のタスク" || gotBody.HTML != "<p>hi</p>" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestEmailStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewEmailClient(EmailConfig{APIKey: "re_123", BaseURL: srv.URL})
	if err := c.Send(context.Background(), "a@example.com", "s", "b"); err == nil {
		t.Error("want error on non-2xx status")
	}
}

func TestEmailWithoutKey(t *testing.T) {
	c := NewEmailClient(EmailConfig{})
	if err := c.Send(context.Background(), "a@example.com", "s", "b"); !errors.Is(err, ErrEmailNotConfigured) {
		t.Errorf("err = %v, want ErrEmailNotConfigured", err)
	}
}
