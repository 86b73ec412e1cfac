package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/haflows/tasknotify/internal/ai"
	dom "github.com/haflows/tasknotify/internal/domain"
	"github.com/haflows/tasknotify/internal/notify"

	"github.com/jackc/pgx/v5"
)

type stubTaskRepo struct {
	pending map[string][]dom.Task
}

func (s *stubTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) { return t, nil }
func (s *stubTaskRepo) GetByID(context.Context, string, string) (dom.Task, error) {
	return dom.Task{}, pgx.ErrNoRows
}
func (s *stubTaskRepo) List(_ context.Context, userID string) ([]dom.Task, error) {
	return s.pending[userID], nil
}
func (s *stubTaskRepo) ListPending(_ context.Context, userID string) ([]dom.Task, error) {
	return s.pending[userID], nil
}
func (s *stubTaskRepo) Update(context.Context, string, string, dom.Task) (dom.Task, error) {
	return dom.Task{}, pgx.ErrNoRows
}
func (s *stubTaskRepo) SetStatus(context.Context, string, string, dom.Status) (dom.Task, error) {
	return dom.Task{}, pgx.ErrNoRows
}
func (s *stubTaskRepo) Delete(context.Context, string, string) error { return nil }

type stubProfileRepo struct {
	lineIDs map[string]string
}

func (s *stubProfileRepo) Get(_ context.Context, userID string) (dom.Profile, error) {
	id, ok := s.lineIDs[userID]
	if !ok {
		return dom.Profile{}, pgx.ErrNoRows
	}
	return dom.Profile{ID: userID, LineUserID: &id}, nil
}

func (s *stubProfileRepo) Upsert(_ context.Context, userID, lineUserID string) (dom.Profile, error) {
	return dom.Profile{ID: userID, LineUserID: &lineUserID}, nil
}

type stubAdminRepo struct {
	users   map[string]dom.User
	pending map[string][]dom.Task
	lineIDs map[string]string
	order   []string
}

func (s *stubAdminRepo) ListUserIDsWithPendingTasks(context.Context) ([]string, error) {
	return s.order, nil
}

func (s *stubAdminRepo) GetUserByID(_ context.Context, userID string) (dom.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubAdminRepo) FindUserIDByLineID(context.Context, string) (string, error) { return "", nil }

func (s *stubAdminRepo) GetLineUserID(_ context.Context, userID string) (string, error) {
	return s.lineIDs[userID], nil
}

func (s *stubAdminRepo) ListPendingTasks(_ context.Context, userID string) ([]dom.Task, error) {
	return s.pending[userID], nil
}

func (s *stubAdminRepo) CreateTask(_ context.Context, userID, title string, priority dom.Priority, status dom.Status) (dom.Task, error) {
	return dom.Task{UserID: userID, Title: title, Priority: priority, Status: status}, nil
}

type stubComposer struct {
	calls  atomic.Int64
	err    error
	failed map[string]error // keyed by userName
}

func (s *stubComposer) ComposeDigest(_ context.Context, userName string, tasks []dom.Task) (ai.Digest, error) {
	s.calls.Add(1)
	if err, ok := s.failed[userName]; ok {
		return ai.Digest{}, err
	}
	if s.err != nil {
		return ai.Digest{}, s.err
	}
	return ai.Digest{Subject: "件名: " + userName, HTMLBody: "<p>body</p>", LineMessage: "msg"}, nil
}

type dispatched struct {
	rcpt notify.Recipient
	msg  notify.Message
}

type stubDispatcher struct {
	sent []dispatched
}

func (s *stubDispatcher) Dispatch(_ context.Context, rcpt notify.Recipient, msg notify.Message) notify.Outcome {
	s.sent = append(s.sent, dispatched{rcpt: rcpt, msg: msg})
	out := notify.Outcome{Email: &notify.ChannelResult{Sent: true}}
	if rcpt.LineUserID != "" {
		out.Line = &notify.ChannelResult{Sent: true}
	}
	return out
}

func pendingTask(title string) dom.Task {
	return dom.Task{ID: "t-" + title, Title: title, Priority: dom.PriorityHigh, Status: dom.StatusTodo}
}

func TestRunSingleNoTasksSkipsGenerationAndDispatch(t *testing.T) {
	composer := &stubComposer{}
	dispatcher := &stubDispatcher{}
	svc := NewDigestService(
		&stubTaskRepo{pending: map[string][]dom.Task{}},
		&stubProfileRepo{lineIDs: map[string]string{}},
		&stubAdminRepo{},
		composer, dispatcher, DigestOptions{}, nil)

	res := svc.RunSingle(context.Background(), "u-1", "a@example.com", "Alice", false)

	if res.Status != DigestNoTasks {
		t.Fatalf("status = %s, want no_tasks", res.Status)
	}
	if composer.calls.Load() != 0 {
		t.Error("no_tasks run must not call the generator")
	}
	if len(dispatcher.sent) != 0 {
		t.Error("no_tasks run must not dispatch")
	}
}

func TestRunSingleNoEmail(t *testing.T) {
	composer := &stubComposer{}
	svc := NewDigestService(
		&stubTaskRepo{pending: map[string][]dom.Task{"u-1": {pendingTask("a")}}},
		&stubProfileRepo{lineIDs: map[string]string{}},
		&stubAdminRepo{},
		composer, &stubDispatcher{}, DigestOptions{}, nil)

	res := svc.RunSingle(context.Background(), "u-1", "", "Alice", false)

	if res.Status != DigestNoEmail {
		t.Fatalf("status = %s, want no_email", res.Status)
	}
	if composer.calls.Load() != 0 {
		t.Error("no_email run must not call the generator")
	}
}

func TestRunSingleDispatchesOnceWithLineWhenLinked(t *testing.T) {
	composer := &stubComposer{}
	dispatcher := &stubDispatcher{}
	svc := NewDigestService(
		&stubTaskRepo{pending: map[string][]dom.Task{"u-1": {pendingTask("a"), pendingTask("b")}}},
		&stubProfileRepo{lineIDs: map[string]string{"u-1": "Uline1"}},
		&stubAdminRepo{},
		composer, dispatcher, DigestOptions{}, nil)

	res := svc.RunSingle(context.Background(), "u-1", "a@example.com", "Alice", false)

	if res.Status != DigestSuccess {
		t.Fatalf("status = %s (err %q), want success", res.Status, res.Error)
	}
	if composer.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want exactly 1", composer.calls.Load())
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatches = %d, want 1", len(dispatcher.sent))
	}
	got := dispatcher.sent[0].rcpt
	if got.Email != "a@example.com" || got.LineUserID != "Uline1" {
		t.Errorf("recipient = %+v", got)
	}
	if res.Email == nil || !res.Email.Sent || res.Line == nil || !res.Line.Sent {
		t.Errorf("channel results = email %+v line %+v", res.Email, res.Line)
	}
}

func TestRunSingleWithoutLineProfileSkipsChat(t *testing.T) {
	dispatcher := &stubDispatcher{}
	svc := NewDigestService(
		&stubTaskRepo{pending: map[string][]dom.Task{"u-1": {pendingTask("a")}}},
		&stubProfileRepo{lineIDs: map[string]string{}},
		&stubAdminRepo{},
		&stubComposer{}, dispatcher, DigestOptions{DebugLineID: "Udebug"}, nil)

	res := svc.RunSingle(context.Background(), "u-1", "a@example.com", "Alice", false)

	if res.Status != DigestSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if dispatcher.sent[0].rcpt.LineUserID != "" {
		t.Error("debug recipient must not be used unless explicitly requested")
	}
	if res.Line != nil {
		t.Errorf("line result = %+v, want nil (channel not attempted)", res.Line)
	}
}

func TestRunSingleDebugFallbackRecipient(t *testing.T) {
	dispatcher := &stubDispatcher{}
	svc := NewDigestService(
		&stubTaskRepo{pending: map[string][]dom.Task{"u-1": {pendingTask("a")}}},
		&stubProfileRepo{lineIDs: map[string]string{}},
		&stubAdminRepo{},
		&stubComposer{}, dispatcher, DigestOptions{DebugLineID: "Udebug"}, nil)

	svc.RunSingle(context.Background(), "u-1", "a@example.com", "Alice", true)

	if got := dispatcher.sent[0].rcpt.LineUserID; got != "Udebug" {
		t.Errorf("line recipient = %q, want debug fallback", got)
	}
}

func TestRunSingleGenerationFailure(t *testing.T) {
	dispatcher := &stubDispatcher{}
	svc := NewDigestService(
		&stubTaskRepo{pending: map[string][]dom.Task{"u-1": {pendingTask("a")}}},
		&stubProfileRepo{lineIDs: map[string]string{}},
		&stubAdminRepo{},
		&stubComposer{err: ai.ErrGeneration}, dispatcher, DigestOptions{}, nil)

	res := svc.RunSingle(context.Background(), "u-1", "a@example.com", "Alice", false)

	if res.Status != DigestError {
		t.Fatalf("status = %s, want error", res.Status)
	}
	if res.Error == "" {
		t.Error("error results must carry a message")
	}
	if len(dispatcher.sent) != 0 {
		t.Error("failed generation must not dispatch anything")
	}
}

func TestRunBatchIsolatesPerUserFailures(t *testing.T) {
	admin := &stubAdminRepo{
		order: []string{"u-1", "u-2", "u-3"},
		users: map[string]dom.User{
			"u-1": {ID: "u-1", Email: "a@example.com", Name: "Alice"},
			"u-2": {ID: "u-2", Email: "b@example.com", Name: "Bob"},
			"u-3": {ID: "u-3", Email: "c@example.com", Name: "Carol"},
		},
		pending: map[string][]dom.Task{
			"u-1": {pendingTask("a")},
			"u-2": {pendingTask("b")},
			"u-3": {pendingTask("c")},
		},
		lineIDs: map[string]string{"u-1": "Uline1"},
	}
	composer := &stubComposer{failed: map[string]error{"Bob": errors.New("model unavailable")}}
	svc := NewDigestService(&stubTaskRepo{}, &stubProfileRepo{}, admin,
		composer, &stubDispatcher{}, DigestOptions{BatchConcurrency: 2}, nil)

	results, err := svc.RunBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want one entry per enumerated user", len(results))
	}

	// Entries keep enumeration order regardless of goroutine scheduling.
	for i, want := range []string{"u-1", "u-2", "u-3"} {
		if results[i].UserID != want {
			t.Errorf("results[%d].UserID = %s, want %s", i, results[i].UserID, want)
		}
	}
	if results[0].Status != DigestSuccess || results[2].Status != DigestSuccess {
		t.Errorf("healthy users should succeed: %s / %s", results[0].Status, results[2].Status)
	}
	if results[1].Status != DigestError {
		t.Errorf("results[1].Status = %s, want error", results[1].Status)
	}
}

func TestRunBatchNeverUsesDebugRecipient(t *testing.T) {
	admin := &stubAdminRepo{
		order:   []string{"u-1"},
		users:   map[string]dom.User{"u-1": {ID: "u-1", Email: "a@example.com", Name: "Alice"}},
		pending: map[string][]dom.Task{"u-1": {pendingTask("a")}},
		lineIDs: map[string]string{},
	}
	dispatcher := &stubDispatcher{}
	svc := NewDigestService(&stubTaskRepo{}, &stubProfileRepo{}, admin,
		&stubComposer{}, dispatcher, DigestOptions{DebugLineID: "Udebug"}, nil)

	if _, err := svc.RunBatch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := dispatcher.sent[0].rcpt.LineUserID; got != "" {
		t.Errorf("batch line recipient = %q, want none", got)
	}
}

func TestRunBatchNoEmailEntry(t *testing.T) {
	admin := &stubAdminRepo{
		order:   []string{"u-1"},
		users:   map[string]dom.User{"u-1": {ID: "u-1", Name: "Alice"}},
		pending: map[string][]dom.Task{"u-1": {pendingTask("a")}},
	}
	composer := &stubComposer{}
	svc := NewDigestService(&stubTaskRepo{}, &stubProfileRepo{}, admin,
		composer, &stubDispatcher{}, DigestOptions{}, nil)

	results, err := svc.RunBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != DigestNoEmail {
		t.Errorf("status = %s, want no_email", results[0].Status)
	}
	if composer.calls.Load() != 0 {
		t.Error("no_email users must not reach the generator")
	}
}
