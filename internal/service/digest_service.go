package service

import (
	"context"
	"errors"

	"github.com/haflows/tasknotify/internal/ai"
	dom "github.com/haflows/tasknotify/internal/domain"
	"github.com/haflows/tasknotify/internal/notify"
	"github.com/haflows/tasknotify/internal/repo"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DigestStatus is the terminal state of one user's digest pipeline.
type DigestStatus string

const (
	// DigestSuccess: digest composed and dispatched.
	DigestSuccess DigestStatus = "success"
	// DigestNoTasks: nothing pending, nothing to do. Not an error.
	DigestNoTasks DigestStatus = "no_tasks"
	// DigestNoEmail: no contact address on file, user skipped. Not an error.
	DigestNoEmail DigestStatus = "no_email"
	// DigestError: generation or an unexpected failure for this user only.
	DigestError DigestStatus = "error"
)

// DigestResult is the transient per-user outcome of one digest run.
type DigestResult struct {
	UserID string                `json:"userId"`
	Status DigestStatus          `json:"status"`
	Error  string                `json:"error,omitempty"`
	Email  *notify.ChannelResult `json:"email,omitempty"`
	Line   *notify.ChannelResult `json:"line,omitempty"`
}

// DigestComposer is the Summary Generator contract the orchestrator
// consumes. Implemented by ai.Summarizer.
type DigestComposer interface {
	ComposeDigest(ctx context.Context, userName string, tasks []dom.Task) (ai.Digest, error)
}

// MessageDispatcher fans a composed digest out to the channels.
// Implemented by notify.Dispatcher.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, rcpt notify.Recipient, msg notify.Message) notify.Outcome
}

// DigestOptions tune a run.
type DigestOptions struct {
	// DebugLineID, when non-empty, substitutes for a missing profile LINE
	// id. Honored only by RunSingle; batch runs never use it.
	DebugLineID string
	// BatchConcurrency bounds parallel per-user pipelines in RunBatch.
	BatchConcurrency int
}

// DigestService drives the per-user digest pipeline:
// resolve email -> fetch pending tasks -> compose -> dispatch,
// short-circuiting at no_email and no_tasks.
type DigestService struct {
	tasks      repo.TaskRepo
	profiles   repo.ProfileRepo
	admin      repo.AdminRepo
	composer   DigestComposer
	dispatcher MessageDispatcher
	opts       DigestOptions
	logger     *zap.Logger
}

func NewDigestService(
	tasks repo.TaskRepo,
	profiles repo.ProfileRepo,
	admin repo.AdminRepo,
	composer DigestComposer,
	dispatcher MessageDispatcher,
	opts DigestOptions,
	logger *zap.Logger,
) *DigestService {
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestService{
		tasks:      tasks,
		profiles:   profiles,
		admin:      admin,
		composer:   composer,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
	}
}

// RunSingle runs the pipeline for the calling user only. Identity comes
// from the authenticated session; only user-scoped repos are touched.
// debug opts the run into the configured debug LINE recipient when the
// profile has none.
func (s *DigestService) RunSingle(ctx context.Context, userID, email, name string, debug bool) DigestResult {
	tasks, err := s.tasks.ListPending(ctx, userID)
	if err != nil {
		return errorResult(userID, err)
	}

	lineID := ""
	if p, err := s.profiles.Get(ctx, userID); err == nil && p.LineUserID != nil {
		lineID = *p.LineUserID
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return errorResult(userID, err)
	}
	if lineID == "" && debug {
		lineID = s.opts.DebugLineID
	}

	return s.run(ctx, userID, email, name, lineID, tasks)
}

// RunBatch enumerates every user with pending tasks (elevated handle) and
// runs the pipeline for each independently. One user's failure is
// recorded in their entry and never halts the others. Results are
// ordered by the enumeration.
func (s *DigestService) RunBatch(ctx context.Context) ([]DigestResult, error) {
	userIDs, err := s.admin.ListUserIDsWithPendingTasks(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]DigestResult, len(userIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BatchConcurrency)
	for idx, userID := range userIDs {
		idx, userID := idx, userID
		g.Go(func() error {
			results[idx] = s.runForUser(gctx, userID)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// runForUser is the batch-mode pipeline for one user, resolving contact
// details through the elevated handle.
func (s *DigestService) runForUser(ctx context.Context, userID string) DigestResult {
	user, err := s.admin.GetUserByID(ctx, userID)
	if err != nil {
		return errorResult(userID, err)
	}
	if user.Email == "" {
		return DigestResult{UserID: userID, Status: DigestNoEmail}
	}

	tasks, err := s.admin.ListPendingTasks(ctx, userID)
	if err != nil {
		return errorResult(userID, err)
	}

	lineID, err := s.admin.GetLineUserID(ctx, userID)
	if err != nil {
		return errorResult(userID, err)
	}

	return s.run(ctx, userID, user.Email, user.Name, lineID, tasks)
}

// run is the shared pipeline tail once contact details and tasks are
// resolved.
func (s *DigestService) run(ctx context.Context, userID, email, name, lineID string, tasks []dom.Task) DigestResult {
	if email == "" {
		return DigestResult{UserID: userID, Status: DigestNoEmail}
	}
	if len(tasks) == 0 {
		return DigestResult{UserID: userID, Status: DigestNoTasks}
	}

	digest, err := s.composer.ComposeDigest(ctx, name, tasks)
	if err != nil {
		s.logger.Error("digest generation failed", zap.String("user_id", userID), zap.Error(err))
		return errorResult(userID, err)
	}

	outcome := s.dispatcher.Dispatch(ctx,
		notify.Recipient{Email: email, LineUserID: lineID},
		notify.Message{Subject: digest.Subject, HTMLBody: digest.HTMLBody, LineText: digest.LineMessage},
	)

	s.logger.Info("digest dispatched",
		zap.String("user_id", userID),
		zap.Int("tasks", len(tasks)),
		zap.Bool("line", lineID != ""))

	return DigestResult{
		UserID: userID,
		Status: DigestSuccess,
		Email:  outcome.Email,
		Line:   outcome.Line,
	}
}

func errorResult(userID string, err error) DigestResult {
	return DigestResult{UserID: userID, Status: DigestError, Error: err.Error()}
}
