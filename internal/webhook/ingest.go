package webhook

import (
	"context"
	"fmt"
	"strings"

	dom "github.com/haflows/tasknotify/internal/domain"
	"github.com/haflows/tasknotify/internal/repo"
	"github.com/haflows/tasknotify/internal/utils"

	"go.uber.org/zap"
)

// Event is one LINE webhook event.
type Event struct {
	Type       string  `json:"type"`
	ReplyToken string  `json:"replyToken"`
	Source     Source  `json:"source"`
	Message    Message `json:"message"`
}

type Source struct {
	UserID string `json:"userId"`
}

type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Payload is the webhook request body shape.
type Payload struct {
	Events []Event `json:"events"`
}

// Replier answers an inbound event. Implemented by notify.LineClient.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Ingestor converts authenticated LINE message events into tasks. It
// holds the elevated store handle because senders map to arbitrary users.
type Ingestor struct {
	admin  repo.AdminRepo
	line   Replier
	logger *zap.Logger
}

func NewIngestor(admin repo.AdminRepo, line Replier, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{admin: admin, line: line, logger: logger}
}

// Process handles every text-message event in the batch. Reply delivery
// failures are logged and swallowed so one event never blocks siblings.
func (i *Ingestor) Process(ctx context.Context, events []Event) {
	for _, ev := range events {
		if ev.Type != "message" || ev.Message.Type != "text" {
			continue
		}
		if err := i.processMessage(ctx, ev); err != nil {
			i.logger.Error("webhook event failed",
				zap.String("sender", ev.Source.UserID),
				zap.Error(err))
		}
	}
}

func (i *Ingestor) processMessage(ctx context.Context, ev Event) error {
	text := strings.TrimSpace(ev.Message.Text)
	sender := ev.Source.UserID

	// Self-service identity discovery: "id" or "ＩＤ" in any case.
	if strings.EqualFold(utils.FoldFullWidthASCII(text), "id") {
		i.reply(ctx, ev.ReplyToken, fmt.Sprintf("あなたのUser IDは:\n%s\nです！", sender))
		return nil
	}

	userID, err := i.admin.FindUserIDByLineID(ctx, sender)
	if err != nil {
		return fmt.Errorf("resolve sender: %w", err)
	}
	if userID == "" {
		i.reply(ctx, ev.ReplyToken, fmt.Sprintf(
			"このLINEアカウントはまだ登録されていません。\n設定画面でUser IDを登録してください。\n(Your ID: %s)", sender))
		return nil
	}

	task, err := i.admin.CreateTask(ctx, userID, text, dom.PriorityMedium, dom.StatusTodo)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	i.logger.Info("task created from chat message",
		zap.String("user_id", userID),
		zap.String("task_id", task.ID))

	i.reply(ctx, ev.ReplyToken, fmt.Sprintf("タスクを追加しました：「%s」", task.Title))
	return nil
}

// reply is best-effort: failures are logged, never retried, never
// propagated (a propagated failure would make the platform redeliver).
func (i *Ingestor) reply(ctx context.Context, replyToken, text string) {
	if replyToken == "" {
		return
	}
	if err := i.line.Reply(ctx, replyToken, text); err != nil {
		i.logger.Warn("reply failed", zap.Error(err))
	}
}
