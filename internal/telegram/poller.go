package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
)

// UpdateSource is the polling side of the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int) ([]Update, error)
	AnswerCallbackQuery(ctx context.Context, queryID string) error
}

// Dialog receives the classified user events.
type Dialog interface {
	HandleCommand(ctx context.Context, userID, command string)
	HandleSelection(ctx context.Context, userID, token string)
	HandleText(ctx context.Context, userID, text string)
}

// Poller pulls updates and feeds them to the conversation engine one at
// a time, preserving the order the user sent them in.
type Poller struct {
	source UpdateSource
	engine Dialog

	// pause between failed polls, injectable for tests
	retryDelay time.Duration
}

func NewPoller(source UpdateSource, engine Dialog) *Poller {
	return &Poller{
		source:     source,
		engine:     engine,
		retryDelay: 3 * time.Second,
	}
}

// Run polls until ctx is cancelled. Transport errors back off and retry;
// the confirmed offset only advances past dispatched updates, so a
// crash mid-batch redelivers rather than drops.
func (p *Poller) Run(ctx context.Context) {
	offset := 0
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.source.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn(ctx, "Update poll failed, backing off", "error", err, "offset", offset)
			select {
			case <-time.After(p.retryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, u := range updates {
			p.dispatch(ctx, u)
			offset = u.UpdateID + 1
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		userID := strconv.FormatInt(u.CallbackQuery.From.ID, 10)
		if err := p.source.AnswerCallbackQuery(ctx, u.CallbackQuery.ID); err != nil {
			logger.Warn(ctx, "Callback ack failed", "error", err, "user_id", userID)
		}
		p.engine.HandleSelection(ctx, userID, u.CallbackQuery.Data)

	case u.Message != nil && u.Message.Text != "":
		userID := strconv.FormatInt(u.Message.Chat.ID, 10)
		if strings.HasPrefix(u.Message.Text, "/") {
			p.engine.HandleCommand(ctx, userID, u.Message.Text)
		} else {
			p.engine.HandleText(ctx, userID, u.Message.Text)
		}

	default:
		logger.Debug(ctx, "Ignoring unsupported update", "update_id", u.UpdateID)
	}
}
