package chat

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/tools"
)

// Persist appends the user row, then the assistant row (Seq assigned under
// the thread's row lock inside Store.AppendMessage), then every tool event
// keyed to the assistant message (spec.md §4.9 "Persistence"). Skipped
// entirely when userMsg is empty, per spec.
func Persist(ctx context.Context, st store.Store, threadID, userMsg string, turn Turn) (*models.ChatMessage, error) {
	if userMsg == "" {
		return nil, nil
	}
	if _, err := st.AppendMessage(ctx, threadID, models.RoleUser, userMsg); err != nil {
		return nil, err
	}

	assistantMsg, err := st.AppendMessage(ctx, threadID, models.RoleAssistant, turn.Reply)
	if err != nil {
		return nil, err
	}

	if len(turn.ToolEvents) > 0 {
		events := make([]models.ToolEvent, 0, len(turn.ToolEvents))
		for _, ev := range turn.ToolEvents {
			events = append(events, toModelEvent(assistantMsg.MessageID, ev))
		}
		if err := st.AppendToolEvents(ctx, assistantMsg.MessageID, events); err != nil {
			return assistantMsg, err
		}
	}

	return assistantMsg, nil
}

func toModelEvent(messageID string, ev tools.Event) models.ToolEvent {
	out := models.ToolEvent{
		EventID:   uuid.NewString(),
		MessageID: messageID,
		Tool:      ev.Tool,
		OK:        ev.Result.OK,
		Outcome:   string(ev.Outcome),
		Summary:   ev.Summary,
		Key:       ev.Key,
	}
	if !ev.Result.OK && ev.Result.Error != "" {
		errStr := ev.Result.Error
		out.Error = &errStr
	}
	if b, err := json.Marshal(ev.Args); err == nil {
		out.Args = b
	}
	return out
}
