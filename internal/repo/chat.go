package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lune/internal/domain"
	"lune/internal/kv"
)

// LoadChatMessages returns the stored transcript, oldest first.
func (r *Repo) LoadChatMessages(ctx context.Context) []domain.ChatMessage {
	var msgs []domain.ChatMessage
	if _, err := r.readJSON(ctx, kv.KeyChatMessages, &msgs); err != nil {
		r.Log.Error().Err(err).Msg("failed to load chat messages")
	}
	if msgs == nil {
		return []domain.ChatMessage{}
	}
	return msgs
}

func (r *Repo) SaveChatMessages(ctx context.Context, msgs []domain.ChatMessage) error {
	unlock := r.lock(kv.KeyChatMessages)
	defer unlock()
	return r.writeJSON(ctx, kv.KeyChatMessages, msgs)
}

// AppendChatMessages stamps missing ids and timestamps and appends msgs.
func (r *Repo) AppendChatMessages(ctx context.Context, msgs ...domain.ChatMessage) ([]domain.ChatMessage, error) {
	unlock := r.lock(kv.KeyChatMessages)
	defer unlock()
	var current []domain.ChatMessage
	if _, err := r.readJSON(ctx, kv.KeyChatMessages, &current); err != nil {
		return nil, err
	}
	ts := r.now().UTC().Format(time.RFC3339)
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Timestamp == "" {
			m.Timestamp = ts
		}
		current = append(current, m)
	}
	if err := r.writeJSON(ctx, kv.KeyChatMessages, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (r *Repo) ClearChat(ctx context.Context) error {
	unlock := r.lock(kv.KeyChatMessages)
	defer unlock()
	return r.Store.MultiRemove(ctx, kv.KeyChatMessages)
}
