package repo

import (
	"context"
	"sort"

	"lune/internal/domain"
	"lune/internal/events"
	"lune/internal/kv"
)

func (r *Repo) GetJournalEntryForDate(ctx context.Context, date string) (string, bool) {
	text, ok, err := r.LookupJournal(ctx, date)
	if err != nil {
		r.Log.Error().Err(err).Str("date", date).Msg("failed to load journal entry")
		return "", false
	}
	return text, ok
}

// LookupJournal is GetJournalEntryForDate with medium failures returned.
func (r *Repo) LookupJournal(ctx context.Context, date string) (string, bool, error) {
	entries, err := readObject[string](ctx, r, kv.KeyJournal)
	if err != nil {
		return "", false, err
	}
	text, ok := entries[date]
	return text, ok, nil
}

// SaveJournalEntry overwrites the entry for date. Unlike moods the write is
// not read back.
func (r *Repo) SaveJournalEntry(ctx context.Context, date, text string) error {
	unlock := r.lock(kv.KeyJournal)
	defer unlock()
	entries, err := readObject[string](ctx, r, kv.KeyJournal)
	if err != nil {
		return err
	}
	entries[date] = text
	if err := r.writeJSON(ctx, kv.KeyJournal, entries); err != nil {
		return err
	}
	r.committed(ctx, "journal.save", "journal", date, events.EventPayload{"length": len(text)})
	return nil
}

func (r *Repo) AllJournalEntries(ctx context.Context) []domain.JournalEntry {
	entries, err := readObject[string](ctx, r, kv.KeyJournal)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to load journal")
		return []domain.JournalEntry{}
	}
	out := make([]domain.JournalEntry, 0, len(entries))
	for date, text := range entries {
		out = append(out, domain.JournalEntry{Date: date, Text: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
