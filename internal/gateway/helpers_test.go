package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/channelwise/permsync/internal/permission"
	"github.com/channelwise/permsync/internal/telegram"
)

const testBotID = 999

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory permission.Store for handler tests.
type memStore struct {
	mu   sync.Mutex
	recs map[[2]int64]permission.Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[[2]int64]permission.Record)}
}

func (s *memStore) Upsert(_ context.Context, rec permission.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[[2]int64{rec.ChannelID, rec.UserID}] = rec
	return nil
}

func (s *memStore) Delete(_ context.Context, channelID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, [2]int64{channelID, userID})
	return nil
}

func (s *memStore) ListByChannel(_ context.Context, channelID int64) ([]permission.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []permission.Record
	for key, rec := range s.recs {
		if key[0] == channelID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) ListByUser(_ context.Context, userID int64) ([]permission.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []permission.Record
	for key, rec := range s.recs {
		if key[1] == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) ListStale(_ context.Context, before time.Time) ([]permission.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []permission.Record
	for _, rec := range s.recs {
		if rec.LastSyncedAt.Before(before) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fakeDirectory answers remote lookups from fixed maps.
type fakeDirectory struct {
	chats  map[int64]telegram.Chat
	admins map[int64][]telegram.ChatMember
}

func (d *fakeDirectory) GetChat(_ context.Context, chatID int64) (*telegram.Chat, error) {
	ch, ok := d.chats[chatID]
	if !ok {
		return nil, &telegram.APIError{Code: 400, Description: "Bad Request: chat not found"}
	}
	return &ch, nil
}

func (d *fakeDirectory) GetChatMember(_ context.Context, chatID, userID int64) (*telegram.ChatMember, error) {
	if userID == testBotID {
		return &telegram.ChatMember{
			User:   telegram.User{ID: testBotID, IsBot: true},
			Status: telegram.StatusAdministrator,
		}, nil
	}
	return nil, errors.New("unexpected user lookup")
}

func (d *fakeDirectory) GetChatAdministrators(_ context.Context, chatID int64) ([]telegram.ChatMember, error) {
	return d.admins[chatID], nil
}

// failingPinger always reports the store as unreachable.
type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }
