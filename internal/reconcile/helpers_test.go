package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/channelwise/permsync/internal/channel"
	"github.com/channelwise/permsync/internal/permission"
	"github.com/channelwise/permsync/internal/telegram"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDirectory is an in-memory remote directory. Call counts let tests
// assert the staleness short-circuit makes zero remote calls.
type fakeDirectory struct {
	mu     sync.Mutex
	chats  map[int64]telegram.Chat
	admins map[int64][]telegram.ChatMember
	bot    telegram.ChatMember // answer for GetChatMember(botID)
	errs   map[string]error    // method name -> forced error
	calls  int
}

const testBotID int64 = 999

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		chats:  make(map[int64]telegram.Chat),
		admins: make(map[int64][]telegram.ChatMember),
		bot:    telegram.ChatMember{User: telegram.User{ID: testBotID}, Status: telegram.StatusAdministrator},
		errs:   make(map[string]error),
	}
}

func (d *fakeDirectory) countCall() {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
}

func (d *fakeDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDirectory) GetChat(_ context.Context, chatID int64) (*telegram.Chat, error) {
	d.countCall()
	if err := d.errs["getChat"]; err != nil {
		return nil, err
	}
	ch, ok := d.chats[chatID]
	if !ok {
		return nil, &telegram.APIError{Code: 400, Description: "Bad Request: chat not found"}
	}
	return &ch, nil
}

func (d *fakeDirectory) GetChatMember(_ context.Context, chatID, userID int64) (*telegram.ChatMember, error) {
	d.countCall()
	if err := d.errs["getChatMember"]; err != nil {
		return nil, err
	}
	if userID == d.bot.User.ID {
		m := d.bot
		return &m, nil
	}
	for _, m := range d.admins[chatID] {
		if m.User.ID == userID {
			return &m, nil
		}
	}
	return &telegram.ChatMember{User: telegram.User{ID: userID}, Status: telegram.StatusLeft}, nil
}

func (d *fakeDirectory) GetChatAdministrators(_ context.Context, chatID int64) ([]telegram.ChatMember, error) {
	d.countCall()
	if err := d.errs["getChatAdministrators"]; err != nil {
		return nil, err
	}
	return d.admins[chatID], nil
}

// fakeStore is an in-memory permission.Store with per-user failure and
// panic injection.
type fakeStore struct {
	mu          sync.Mutex
	recs        map[[2]int64]permission.Record // key: channel, user
	failUpsert  map[int64]error                // user id -> error
	panicUpsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		recs:       make(map[[2]int64]permission.Record),
		failUpsert: make(map[int64]error),
	}
}

func (s *fakeStore) Upsert(_ context.Context, rec permission.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicUpsert {
		panic("store exploded")
	}
	if err := s.failUpsert[rec.UserID]; err != nil && rec.SyncError == "" {
		return err
	}
	s.recs[[2]int64{rec.ChannelID, rec.UserID}] = rec
	return nil
}

func (s *fakeStore) Delete(_ context.Context, channelID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, [2]int64{channelID, userID})
	return nil
}

func (s *fakeStore) ListByChannel(_ context.Context, channelID int64) ([]permission.Record, error) {
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

func (s *fakeStore) ListByUser(_ context.Context, userID int64) ([]permission.Record, error) {
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

func (s *fakeStore) ListStale(_ context.Context, before time.Time) ([]permission.Record, error) {
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

func (s *fakeStore) get(channelID, userID int64) (permission.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[[2]int64{channelID, userID}]
	return rec, ok
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// fakeChannels is an in-memory channel.Store.
type fakeChannels struct {
	mu      sync.Mutex
	chans   map[int64]channel.Channel
	deleted []int64
	touched []int64
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{chans: make(map[int64]channel.Channel)}
}

func (c *fakeChannels) Upsert(_ context.Context, ch channel.Channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chans[ch.ID] = ch
	return nil
}

func (c *fakeChannels) Get(_ context.Context, id int64) (*channel.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.chans[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (c *fakeChannels) ListInactive(_ context.Context, checkedBefore time.Time) ([]channel.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []channel.Channel
	for _, ch := range c.chans {
		if !ch.IsActive || ch.LastCheckedAt.Before(checkedBefore) {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (c *fakeChannels) Touch(_ context.Context, id int64, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.chans[id]
	ch.ID = id
	ch.IsActive = true
	ch.LastCheckedAt = at
	c.chans[id] = ch
	c.touched = append(c.touched, id)
	return nil
}

func (c *fakeChannels) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chans, id)
	c.deleted = append(c.deleted, id)
	return nil
}

// admin builds a ChatMember with administrator status.
func admin(userID int64, post, edit, del, info, invite bool) telegram.ChatMember {
	return telegram.ChatMember{
		User:              telegram.User{ID: userID},
		Status:            telegram.StatusAdministrator,
		CanPostMessages:   post,
		CanEditMessages:   edit,
		CanDeleteMessages: del,
		CanChangeInfo:     info,
		CanInviteUsers:    invite,
	}
}

// creator builds a ChatMember with creator status (no capability flags,
// as Telegram sends them).
func creator(userID int64) telegram.ChatMember {
	return telegram.ChatMember{
		User:   telegram.User{ID: userID},
		Status: telegram.StatusCreator,
	}
}

var errStorage = errors.New("storage unavailable")
