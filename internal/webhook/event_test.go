package webhook

import (
	"testing"

	"github.com/channelwise/permsync/internal/telegram"
)

func TestClassify(t *testing.T) {
	msg := &telegram.Message{Chat: telegram.Chat{ID: 1}}
	cmd := &telegram.Message{
		Text:     "/sync",
		Entities: []telegram.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	}
	mu := &telegram.ChatMemberUpdated{}

	tests := []struct {
		name   string
		update telegram.Update
		want   EventType
	}{
		{"chat_member", telegram.Update{ChatMember: mu}, EventMembership},
		{"my_chat_member", telegram.Update{MyChatMember: mu}, EventBotMembership},
		{"channel_post", telegram.Update{ChannelPost: msg}, EventChannelPost},
		{"edited_channel_post", telegram.Update{EditedChannelPost: msg}, EventEditedPost},
		{"edited_message", telegram.Update{EditedMessage: msg}, EventEditedPost},
		{"callback", telegram.Update{CallbackQuery: &telegram.CallbackQuery{ID: "1"}}, EventCallback},
		{"command", telegram.Update{Message: cmd}, EventCommand},
		{"message", telegram.Update{Message: msg}, EventMessage},
		{"empty envelope", telegram.Update{}, EventUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.update); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAffectsPermissions(t *testing.T) {
	member := telegram.ChatMember{User: telegram.User{ID: 5}, Status: telegram.StatusMember}
	adm := telegram.ChatMember{User: telegram.User{ID: 5}, Status: telegram.StatusAdministrator, CanPostMessages: true}

	tests := []struct {
		name     string
		old, new telegram.ChatMember
		want     bool
	}{
		{"promotion", member, adm, true},
		{"demotion", adm, member, true},
		{"capability change", adm, func() telegram.ChatMember {
			m := adm
			m.CanInviteUsers = true
			return m
		}(), true},
		{"member join", telegram.ChatMember{Status: telegram.StatusLeft}, member, false},
		{"no change", adm, adm, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu := &telegram.ChatMemberUpdated{OldChatMember: tt.old, NewChatMember: tt.new}
			if got := affectsPermissions(mu); got != tt.want {
				t.Errorf("affectsPermissions() = %v, want %v", got, tt.want)
			}
		})
	}
}
