// Package webhook decodes and routes inbound Telegram update envelopes.
// Membership-affecting events trigger a forced reconciliation of the
// affected channel; everything else is accepted and left to its owner.
package webhook

import (
	"github.com/channelwise/permsync/internal/telegram"
)

// EventType classifies an inbound update by which envelope field is present.
type EventType string

const (
	EventMembership    EventType = "membership"
	EventBotMembership EventType = "bot_membership"
	EventChannelPost   EventType = "channel_post"
	EventEditedPost    EventType = "edited_post"
	EventCallback      EventType = "callback"
	EventCommand       EventType = "command"
	EventMessage       EventType = "message"
	EventUnknown       EventType = "unknown"
)

// Classify maps an update envelope to its event type. The envelope is
// inspected for field presence only, so new update kinds arrive as
// EventUnknown instead of errors.
func Classify(u *telegram.Update) EventType {
	switch {
	case u.ChatMember != nil:
		return EventMembership
	case u.MyChatMember != nil:
		return EventBotMembership
	case u.ChannelPost != nil:
		return EventChannelPost
	case u.EditedChannelPost != nil, u.EditedMessage != nil:
		return EventEditedPost
	case u.CallbackQuery != nil:
		return EventCallback
	case u.Message != nil:
		if isCommand(u.Message) {
			return EventCommand
		}
		return EventMessage
	default:
		return EventUnknown
	}
}

// isCommand reports whether the message starts with a bot_command entity.
func isCommand(m *telegram.Message) bool {
	for _, e := range m.Entities {
		if e.Type == "bot_command" && e.Offset == 0 {
			return true
		}
	}
	return false
}

// affectsPermissions reports whether a membership change touches anything the
// permission store tracks: privilege status or any of the five capability
// flags.
func affectsPermissions(mu *telegram.ChatMemberUpdated) bool {
	old, new := mu.OldChatMember, mu.NewChatMember
	if !old.IsPrivileged() && !new.IsPrivileged() {
		// Ordinary members coming and going never touch permission state.
		return false
	}
	return old.Status != new.Status ||
		old.CanPostMessages != new.CanPostMessages ||
		old.CanEditMessages != new.CanEditMessages ||
		old.CanDeleteMessages != new.CanDeleteMessages ||
		old.CanChangeInfo != new.CanChangeInfo ||
		old.CanInviteUsers != new.CanInviteUsers
}
