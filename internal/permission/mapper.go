package permission

import (
	"fmt"

	"github.com/channelwise/permsync/internal/telegram"
)

// FromChatMember maps a remote administrator entry to a local Record.
// Only creator and administrator statuses are valid input; callers filter
// other statuses before mapping. Telegram omits the capability flags for
// creators, so creator status implies all five capabilities.
func FromChatMember(channelID int64, m telegram.ChatMember) (Record, error) {
	switch m.Status {
	case telegram.StatusCreator:
		return Record{
			ChannelID:     channelID,
			UserID:        m.User.ID,
			Role:          RoleCreator,
			CanPost:       true,
			CanEdit:       true,
			CanDelete:     true,
			CanChangeInfo: true,
			CanInvite:     true,
		}, nil
	case telegram.StatusAdministrator:
		return Record{
			ChannelID:     channelID,
			UserID:        m.User.ID,
			Role:          RoleAdministrator,
			CanPost:       m.CanPostMessages,
			CanEdit:       m.CanEditMessages,
			CanDelete:     m.CanDeleteMessages,
			CanChangeInfo: m.CanChangeInfo,
			CanInvite:     m.CanInviteUsers,
		}, nil
	default:
		return Record{}, fmt.Errorf("permission: cannot map status %q for user %d", m.Status, m.User.ID)
	}
}
