package access

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

var ErrBadChannel = errors.New("malformed channel name")

// ChannelKind enumerates the channel families clients may subscribe to.
type ChannelKind int

const (
	// Online is the shared presence channel.
	Online ChannelKind = iota
	// DirectMessages carries events for one user pair.
	DirectMessages
	// GroupMessages carries events for one group.
	GroupMessages
	// GroupDeleted announces a group's scheduled deletion to its members.
	GroupDeleted
	// GroupStatus announces group status changes to its members.
	GroupStatus
	// AdvisorNotifications carries client-intake notifications for one
	// specific advisor.
	AdvisorNotifications
)

// Channel is a parsed channel name.
type Channel struct {
	Kind ChannelKind

	// UserA < UserB for DirectMessages.
	UserA, UserB int

	GroupID   int
	AdvisorID int
}

// ParseChannel parses a channel name into its variant. The direct pair
// segment is re-canonicalized so "message.user.7-3" and
// "message.user.3-7" address the same channel.
func ParseChannel(name string) (Channel, error) {
	if name == "online" {
		return Channel{Kind: Online}, nil
	}

	switch {
	case strings.HasPrefix(name, "message.user."):
		pair := strings.TrimPrefix(name, "message.user.")
		parts := strings.SplitN(pair, "-", 2)
		if len(parts) != 2 {
			return Channel{}, fmt.Errorf("%w: %q", ErrBadChannel, name)
		}
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		if errA != nil || errB != nil || a <= 0 || b <= 0 || a == b {
			return Channel{}, fmt.Errorf("%w: %q", ErrBadChannel, name)
		}
		if b < a {
			a, b = b, a
		}
		return Channel{Kind: DirectMessages, UserA: a, UserB: b}, nil
	case strings.HasPrefix(name, "message.group."):
		id, err := channelID(name, "message.group.")
		if err != nil {
			return Channel{}, err
		}
		return Channel{Kind: GroupMessages, GroupID: id}, nil
	case strings.HasPrefix(name, "group.deleted."):
		id, err := channelID(name, "group.deleted.")
		if err != nil {
			return Channel{}, err
		}
		return Channel{Kind: GroupDeleted, GroupID: id}, nil
	case strings.HasPrefix(name, "group.statusChange."):
		id, err := channelID(name, "group.statusChange.")
		if err != nil {
			return Channel{}, err
		}
		return Channel{Kind: GroupStatus, GroupID: id}, nil
	case strings.HasPrefix(name, "admin.notifications."):
		id, err := channelID(name, "admin.notifications.")
		if err != nil {
			return Channel{}, err
		}
		return Channel{Kind: AdvisorNotifications, AdvisorID: id}, nil
	}
	return Channel{}, fmt.Errorf("%w: %q", ErrBadChannel, name)
}

func channelID(name, prefix string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadChannel, name)
	}
	return id, nil
}

// String renders the canonical channel name.
func (c Channel) String() string {
	switch c.Kind {
	case Online:
		return "online"
	case DirectMessages:
		return models.Direct(c.UserA, c.UserB).ChannelKey()
	case GroupMessages:
		return fmt.Sprintf("message.group.%d", c.GroupID)
	case GroupDeleted:
		return fmt.Sprintf("group.deleted.%d", c.GroupID)
	case GroupStatus:
		return fmt.Sprintf("group.statusChange.%d", c.GroupID)
	case AdvisorNotifications:
		return fmt.Sprintf("admin.notifications.%d", c.AdvisorID)
	}
	return ""
}
