package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannelVariants(t *testing.T) {
	tests := []struct {
		name string
		want Channel
	}{
		{"online", Channel{Kind: Online}},
		{"message.user.3-7", Channel{Kind: DirectMessages, UserA: 3, UserB: 7}},
		{"message.group.12", Channel{Kind: GroupMessages, GroupID: 12}},
		{"group.deleted.12", Channel{Kind: GroupDeleted, GroupID: 12}},
		{"group.statusChange.12", Channel{Kind: GroupStatus, GroupID: 12}},
		{"admin.notifications.4", Channel{Kind: AdvisorNotifications, AdvisorID: 4}},
	}
	for _, tt := range tests {
		got, err := ParseChannel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.name, got.String(), tt.name)
	}
}

func TestParseChannelCanonicalizesPair(t *testing.T) {
	got, err := ParseChannel("message.user.7-3")
	require.NoError(t, err)
	assert.Equal(t, Channel{Kind: DirectMessages, UserA: 3, UserB: 7}, got)
	assert.Equal(t, "message.user.3-7", got.String())
}

func TestParseChannelRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"offline",
		"message.user.3",
		"message.user.3-3",
		"message.user.0-7",
		"message.user.a-b",
		"message.group.0",
		"message.group.x",
		"group.deleted.-1",
		"admin.notifications.",
	}
	for _, name := range bad {
		_, err := ParseChannel(name)
		assert.ErrorIs(t, err, ErrBadChannel, name)
	}
}
