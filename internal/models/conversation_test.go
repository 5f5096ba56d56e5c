package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestDirectCanonicalizesPair(t *testing.T) {
	assert.Equal(t, Direct(3, 7), Direct(7, 3))
	assert.Equal(t, "message.user.3-7", Direct(7, 3).ChannelKey())
}

func TestConversationOf(t *testing.T) {
	direct := ConversationOf(Message{SenderID: 7, ReceiverID: intPtr(3)})
	assert.Equal(t, Direct(3, 7), direct)

	group := ConversationOf(Message{SenderID: 7, GroupID: intPtr(12)})
	assert.Equal(t, InGroup(12), group)
	assert.Equal(t, "message.group.12", group.ChannelKey())
}

func TestIncludes(t *testing.T) {
	conv := Direct(3, 7)
	assert.True(t, conv.Includes(3))
	assert.True(t, conv.Includes(7))
	assert.False(t, conv.Includes(5))

	// Group membership needs storage, so Includes never answers for
	// groups.
	assert.False(t, InGroup(12).Includes(3))
}
