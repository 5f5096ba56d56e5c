package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

func frame(t *testing.T, channel, event string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(fanout.Envelope{Channel: channel, Event: event, Data: data})
	require.NoError(t, err)
	return raw
}

func createdFrame(t *testing.T, channel string, id int, body string, at time.Time) []byte {
	return frame(t, channel, fanout.EventMessageCreated, fanout.MessagePayload{
		ID:        id,
		SenderID:  7,
		Body:      body,
		CreatedAt: at,
	})
}

func TestApplyMessageCreatedIsIdempotent(t *testing.T) {
	cache := NewCache()
	cache.Open("message.user.3-7")

	raw := createdFrame(t, "message.user.3-7", 10, "hola", time.Now())
	require.NoError(t, cache.Apply(raw))
	require.NoError(t, cache.Apply(raw))

	msgs := cache.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, 10, msgs[0].ID)

	item, ok := cache.Item("message.user.3-7")
	require.True(t, ok)
	assert.Equal(t, 10, item.LastMessageID)
	assert.Equal(t, "hola", item.LastMessage)
}

func TestApplyMessageCreatedKeepsOrder(t *testing.T) {
	cache := NewCache()
	cache.Open("message.group.12")

	base := time.Now()
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 1, "first", base)))
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 2, "second", base.Add(time.Second))))

	msgs := cache.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].ID)
	assert.Equal(t, 2, msgs[1].ID)
}

func TestApplyStaleDuplicateDoesNotRegressPreview(t *testing.T) {
	cache := NewCache()

	base := time.Now()
	old := createdFrame(t, "message.user.3-7", 1, "old", base)
	newer := createdFrame(t, "message.user.3-7", 2, "new", base.Add(time.Minute))

	require.NoError(t, cache.Apply(old))
	require.NoError(t, cache.Apply(newer))
	// Redelivery of the older event must not move the preview back.
	require.NoError(t, cache.Apply(old))

	item, ok := cache.Item("message.user.3-7")
	require.True(t, ok)
	assert.Equal(t, 2, item.LastMessageID)
	assert.Equal(t, "new", item.LastMessage)
}

func TestApplyMessageDeletedWithReplacement(t *testing.T) {
	cache := NewCache()
	cache.Open("message.group.12")

	base := time.Now()
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 1, "first", base)))
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 2, "second", base.Add(time.Second))))

	deleted := frame(t, "message.group.12", fanout.EventMessageDeleted, fanout.MessageDeletedPayload{
		MessageID:      2,
		SummaryChanged: true,
		LastMessage:    &fanout.MessagePreview{ID: 1, Body: "first", SenderID: 7, CreatedAt: base},
	})
	require.NoError(t, cache.Apply(deleted))
	require.NoError(t, cache.Apply(deleted))

	msgs := cache.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, msgs[0].ID)

	item, ok := cache.Item("message.group.12")
	require.True(t, ok)
	assert.Equal(t, 1, item.LastMessageID)
	assert.Equal(t, "first", item.LastMessage)
}

func TestApplyMessageDeletedEmptySummaryRendersEmpty(t *testing.T) {
	cache := NewCache()
	cache.Open("message.user.3-7")

	require.NoError(t, cache.Apply(createdFrame(t, "message.user.3-7", 1, "only", time.Now())))

	deleted := frame(t, "message.user.3-7", fanout.EventMessageDeleted, fanout.MessageDeletedPayload{
		MessageID:      1,
		SummaryChanged: true,
		LastMessage:    nil,
	})
	require.NoError(t, cache.Apply(deleted))

	assert.Empty(t, cache.Messages())
	item, ok := cache.Item("message.user.3-7")
	require.True(t, ok)
	assert.False(t, item.HasLast)
	assert.Empty(t, item.LastMessage)
}

func TestApplyNonHeadDeleteKeepsSummary(t *testing.T) {
	cache := NewCache()
	cache.Open("message.group.12")

	base := time.Now()
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 1, "first", base)))
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 2, "second", base.Add(time.Second))))

	deleted := frame(t, "message.group.12", fanout.EventMessageDeleted, fanout.MessageDeletedPayload{
		MessageID:      1,
		SummaryChanged: false,
	})
	require.NoError(t, cache.Apply(deleted))

	item, ok := cache.Item("message.group.12")
	require.True(t, ok)
	assert.Equal(t, 2, item.LastMessageID)
}

func TestApplyReactionReplacesPerUser(t *testing.T) {
	cache := NewCache()
	cache.Open("message.group.12")
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 1, "hola", time.Now())))

	user := models.PublicProfile{ID: 3, Name: "Eva"}
	thumbsUp := frame(t, "message.group.12", fanout.EventReactionChanged, fanout.ReactionPayload{
		ID: 5, MessageID: 1, User: user, Emoji: "👍", Action: "add",
	})
	heart := frame(t, "message.group.12", fanout.EventReactionChanged, fanout.ReactionPayload{
		ID: 5, MessageID: 1, User: user, Emoji: "❤️", Action: "add",
	})

	require.NoError(t, cache.Apply(thumbsUp))
	require.NoError(t, cache.Apply(heart))

	msgs := cache.Messages()
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Reactions, 1)
	assert.Equal(t, "❤️", msgs[0].Reactions[3].Emoji)
}

func TestApplyReactionRemoveIsIdempotent(t *testing.T) {
	cache := NewCache()
	cache.Open("message.group.12")
	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 1, "hola", time.Now())))

	user := models.PublicProfile{ID: 3}
	add := frame(t, "message.group.12", fanout.EventReactionChanged, fanout.ReactionPayload{
		ID: 5, MessageID: 1, User: user, Emoji: "👍", Action: "add",
	})
	remove := frame(t, "message.group.12", fanout.EventReactionChanged, fanout.ReactionPayload{
		ID: 5, MessageID: 1, User: user, Emoji: "👍", Action: "remove",
	})

	require.NoError(t, cache.Apply(add))
	require.NoError(t, cache.Apply(remove))
	require.NoError(t, cache.Apply(remove))

	msgs := cache.Messages()
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Reactions)
}

func TestApplyIgnoresOtherChannelsAndUnknownEvents(t *testing.T) {
	cache := NewCache()
	cache.Open("message.user.3-7")

	require.NoError(t, cache.Apply(createdFrame(t, "message.group.12", 1, "elsewhere", time.Now())))
	assert.Empty(t, cache.Messages())

	// The list still tracks the other conversation's preview.
	item, ok := cache.Item("message.group.12")
	require.True(t, ok)
	assert.Equal(t, "elsewhere", item.LastMessage)

	unknown := frame(t, "message.user.3-7", "presence.here", []int{1, 2})
	require.NoError(t, cache.Apply(unknown))
	assert.Empty(t, cache.Messages())
}

func TestOpenClearsThreadKeepsList(t *testing.T) {
	cache := NewCache()
	cache.Open("message.user.3-7")
	require.NoError(t, cache.Apply(createdFrame(t, "message.user.3-7", 1, "hola", time.Now())))

	cache.Open("message.group.12")
	assert.Empty(t, cache.Messages())

	item, ok := cache.Item("message.user.3-7")
	require.True(t, ok)
	assert.Equal(t, "hola", item.LastMessage)
}
