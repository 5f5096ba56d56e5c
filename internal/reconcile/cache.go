// Package reconcile merges inbound fan-out events into a locally cached
// view of conversations and messages. Delivery is at-least-once, so
// every merge is idempotent: applying the same event twice leaves the
// cache unchanged.
package reconcile

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// MessageView is a cached message with at most one reaction per user.
type MessageView struct {
	ID          int
	SenderID    int
	Body        string
	CreatedAt   time.Time
	Attachments []models.Attachment
	Reactions   map[int]ReactionView // keyed by acting user id
}

// ReactionView is one user's reaction as shown in the UI.
type ReactionView struct {
	ID    int
	User  models.PublicProfile
	Emoji string
}

// ConversationItem is one row of the cached conversation list.
type ConversationItem struct {
	Channel       string
	LastMessageID int
	LastMessage   string
	LastMessageAt time.Time
	HasLast       bool
}

// Cache is the subscriber-side state a client keeps: the conversation
// list and the message thread of the currently-open conversation.
type Cache struct {
	mu sync.Mutex

	openChannel string
	messages    map[int]*MessageView
	order       []int // message ids, oldest first
	items       map[string]*ConversationItem
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		messages: make(map[int]*MessageView),
		items:    make(map[string]*ConversationItem),
	}
}

// Open switches the cache to a conversation channel, clearing the
// message thread. The conversation list survives.
func (c *Cache) Open(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openChannel = channel
	c.messages = make(map[int]*MessageView)
	c.order = nil
}

// Apply merges one raw wire frame into the cache. Unknown events are
// ignored; duplicates are no-ops.
func (c *Cache) Apply(raw []byte) error {
	var env struct {
		Channel string          `json:"channel"`
		Event   string          `json:"event"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	switch env.Event {
	case fanout.EventMessageCreated:
		var data fanout.MessagePayload
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		c.applyMessageCreated(env.Channel, data)
	case fanout.EventMessageDeleted:
		var data fanout.MessageDeletedPayload
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		c.applyMessageDeleted(env.Channel, data)
	case fanout.EventReactionChanged:
		var data fanout.ReactionPayload
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		c.applyReactionChanged(data)
	}
	return nil
}

// applyMessageCreated appends the message when its channel is the open
// conversation and the id is not present yet, and refreshes the list
// item's preview. Receiving our own echo is harmless: the insert is
// keyed by id.
func (c *Cache) applyMessageCreated(channel string, data fanout.MessagePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if channel == c.openChannel {
		if _, exists := c.messages[data.ID]; !exists {
			c.messages[data.ID] = &MessageView{
				ID:          data.ID,
				SenderID:    data.SenderID,
				Body:        data.Body,
				CreatedAt:   data.CreatedAt,
				Attachments: data.Attachments,
				Reactions:   make(map[int]ReactionView),
			}
			c.order = append(c.order, data.ID)
		}
	}

	item := c.item(channel)
	// Last-writer-wins on the pointer: an older duplicate must not
	// regress a newer preview.
	if !item.HasLast || !data.CreatedAt.Before(item.LastMessageAt) {
		item.LastMessageID = data.ID
		item.LastMessage = data.Body
		item.LastMessageAt = data.CreatedAt
		item.HasLast = true
	}
}

// applyMessageDeleted removes the message and applies the replacement
// summary. A replacement-free summary change means the conversation is
// now empty and must render as empty, never stale.
func (c *Cache) applyMessageDeleted(channel string, data fanout.MessageDeletedPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.messages[data.MessageID]; exists {
		delete(c.messages, data.MessageID)
		for i, id := range c.order {
			if id == data.MessageID {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}

	if !data.SummaryChanged {
		return
	}
	item := c.item(channel)
	if data.LastMessage != nil {
		item.LastMessageID = data.LastMessage.ID
		item.LastMessage = data.LastMessage.Body
		item.LastMessageAt = data.LastMessage.CreatedAt
		item.HasLast = true
		return
	}
	*item = ConversationItem{Channel: channel}
}

// applyReactionChanged mirrors the server upsert invariant: the acting
// user's previous reaction on the message is replaced on add and dropped
// on remove, so the view never shows two reactions from one user.
func (c *Cache) applyReactionChanged(data fanout.ReactionPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, exists := c.messages[data.MessageID]
	if !exists {
		return
	}
	if data.Action == "remove" {
		delete(msg.Reactions, data.User.ID)
		return
	}
	msg.Reactions[data.User.ID] = ReactionView{ID: data.ID, User: data.User, Emoji: data.Emoji}
}

func (c *Cache) item(channel string) *ConversationItem {
	item, ok := c.items[channel]
	if !ok {
		item = &ConversationItem{Channel: channel}
		c.items[channel] = item
	}
	return item
}

// Messages returns the open conversation's messages, oldest first.
func (c *Cache) Messages() []MessageView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MessageView, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.messages[id])
	}
	return out
}

// Item returns the cached list entry for a channel.
func (c *Cache) Item(channel string) (ConversationItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[channel]
	if !ok {
		return ConversationItem{}, false
	}
	return *item, true
}
