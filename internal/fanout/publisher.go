package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/observability"
)

// Broker delivers a serialized payload to every authorized subscriber of
// a channel, skipping the excluded user's own connections. The ws hub
// implements it in-process.
type Broker interface {
	Broadcast(channel string, payload []byte, excludeUserID int)
}

// Publisher resolves target channels from event data and hands payloads
// to the broker. Channel resolution never consults client input: events
// are built from server-trusted conversation state after the mutation
// committed, so an unauthorized publish is impossible by construction.
//
// Publish is called synchronously right after the committing
// transaction, which preserves per-conversation event order.
type Publisher struct {
	broker Broker
}

// NewPublisher constructs a Publisher.
func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// Publish fans the event out. The initiating user is excluded from
// delivery (they already hold the authoritative synchronous response);
// clients must still tolerate their own echo. Each event is mirrored on
// the AMQP exchange, at-least-once, for out-of-process consumers.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	for _, target := range resolve(event) {
		body, err := json.Marshal(Envelope{Channel: target.channel, Event: target.event, Data: target.data})
		if err != nil {
			log.Printf("fanout marshal failed: %v", err)
			continue
		}
		p.broker.Broadcast(target.channel, body, target.initiator)
		observability.IncFanoutEvent(target.event)

		if err := observability.PublishEvent(ctx, routingKey(target.channel),
			observability.NewEnvelope("chat_events", target.event, target.data), nil); err != nil {
			log.Printf("fanout mirror publish failed: %v", err)
		}
	}
}

type resolved struct {
	channel   string
	event     string
	data      interface{}
	initiator int
}

// resolve computes the target channel set for an event. Resolution is
// pure and deterministic: the same event always addresses the same
// channels.
func resolve(event Event) []resolved {
	switch ev := event.(type) {
	case MessageCreated:
		conv := models.ConversationOf(ev.Message)
		return []resolved{{
			channel:   conv.ChannelKey(),
			event:     EventMessageCreated,
			data:      messagePayload(ev.Message, ev.Sender),
			initiator: ev.Message.SenderID,
		}}
	case MessageDeleted:
		conv := models.ConversationOf(ev.Message)
		return []resolved{{
			channel: conv.ChannelKey(),
			event:   EventMessageDeleted,
			data: MessageDeletedPayload{
				MessageID:      ev.Message.ID,
				SummaryChanged: ev.SummaryChanged,
				LastMessage:    preview(ev.Replacement),
			},
			initiator: ev.Message.SenderID,
		}}
	case ReactionChanged:
		return []resolved{{
			channel: ev.Conversation.ChannelKey(),
			event:   EventReactionChanged,
			data: ReactionPayload{
				ID:        ev.Reaction.ID,
				MessageID: ev.Reaction.MessageID,
				User:      ev.Actor,
				Emoji:     ev.Reaction.Emoji,
				Action:    ev.Action,
			},
			initiator: ev.Actor.ID,
		}}
	case GroupChanged:
		data := GroupChangedPayload{Group: groupPayload(ev.Group, ev.MemberIDs), Type: ev.Change}
		targets := []resolved{}
		switch ev.Change {
		case GroupDeleted:
			targets = append(targets, resolved{
				channel:   fmt.Sprintf("group.deleted.%d", ev.Group.ID),
				event:     EventGroupChanged,
				data:      data,
				initiator: ev.InitiatorID,
			})
		case GroupStatusChanged:
			targets = append(targets,
				resolved{
					channel:   models.InGroup(ev.Group.ID).ChannelKey(),
					event:     EventGroupChanged,
					data:      data,
					initiator: ev.InitiatorID,
				},
				resolved{
					channel:   fmt.Sprintf("group.statusChange.%d", ev.Group.ID),
					event:     EventGroupChanged,
					data:      data,
					initiator: ev.InitiatorID,
				})
		default:
			targets = append(targets, resolved{
				channel:   models.InGroup(ev.Group.ID).ChannelKey(),
				event:     EventGroupChanged,
				data:      data,
				initiator: ev.InitiatorID,
			})
		}
		return targets
	case ClientIntake:
		return []resolved{{
			channel: fmt.Sprintf("admin.notifications.%d", ev.AdvisorID),
			event:   EventClientIntake,
			data:    IntakePayload{Client: ev.Client, Message: ev.Note},
		}}
	}
	return nil
}

func routingKey(channel string) string {
	return "chat_events." + channel
}
