package fanout

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

type broadcastRecord struct {
	channel string
	payload []byte
	exclude int
}

type recordingBroker struct {
	broadcasts []broadcastRecord
}

func (b *recordingBroker) Broadcast(channel string, payload []byte, excludeUserID int) {
	b.broadcasts = append(b.broadcasts, broadcastRecord{channel, payload, excludeUserID})
}

func intPtr(v int) *int { return &v }

func decodeEnvelope(t *testing.T, raw []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestPublishMessageCreatedDirectCanonicalChannel(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	// Sender 7 writing to 3 must land on the same channel as 3 to 7.
	p.Publish(context.Background(), MessageCreated{
		Message: models.Message{ID: 1, SenderID: 7, ReceiverID: intPtr(3), Body: "hola"},
		Sender:  models.PublicProfile{ID: 7, Name: "Ana"},
	})

	require.Len(t, broker.broadcasts, 1)
	got := broker.broadcasts[0]
	assert.Equal(t, "message.user.3-7", got.channel)
	assert.Equal(t, 7, got.exclude)

	env := decodeEnvelope(t, got.payload)
	assert.Equal(t, EventMessageCreated, env.Event)
	assert.Equal(t, "message.user.3-7", env.Channel)
}

func TestPublishMessageCreatedGroup(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	p.Publish(context.Background(), MessageCreated{
		Message: models.Message{ID: 1, SenderID: 7, GroupID: intPtr(12), Body: "hola"},
		Sender:  models.PublicProfile{ID: 7},
	})

	require.Len(t, broker.broadcasts, 1)
	assert.Equal(t, "message.group.12", broker.broadcasts[0].channel)
}

func TestPublishMessageDeletedCarriesReplacement(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	replacement := &models.Message{ID: 9, SenderID: 3, GroupID: intPtr(12), Body: "previous"}
	p.Publish(context.Background(), MessageDeleted{
		Message:        models.Message{ID: 10, SenderID: 7, GroupID: intPtr(12)},
		SummaryChanged: true,
		Replacement:    replacement,
	})

	require.Len(t, broker.broadcasts, 1)
	env := decodeEnvelope(t, broker.broadcasts[0].payload)
	assert.Equal(t, EventMessageDeleted, env.Event)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var payload MessageDeletedPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, 10, payload.MessageID)
	assert.True(t, payload.SummaryChanged)
	require.NotNil(t, payload.LastMessage)
	assert.Equal(t, 9, payload.LastMessage.ID)
}

func TestPublishMessageDeletedEmptyConversation(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	p.Publish(context.Background(), MessageDeleted{
		Message:        models.Message{ID: 10, SenderID: 7, ReceiverID: intPtr(3)},
		SummaryChanged: true,
		Replacement:    nil,
	})

	require.Len(t, broker.broadcasts, 1)
	env := decodeEnvelope(t, broker.broadcasts[0].payload)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var payload MessageDeletedPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.True(t, payload.SummaryChanged)
	assert.Nil(t, payload.LastMessage)
}

func TestPublishGroupStatusChangedHitsBothChannels(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	p.Publish(context.Background(), GroupChanged{
		Group:       models.Group{ID: 12, Name: "algebra"},
		Change:      GroupStatusChanged,
		MemberIDs:   []int{3, 7},
		InitiatorID: 4,
	})

	require.Len(t, broker.broadcasts, 2)
	channels := []string{broker.broadcasts[0].channel, broker.broadcasts[1].channel}
	assert.ElementsMatch(t, []string{"message.group.12", "group.statusChange.12"}, channels)
	for _, b := range broker.broadcasts {
		assert.Equal(t, 4, b.exclude)
	}
}

func TestPublishGroupDeletedUsesDeletionChannel(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	p.Publish(context.Background(), GroupChanged{
		Group:  models.Group{ID: 12},
		Change: GroupDeleted,
	})

	require.Len(t, broker.broadcasts, 1)
	assert.Equal(t, "group.deleted.12", broker.broadcasts[0].channel)
}

func TestPublishGroupAsesorChangedUsesGroupChannel(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	p.Publish(context.Background(), GroupChanged{
		Group:       models.Group{ID: 12, AsesorID: intPtr(4)},
		Change:      GroupAsesorChanged,
		InitiatorID: 1,
	})

	require.Len(t, broker.broadcasts, 1)
	assert.Equal(t, "message.group.12", broker.broadcasts[0].channel)

	env := decodeEnvelope(t, broker.broadcasts[0].payload)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var payload GroupChangedPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, GroupAsesorChanged, payload.Type)
}

func TestPublishClientIntakeTargetsAdvisor(t *testing.T) {
	broker := &recordingBroker{}
	p := NewPublisher(broker)

	p.Publish(context.Background(), ClientIntake{
		Client:    models.ChatUser{ID: 1, FullName: "Luis"},
		AdvisorID: 4,
		Note:      "wants calculus help",
	})

	require.Len(t, broker.broadcasts, 1)
	got := broker.broadcasts[0]
	assert.Equal(t, "admin.notifications.4", got.channel)
	// Nobody is excluded: the submitter has no account or connection.
	assert.Equal(t, 0, got.exclude)
}

func TestResolveIsDeterministic(t *testing.T) {
	event := MessageCreated{Message: models.Message{ID: 1, SenderID: 7, ReceiverID: intPtr(3)}}
	first := resolve(event)
	second := resolve(event)
	assert.Equal(t, first, second)
}
