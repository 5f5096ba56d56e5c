package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/mocks"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

func TestGateOnlineOpenToEveryone(t *testing.T) {
	gate := NewGate(new(mocks.GroupRepositoryMock))

	ok, err := gate.CanSubscribe(context.Background(), models.User{ID: 9}, Channel{Kind: Online})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateDirectPairMembersOnly(t *testing.T) {
	gate := NewGate(new(mocks.GroupRepositoryMock))
	ch := Channel{Kind: DirectMessages, UserA: 3, UserB: 7}

	for _, id := range []int{3, 7} {
		ok, err := gate.CanSubscribe(context.Background(), models.User{ID: id}, ch)
		require.NoError(t, err)
		assert.True(t, ok, "user %d", id)
	}

	ok, err := gate.CanSubscribe(context.Background(), models.User{ID: 5}, ch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateGroupChannelsRequireMembership(t *testing.T) {
	members := new(mocks.GroupRepositoryMock)
	members.On("IsMember", mock.Anything, 12, 3).Return(true, nil).Times(3)
	members.On("IsMember", mock.Anything, 12, 5).Return(false, nil).Times(3)
	gate := NewGate(members)

	for _, kind := range []ChannelKind{GroupMessages, GroupDeleted, GroupStatus} {
		ch := Channel{Kind: kind, GroupID: 12}

		ok, err := gate.CanSubscribe(context.Background(), models.User{ID: 3}, ch)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = gate.CanSubscribe(context.Background(), models.User{ID: 5}, ch)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	members.AssertExpectations(t)
}

func TestGateAdvisorChannelTargetedAdvisorOnly(t *testing.T) {
	gate := NewGate(new(mocks.GroupRepositoryMock))
	ch := Channel{Kind: AdvisorNotifications, AdvisorID: 4}

	ok, err := gate.CanSubscribe(context.Background(), models.User{ID: 4, IsAsesor: true}, ch)
	require.NoError(t, err)
	assert.True(t, ok)

	// Another advisor may not read a colleague's notifications.
	ok, err = gate.CanSubscribe(context.Background(), models.User{ID: 6, IsAsesor: true}, ch)
	require.NoError(t, err)
	assert.False(t, ok)

	// The right id without the advisor role is not enough either.
	ok, err = gate.CanSubscribe(context.Background(), models.User{ID: 4}, ch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateBlockedUserKeepsMembershipAccess(t *testing.T) {
	members := new(mocks.GroupRepositoryMock)
	members.On("IsMember", mock.Anything, 12, 3).Return(true, nil).Once()
	gate := NewGate(members)

	blockedAt := time.Now()
	blocked := models.User{ID: 3, BlockedAt: &blockedAt}

	ok, err := gate.CanSubscribe(context.Background(), blocked, Channel{Kind: GroupMessages, GroupID: 12})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.CanSubscribe(context.Background(), blocked, Channel{Kind: DirectMessages, UserA: 3, UserB: 7})
	require.NoError(t, err)
	assert.True(t, ok)
}
