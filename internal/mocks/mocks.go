package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var created models.User
	if val := args.Get(0); val != nil {
		created = val.(models.User)
	}
	return created, args.Error(1)
}

func (m *UserRepositoryMock) ListConversationPartners(ctx context.Context, viewer models.User) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, viewer)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) ListAdvisors(ctx context.Context, viewer models.User) ([]models.User, error) {
	args := m.Called(ctx, viewer)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) ToggleAdmin(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ToggleAsesor(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ToggleBlocked(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, group models.Group, memberIDs []int) (models.Group, error) {
	args := m.Called(ctx, group, memberIDs)
	var created models.Group
	if val := args.Get(0); val != nil {
		created = val.(models.Group)
	}
	return created, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	args := m.Called(ctx, groupID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) ReassignAdvisor(ctx context.Context, groupID int, advisorID int) (models.Group, error) {
	args := m.Called(ctx, groupID, advisorID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ChangeStatus(ctx context.Context, groupID int, code int) (models.Group, error) {
	args := m.Called(ctx, groupID, code)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ReplaceMembers(ctx context.Context, groupID int, memberIDs []int) (models.Group, error) {
	args := m.Called(ctx, groupID, memberIDs)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) RecordScheduledDeletion(ctx context.Context, groupID int, requestedBy int, dueAt time.Time) error {
	args := m.Called(ctx, groupID, requestedBy, dueAt)
	return args.Error(0)
}

func (m *GroupRepositoryMock) SetLastMessage(ctx context.Context, groupID int, msg models.Message) error {
	args := m.Called(ctx, groupID, msg)
	return args.Error(0)
}

func (m *GroupRepositoryMock) RepointAfterDelete(ctx context.Context, groupID int, deletedID int) (*models.Message, bool, error) {
	args := m.Called(ctx, groupID, deletedID)
	var replacement *models.Message
	if val := args.Get(0); val != nil {
		replacement = val.(*models.Message)
	}
	return replacement, args.Bool(1), args.Error(2)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message, attachments []repositories.NewAttachment) (models.Message, error) {
	args := m.Called(ctx, msg, attachments)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListDirectMessages(ctx context.Context, userA, userB int, beforeID int, limit int) ([]models.Message, error) {
	args := m.Called(ctx, userA, userB, beforeID, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) ListGroupMessages(ctx context.Context, groupID int, beforeID int, limit int) ([]models.Message, error) {
	args := m.Called(ctx, groupID, beforeID, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) Upsert(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Error(1)
}

func (m *ReactionRepositoryMock) Remove(ctx context.Context, messageID int, userID int) (models.Reaction, bool, error) {
	args := m.Called(ctx, messageID, userID)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Bool(1), args.Error(2)
}

func (m *ReactionRepositoryMock) ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var list []models.Reaction
	if val := args.Get(0); val != nil {
		list = val.([]models.Reaction)
	}
	return list, args.Error(1)
}

type IntakeRepositoryMock struct {
	mock.Mock
}

func (m *IntakeRepositoryMock) CreateChatUser(ctx context.Context, intake models.ChatUser) (models.ChatUser, error) {
	args := m.Called(ctx, intake)
	var created models.ChatUser
	if val := args.Get(0); val != nil {
		created = val.(models.ChatUser)
	}
	return created, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) EnsureConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error) {
	args := m.Called(ctx, userA, userB)
	var row models.DirectConversationRow
	if val := args.Get(0); val != nil {
		row = val.(models.DirectConversationRow)
	}
	return row, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error) {
	args := m.Called(ctx, userA, userB)
	var row models.DirectConversationRow
	if val := args.Get(0); val != nil {
		row = val.(models.DirectConversationRow)
	}
	return row, args.Error(1)
}

func (m *ConversationRepositoryMock) SetLastMessage(ctx context.Context, userA, userB int, msg models.Message) error {
	args := m.Called(ctx, userA, userB, msg)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) RepointAfterDelete(ctx context.Context, userA, userB int, deletedID int) (*models.Message, bool, error) {
	args := m.Called(ctx, userA, userB, deletedID)
	var replacement *models.Message
	if val := args.Get(0); val != nil {
		replacement = val.(*models.Message)
	}
	return replacement, args.Bool(1), args.Error(2)
}

type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) Publish(ctx context.Context, event fanout.Event) {
	m.Called(ctx, event)
}

type SummaryMaintainerMock struct {
	mock.Mock
}

func (m *SummaryMaintainerMock) OnMessageCreated(ctx context.Context, msg models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *SummaryMaintainerMock) OnMessageDeleted(ctx context.Context, msg models.Message) (*models.Message, bool, error) {
	args := m.Called(ctx, msg)
	var replacement *models.Message
	if val := args.Get(0); val != nil {
		replacement = val.(*models.Message)
	}
	return replacement, args.Bool(1), args.Error(2)
}

type DeletionSchedulerMock struct {
	mock.Mock
}

func (m *DeletionSchedulerMock) ScheduleGroupDeletion(ctx context.Context, group models.Group, delay time.Duration, requestedBy int) error {
	args := m.Called(ctx, group, delay, requestedBy)
	return args.Error(0)
}
