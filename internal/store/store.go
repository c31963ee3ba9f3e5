// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/fieldops/fieldops/internal/domain"
)

// Repository defines the interface for persisting application data.
// Lookups return (nil, nil) when no row matches; callers translate that
// into their own not-found errors.
type Repository interface {
	// GetUserByID retrieves a user, including role names, by id.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// GetUserByIdentifiant retrieves a user, including role names, by login
	// identifier.
	GetUserByIdentifiant(ctx context.Context, identifiant string) (*domain.User, error)

	// ListUsers retrieves all users with their role names, ordered by name.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// CreateUser inserts a user and sets its id.
	CreateUser(ctx context.Context, user *domain.User) error

	// ListRoles retrieves all roles ordered by name.
	ListRoles(ctx context.Context) ([]*domain.Role, error)

	// CreateRole inserts a role and sets its id.
	CreateRole(ctx context.Context, role *domain.Role) error

	// AssignRole attaches a role to a user. Re-assigning is a no-op.
	AssignRole(ctx context.Context, userID, roleID int64) error

	// GetConversation retrieves a conversation by id.
	GetConversation(ctx context.Context, id int64) (*domain.Conversation, error)

	// GetConversationByPair retrieves the conversation for a canonical
	// participant pair.
	GetConversationByPair(ctx context.Context, userLow, userHigh int64) (*domain.Conversation, error)

	// CreateConversation inserts a conversation for a canonical pair. A
	// second insert for the same pair fails the pair uniqueness
	// constraint; detect that with IsUniqueConstraint and re-fetch.
	CreateConversation(ctx context.Context, userLow, userHigh int64) (*domain.Conversation, error)

	// ListConversations retrieves the user's conversations, most recent
	// first, each with participant snapshots and the last message.
	ListConversations(ctx context.Context, userID int64) ([]*domain.Conversation, error)

	// CreateMessage appends a message and returns it with the sender
	// snapshot attached.
	CreateMessage(ctx context.Context, conversationID, senderID int64, contenu string, sentAt time.Time) (*domain.Message, error)

	// GetMessage retrieves a message by id.
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)

	// ListMessages retrieves a conversation's messages ascending by send
	// time, id as tiebreak.
	ListMessages(ctx context.Context, conversationID int64) ([]*domain.Message, error)

	// ListVisibleMessages retrieves all messages in conversations the user
	// participates in, newest first.
	ListVisibleMessages(ctx context.Context, userID int64) ([]*domain.Message, error)

	// ListUnreadMessages retrieves unread messages addressed to the user
	// (not sent by them), newest first.
	ListUnreadMessages(ctx context.Context, userID int64) ([]*domain.Message, error)

	// MarkMessageRead sets the read flag and returns the updated message.
	// Already-read messages are returned unchanged.
	MarkMessageRead(ctx context.Context, id int64) (*domain.Message, error)

	// CreateMission inserts a mission and sets its id.
	CreateMission(ctx context.Context, mission *domain.Mission) error

	// GetMission retrieves a mission by id.
	GetMission(ctx context.Context, id int64) (*domain.Mission, error)

	// ListMissions retrieves all missions, newest first.
	ListMissions(ctx context.Context) ([]*domain.Mission, error)

	// ListMissionsByAssignee retrieves missions assigned to a user, newest
	// first.
	ListMissionsByAssignee(ctx context.Context, userID int64) ([]*domain.Mission, error)

	// UpdateMissionStatus sets a mission's status and returns the updated
	// record.
	UpdateMissionStatus(ctx context.Context, id int64, statut string) (*domain.Mission, error)

	// CreateEquipment inserts an equipment record and sets its id.
	CreateEquipment(ctx context.Context, eq *domain.Equipment) error

	// ListEquipment retrieves all equipment ordered by name.
	ListEquipment(ctx context.Context) ([]*domain.Equipment, error)

	// UpdateEquipmentStock sets an item's quantity and returns the updated
	// record.
	UpdateEquipmentStock(ctx context.Context, id int64, quantite int64) (*domain.Equipment, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// IsUniqueConstraint checks if the error is a SQLite unique constraint
// violation. Used to turn a duplicate-pair conversation insert into an
// "already exists, re-fetch" path.
func IsUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
