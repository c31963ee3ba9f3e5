package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldops/fieldops/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS utilisateurs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identifiant TEXT NOT NULL UNIQUE,
		nom TEXT NOT NULL,
		prenom TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		image TEXT,
		mot_de_passe TEXT NOT NULL,
		date_creation INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS role_utilisateur (
		utilisateur_id INTEGER NOT NULL REFERENCES utilisateurs(id),
		role_id INTEGER NOT NULL REFERENCES roles(id),
		PRIMARY KEY (utilisateur_id, role_id)
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_low INTEGER NOT NULL REFERENCES utilisateurs(id),
		user_high INTEGER NOT NULL REFERENCES utilisateurs(id),
		date_creation INTEGER NOT NULL,
		UNIQUE (user_low, user_high)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id),
		expediteur_id INTEGER NOT NULL REFERENCES utilisateurs(id),
		contenu TEXT NOT NULL,
		date_envoi INTEGER NOT NULL,
		lu INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, date_envoi);
	CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(conversation_id) WHERE lu = 0;

	CREATE TABLE IF NOT EXISTS missions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		titre TEXT NOT NULL,
		description TEXT,
		statut TEXT NOT NULL,
		assignee_id INTEGER NOT NULL REFERENCES utilisateurs(id),
		date_creation INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_missions_assignee ON missions(assignee_id);

	CREATE TABLE IF NOT EXISTS equipements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		quantite INTEGER NOT NULL,
		date_creation INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const userColumns = `id, identifiant, nom, prenom, email, image, mot_de_passe, date_creation`

func (s *SQLiteStore) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var image sql.NullString
	var createdAt int64

	err := row.Scan(
		&user.ID, &user.Identifiant, &user.Nom, &user.Prenom,
		&user.Email, &image, &user.PasswordHash, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.Image = image.String
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

func (s *SQLiteStore) loadRoles(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT r.nom FROM roles r
		JOIN role_utilisateur ru ON ru.role_id = r.id
		WHERE ru.utilisateur_id = ?
		ORDER BY ru.rowid`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer closeRows(rows, "user roles")

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role row: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// GetUserByID retrieves a user, including role names, by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM utilisateurs WHERE id = ?`, id)
	user, err := s.scanUser(row)
	if err != nil || user == nil {
		return user, err
	}
	if user.Roles, err = s.loadRoles(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByIdentifiant retrieves a user, including role names, by login
// identifier.
func (s *SQLiteStore) GetUserByIdentifiant(ctx context.Context, identifiant string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM utilisateurs WHERE identifiant = ?`, identifiant)
	user, err := s.scanUser(row)
	if err != nil || user == nil {
		return user, err
	}
	if user.Roles, err = s.loadRoles(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves all users with their role names, ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM utilisateurs ORDER BY nom, prenom`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer closeRows(rows, "users")

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var image sql.NullString
		var createdAt int64
		if err := rows.Scan(
			&user.ID, &user.Identifiant, &user.Nom, &user.Prenom,
			&user.Email, &image, &user.PasswordHash, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		user.Image = image.String
		user.CreatedAt = time.Unix(createdAt, 0)
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for _, user := range users {
		if user.Roles, err = s.loadRoles(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// CreateUser inserts a user and sets its id.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	var image interface{}
	if user.Image != "" {
		image = user.Image
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO utilisateurs (identifiant, nom, prenom, email, image, mot_de_passe, date_creation)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Identifiant, user.Nom, user.Prenom, user.Email, image,
		user.PasswordHash, user.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get user id: %w", err)
	}
	return nil
}

// ListRoles retrieves all roles ordered by name.
func (s *SQLiteStore) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nom FROM roles ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer closeRows(rows, "roles")

	var roles []*domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Nom); err != nil {
			return nil, fmt.Errorf("scan role row: %w", err)
		}
		roles = append(roles, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// CreateRole inserts a role and sets its id.
func (s *SQLiteStore) CreateRole(ctx context.Context, role *domain.Role) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO roles (nom) VALUES (?)`, role.Nom)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	role.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get role id: %w", err)
	}
	return nil
}

// AssignRole attaches a role to a user. Re-assigning is a no-op.
func (s *SQLiteStore) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_utilisateur (utilisateur_id, role_id) VALUES (?, ?)
		ON CONFLICT(utilisateur_id, role_id) DO NOTHING`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func scanConversation(row *sql.Row) (*domain.Conversation, error) {
	var conv domain.Conversation
	var createdAt int64

	err := row.Scan(&conv.ID, &conv.UserLow, &conv.UserHigh, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}

	conv.CreatedAt = time.Unix(createdAt, 0)
	return &conv, nil
}

// GetConversation retrieves a conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_low, user_high, date_creation FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// GetConversationByPair retrieves the conversation for a canonical
// participant pair.
func (s *SQLiteStore) GetConversationByPair(ctx context.Context, userLow, userHigh int64) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_low, user_high, date_creation FROM conversations WHERE user_low = ? AND user_high = ?`,
		userLow, userHigh)
	return scanConversation(row)
}

// CreateConversation inserts a conversation for a canonical pair.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userLow, userHigh int64) (*domain.Conversation, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (user_low, user_high, date_creation) VALUES (?, ?, ?)`,
		userLow, userHigh, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get conversation id: %w", err)
	}
	return &domain.Conversation{
		ID:        id,
		UserLow:   userLow,
		UserHigh:  userHigh,
		CreatedAt: time.Unix(now.Unix(), 0),
	}, nil
}

// ListConversations retrieves the user's conversations, most recent first,
// each with participant snapshots and the last message.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	query := `
		SELECT id, user_low, user_high, date_creation
		FROM conversations
		WHERE user_low = ? OR user_high = ?
		ORDER BY date_creation DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer closeRows(rows, "conversations")

	var convs []*domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var createdAt int64
		if err := rows.Scan(&conv.ID, &conv.UserLow, &conv.UserHigh, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		conv.CreatedAt = time.Unix(createdAt, 0)
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	for _, conv := range convs {
		if err := s.fillConversation(ctx, conv); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

func (s *SQLiteStore) fillConversation(ctx context.Context, conv *domain.Conversation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nom, prenom, image FROM utilisateurs WHERE id IN (?, ?) ORDER BY id`,
		conv.UserLow, conv.UserHigh)
	if err != nil {
		return fmt.Errorf("query participants: %w", err)
	}
	defer closeRows(rows, "participants")

	conv.Participants = conv.Participants[:0]
	for rows.Next() {
		var p domain.Sender
		var image sql.NullString
		if err := rows.Scan(&p.ID, &p.Nom, &p.Prenom, &image); err != nil {
			return fmt.Errorf("scan participant row: %w", err)
		}
		p.Image = image.String
		conv.Participants = append(conv.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate participants: %w", err)
	}

	last, err := s.lastMessage(ctx, conv.ID)
	if err != nil {
		return err
	}
	conv.LastMessage = last
	return nil
}

const messageColumns = `
	m.id, m.conversation_id, m.contenu, m.date_envoi, m.lu,
	u.id, u.nom, u.prenom, u.image`

const messageFrom = ` FROM messages m JOIN utilisateurs u ON u.id = m.expediteur_id `

func scanMessage(scan func(dest ...interface{}) error) (*domain.Message, error) {
	var msg domain.Message
	var sentAt int64
	var lu int
	var image sql.NullString

	err := scan(
		&msg.ID, &msg.ConversationID, &msg.Contenu, &sentAt, &lu,
		&msg.Expediteur.ID, &msg.Expediteur.Nom, &msg.Expediteur.Prenom, &image,
	)
	if err != nil {
		return nil, err
	}

	msg.DateEnvoi = time.UnixMilli(sentAt)
	msg.Lu = lu != 0
	msg.Expediteur.Image = image.String
	return &msg, nil
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer closeRows(rows, "messages")

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) lastMessage(ctx context.Context, conversationID int64) (*domain.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.conversation_id = ?
		ORDER BY m.date_envoi DESC, m.id DESC LIMIT 1`

	messages, err := s.queryMessages(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[0], nil
}

// CreateMessage appends a message and returns it with the sender snapshot
// attached.
func (s *SQLiteStore) CreateMessage(ctx context.Context, conversationID, senderID int64, contenu string, sentAt time.Time) (*domain.Message, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, expediteur_id, contenu, date_envoi, lu)
		VALUES (?, ?, ?, ?, 0)`,
		conversationID, senderID, contenu, sentAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get message id: %w", err)
	}
	return s.GetMessage(ctx, id)
}

// GetMessage retrieves a message by id.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `WHERE m.id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	msg, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan message row: %w", err)
	}
	return msg, nil
}

// ListMessages retrieves a conversation's messages ascending by send time.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.conversation_id = ?
		ORDER BY m.date_envoi ASC, m.id ASC`
	return s.queryMessages(ctx, query, conversationID)
}

// ListVisibleMessages retrieves all messages in conversations the user
// participates in, newest first.
func (s *SQLiteStore) ListVisibleMessages(ctx context.Context, userID int64) ([]*domain.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.conversation_id IN (
			SELECT id FROM conversations WHERE user_low = ? OR user_high = ?
		)
		ORDER BY m.date_envoi DESC, m.id DESC`
	return s.queryMessages(ctx, query, userID, userID)
}

// ListUnreadMessages retrieves unread messages addressed to the user,
// newest first.
func (s *SQLiteStore) ListUnreadMessages(ctx context.Context, userID int64) ([]*domain.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.lu = 0
		  AND m.expediteur_id != ?
		  AND m.conversation_id IN (
			SELECT id FROM conversations WHERE user_low = ? OR user_high = ?
		  )
		ORDER BY m.date_envoi DESC, m.id DESC`
	return s.queryMessages(ctx, query, userID, userID, userID)
}

// MarkMessageRead sets the read flag and returns the updated message.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, id int64) (*domain.Message, error) {
	// Idempotent: updating an already-read message is a no-op.
	_, err := s.db.ExecContext(ctx, `UPDATE messages SET lu = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	return s.GetMessage(ctx, id)
}

// CreateMission inserts a mission and sets its id.
func (s *SQLiteStore) CreateMission(ctx context.Context, mission *domain.Mission) error {
	if mission.CreatedAt.IsZero() {
		mission.CreatedAt = time.Now()
	}

	var description interface{}
	if mission.Description != "" {
		description = mission.Description
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO missions (titre, description, statut, assignee_id, date_creation)
		VALUES (?, ?, ?, ?, ?)`,
		mission.Titre, description, mission.Statut, mission.AssigneeID, mission.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert mission: %w", err)
	}
	mission.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get mission id: %w", err)
	}
	return nil
}

const missionColumns = `id, titre, description, statut, assignee_id, date_creation`

func scanMissionRow(scan func(dest ...interface{}) error) (*domain.Mission, error) {
	var mission domain.Mission
	var description sql.NullString
	var createdAt int64

	err := scan(
		&mission.ID, &mission.Titre, &description, &mission.Statut,
		&mission.AssigneeID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	mission.Description = description.String
	mission.CreatedAt = time.Unix(createdAt, 0)
	return &mission, nil
}

// GetMission retrieves a mission by id.
func (s *SQLiteStore) GetMission(ctx context.Context, id int64) (*domain.Mission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = ?`, id)
	mission, err := scanMissionRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan mission row: %w", err)
	}
	return mission, nil
}

func (s *SQLiteStore) queryMissions(ctx context.Context, query string, args ...interface{}) ([]*domain.Mission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query missions: %w", err)
	}
	defer closeRows(rows, "missions")

	var missions []*domain.Mission
	for rows.Next() {
		mission, err := scanMissionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan mission row: %w", err)
		}
		missions = append(missions, mission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missions: %w", err)
	}
	return missions, nil
}

// ListMissions retrieves all missions, newest first.
func (s *SQLiteStore) ListMissions(ctx context.Context) ([]*domain.Mission, error) {
	return s.queryMissions(ctx,
		`SELECT `+missionColumns+` FROM missions ORDER BY date_creation DESC, id DESC`)
}

// ListMissionsByAssignee retrieves missions assigned to a user, newest
// first.
func (s *SQLiteStore) ListMissionsByAssignee(ctx context.Context, userID int64) ([]*domain.Mission, error) {
	return s.queryMissions(ctx,
		`SELECT `+missionColumns+` FROM missions WHERE assignee_id = ? ORDER BY date_creation DESC, id DESC`,
		userID)
}

// UpdateMissionStatus sets a mission's status and returns the updated
// record.
func (s *SQLiteStore) UpdateMissionStatus(ctx context.Context, id int64, statut string) (*domain.Mission, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE missions SET statut = ? WHERE id = ?`, statut, id)
	if err != nil {
		return nil, fmt.Errorf("update mission status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}
	return s.GetMission(ctx, id)
}

// CreateEquipment inserts an equipment record and sets its id.
func (s *SQLiteStore) CreateEquipment(ctx context.Context, eq *domain.Equipment) error {
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO equipements (nom, reference, quantite, date_creation)
		VALUES (?, ?, ?, ?)`,
		eq.Nom, eq.Reference, eq.Quantite, eq.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	eq.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get equipment id: %w", err)
	}
	return nil
}

// ListEquipment retrieves all equipment ordered by name.
func (s *SQLiteStore) ListEquipment(ctx context.Context) ([]*domain.Equipment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, nom, reference, quantite, date_creation FROM equipements ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer closeRows(rows, "equipment")

	var items []*domain.Equipment
	for rows.Next() {
		var eq domain.Equipment
		var createdAt int64
		if err := rows.Scan(&eq.ID, &eq.Nom, &eq.Reference, &eq.Quantite, &createdAt); err != nil {
			return nil, fmt.Errorf("scan equipment row: %w", err)
		}
		eq.CreatedAt = time.Unix(createdAt, 0)
		items = append(items, &eq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}
	return items, nil
}

// UpdateEquipmentStock sets an item's quantity and returns the updated
// record.
func (s *SQLiteStore) UpdateEquipmentStock(ctx context.Context, id int64, quantite int64) (*domain.Equipment, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE equipements SET quantite = ? WHERE id = ?`, quantite, id)
	if err != nil {
		return nil, fmt.Errorf("update equipment stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, nom, reference, quantite, date_creation FROM equipements WHERE id = ?`, id)
	var eq domain.Equipment
	var createdAt int64
	if err := row.Scan(&eq.ID, &eq.Nom, &eq.Reference, &eq.Quantite, &createdAt); err != nil {
		return nil, fmt.Errorf("scan equipment row: %w", err)
	}
	eq.CreatedAt = time.Unix(createdAt, 0)
	return &eq, nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "what", what, "error", err)
	}
}
