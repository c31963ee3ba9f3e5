package domain

import (
	"time"
)

// Sender is the denormalized view of a message's author carried on the
// wire as "expediteur".
type Sender struct {
	ID     int64  `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Image  string `json:"image,omitempty"`
}

// Message is a single entry in a conversation. Immutable after creation
// except for the read flag, which transitions false to true once.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Contenu        string    `json:"contenu"`
	DateEnvoi      time.Time `json:"date_envoi"`
	Lu             bool      `json:"lu"`
	Expediteur     Sender    `json:"expediteur"`
}

// SentBefore reports whether m was sent strictly before other, breaking
// timestamp ties by message id so ordering is deterministic.
func (m *Message) SentBefore(other *Message) bool {
	if m.DateEnvoi.Equal(other.DateEnvoi) {
		return m.ID < other.ID
	}
	return m.DateEnvoi.Before(other.DateEnvoi)
}
