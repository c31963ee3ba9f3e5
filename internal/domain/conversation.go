package domain

import (
	"time"
)

// Conversation is a persistent two-party message thread. Participants are
// stored as a canonical ordered pair so the storage layer can enforce
// "at most one conversation per pair" with a uniqueness constraint.
type Conversation struct {
	ID           int64     `json:"id"`
	UserLow      int64     `json:"-"`
	UserHigh     int64     `json:"-"`
	CreatedAt    time.Time `json:"date_creation"`
	Participants []Sender  `json:"participants,omitempty"`
	LastMessage  *Message  `json:"dernier_message,omitempty"`
}

// CanonicalPair orders two participant ids so that (a,b) and (b,a) map to
// the same conversation key.
func CanonicalPair(a, b int64) (low, high int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// OtherParticipant returns the id of the participant that is not userID.
// Callers must check HasParticipant first.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}
