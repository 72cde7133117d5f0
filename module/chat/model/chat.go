package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	mgo "EduChat/service/mgo"
)

// Kind of conversation.
const (
	KindPrivate = "private"
	KindGroup   = "group"
)

const DefaultGroupAvatar = "default-group.png"

// Attachment types.
const (
	AttachmentImage    = "image"
	AttachmentDocument = "document"
	AttachmentLink     = "link"
)

type Attachment struct {
	Type string `bson:"type" json:"type"`
	URL  string `bson:"url" json:"url"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
	Size int64  `bson:"size,omitempty" json:"size,omitempty"`
}

func ValidAttachmentType(t string) bool {
	switch t {
	case AttachmentImage, AttachmentDocument, AttachmentLink:
		return true
	}
	return false
}

// ReadReceipt marks one user's read of one message; at most one entry per
// user per message.
type ReadReceipt struct {
	User   string    `bson:"user" json:"user"`
	ReadAt time.Time `bson:"read_at" json:"readAt"`
}

type EditRecord struct {
	Content  string    `bson:"content" json:"content"`
	EditedAt time.Time `bson:"edited_at" json:"editedAt"`
}

// Message is embedded in its owning Chat; it is only ever addressed as
// (chat_id, message_id) and never moved between documents.
type Message struct {
	MessageID   string        `bson:"message_id" json:"messageId"`
	Sender      string        `bson:"sender" json:"sender"`
	Content     string        `bson:"content" json:"content"`
	Attachments []Attachment  `bson:"attachments,omitempty" json:"attachments,omitempty"`
	ReadBy      []ReadReceipt `bson:"read_by" json:"readBy"`
	IsEdited    bool          `bson:"is_edited" json:"isEdited"`
	EditHistory []EditRecord  `bson:"edit_history,omitempty" json:"editHistory,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`

	// Display snapshot, filled on read paths, never persisted.
	SenderName   string `bson:"-" json:"senderName,omitempty"`
	SenderAvatar string `bson:"-" json:"senderAvatar,omitempty"`
}

// ReadBySet reports whether user already has a receipt on this message.
func (m *Message) ReadBySet(user string) bool {
	for _, r := range m.ReadBy {
		if r.User == user {
			return true
		}
	}
	return false
}

type Metadata struct {
	TotalMessages int       `bson:"total_messages" json:"totalMessages"`
	LastActivity  time.Time `bson:"last_activity" json:"lastActivity"`
}

// Chat is one conversation document with its messages embedded, the same
// single-document ownership the platform's data model has always had.
type Chat struct {
	ChatID       string    `bson:"chat_id" json:"chatId"`
	Kind         string    `bson:"kind" json:"kind"` // private | group
	Participants []string  `bson:"participants" json:"participants"`
	GroupName    string    `bson:"group_name,omitempty" json:"groupName,omitempty"`
	GroupAvatar  string    `bson:"group_avatar,omitempty" json:"groupAvatar,omitempty"`
	Admins       []string  `bson:"admins" json:"admins"`
	Messages     []Message `bson:"messages" json:"messages"`
	LastMessage  string    `bson:"last_message,omitempty" json:"lastMessage,omitempty"` // message_id
	IsActive     bool      `bson:"is_active" json:"isActive"`
	CourseID     string    `bson:"course_id,omitempty" json:"courseId,omitempty"`
	Metadata     Metadata  `bson:"metadata" json:"metadata"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`

	// Display snapshots for list/detail views, filled on read paths, never
	// persisted here. LastMessageInfo carries the full document behind
	// LastMessage so list views can render a preview.
	ParticipantsInfo []ParticipantInfo `bson:"-" json:"participantsInfo,omitempty"`
	LastMessageInfo  *Message          `bson:"-" json:"lastMessageInfo,omitempty"`
}

// ParticipantInfo is the display projection of a participant.
type ParticipantInfo struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar,omitempty"`
}

func (c *Chat) GetTableName() string {
	return "chat"
}

func (c *Chat) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

// IsParticipant is the single membership capability check; every service
// authorization decision goes through here or IsAdmin.
func (c *Chat) IsParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func (c *Chat) IsAdmin(userID string) bool {
	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}
	return false
}

// Append adds m to the tail of the conversation and tracks it as the
// latest message. Messages are append-only; nothing reorders them.
func (c *Chat) Append(m Message) {
	c.Messages = append(c.Messages, m)
	c.LastMessage = m.MessageID
}

// RecomputeMetadata refreshes the derived aggregates after any change to
// Messages, mirroring the model's historical pre-save hook.
func (c *Chat) RecomputeMetadata(now time.Time) {
	c.Metadata.TotalMessages = len(c.Messages)
	c.Metadata.LastActivity = now
}

// ApplyRead appends a receipt for user to every message that lacks one.
// Pure in-memory mutation; returns how many messages gained a receipt, so a
// second call with the same user returns 0.
func (c *Chat) ApplyRead(user string, now time.Time) int {
	changed := 0
	for i := range c.Messages {
		if !c.Messages[i].ReadBySet(user) {
			c.Messages[i].ReadBy = append(c.Messages[i].ReadBy, ReadReceipt{User: user, ReadAt: now})
			changed++
		}
	}
	return changed
}

// FindMessage returns the index of message_id, -1 if absent.
func (c *Chat) FindMessage(messageID string) int {
	for i := range c.Messages {
		if c.Messages[i].MessageID == messageID {
			return i
		}
	}
	return -1
}

// Stats is the read model of GET /chats/:id/stats.
type Stats struct {
	TotalMessages     int     `json:"totalMessages"`
	ParticipantsCount int     `json:"participantsCount"`
	ActiveTime        int64   `json:"activeTime"` // milliseconds since creation
	MessagesPerDay    float64 `json:"messagesPerDay"`
}

// minStatsDays floors the elapsed-days denominator at one hour so a
// conversation created minutes ago reports a finite rate.
const minStatsDays = 1.0 / 24.0

// StatsFor computes the aggregate view at the given instant.
func (c *Chat) StatsFor(now time.Time) Stats {
	elapsed := now.Sub(c.CreateTime)
	days := elapsed.Hours() / 24
	if days < minStatsDays {
		days = minStatsDays
	}
	return Stats{
		TotalMessages:     c.Metadata.TotalMessages,
		ParticipantsCount: len(c.Participants),
		ActiveTime:        elapsed.Milliseconds(),
		MessagesPerDay:    float64(c.Metadata.TotalMessages) / days,
	}
}
