package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageKind tells clients how to render a message.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindTranslation MessageKind = "translation"
	KindError       MessageKind = "error"
	KindInfo        MessageKind = "info"
)

// Image is an encoded picture attached to a message.
type Image struct {
	Data     []byte `json:"data"` // base64 in JSON
	MIMEType string `json:"mime_type"`
}

// Message stores a single entry of a conversation log.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Image     *Image      `json:"image,omitempty"`
	Original  string      `json:"original,omitempty"` // Untranslated input the reply belongs to.
	Pending   bool        `json:"pending"`
}

// NewMessage creates a finalized message with a fresh ID.
func NewMessage(role Role, kind MessageKind, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewPendingMessage creates the assistant placeholder shown while a reply is generated.
func NewPendingMessage(original string) Message {
	msg := NewMessage(RoleAssistant, KindTranslation, "")
	msg.Original = original
	msg.Pending = true
	return msg
}

// Finalize returns a copy of a pending message carrying the generated content.
func (m Message) Finalize(content string, kind MessageKind) Message {
	m.Content = content
	m.Kind = kind
	m.Pending = false
	return m
}

// Settings is the sampling configuration of the inference session.
type Settings struct {
	TopK          int     `json:"top_k" mapstructure:"top_k" validate:"min=1,max=100"`
	TopP          float64 `json:"top_p" mapstructure:"top_p" validate:"min=0,max=1"`
	Temperature   float64 `json:"temperature" mapstructure:"temperature" validate:"min=0,max=2"`
	VisionEnabled bool    `json:"vision_enabled" mapstructure:"vision_enabled"`
}

// DefaultSettings mirrors the defaults of the settings screen.
func DefaultSettings() Settings {
	return Settings{TopK: 40, TopP: 0.9, Temperature: 0.9, VisionEnabled: true}
}

// State is an immutable snapshot of the conversation controller.
type State struct {
	Messages     []Message `json:"messages"`
	ModelLoading bool      `json:"model_loading"`
	Thinking     bool      `json:"thinking"`
	Transcribing bool      `json:"transcribing"`
	Settings     Settings  `json:"settings"`
}

// PendingCount returns how many messages are still awaiting a result.
func (s State) PendingCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Pending {
			n++
		}
	}
	return n
}

// NotificationLevel is the severity of a transient notification.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// ActionInstallVoiceData asks the client to offer installing TTS voice data.
const ActionInstallVoiceData = "install_voice_data"

// Notification is a transient, user-visible message that never enters a log.
type Notification struct {
	Level  NotificationLevel `json:"level"`
	Text   string            `json:"text"`
	Action string            `json:"action,omitempty"`
}

// EventType distinguishes the payloads delivered to observers.
type EventType string

const (
	EventState        EventType = "state"
	EventFollowUps    EventType = "followups"
	EventNotification EventType = "notification"
)

// Event is what observers of the controller receive.
type Event struct {
	Type         EventType     `json:"type"`
	State        *State        `json:"state,omitempty"`
	FollowUps    []Message     `json:"followups,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// HistoryEntry is a finalized translation kept in the archive.
type HistoryEntry struct {
	ID          string    `json:"id"`
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	Original    string    `json:"original"`
	Translation string    `json:"translation"`
	HasImage    bool      `json:"has_image"`
	CreatedAt   time.Time `json:"created_at"`
}
