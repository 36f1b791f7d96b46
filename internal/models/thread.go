package models

import "time"

// MaxAttachmentSize is the largest attachment a message may reference.
const MaxAttachmentSize = 10 * 1024 * 1024

const (
	NoNameLabel           = "이름 없음"
	AttachmentPreviewText = "파일을 보냈습니다."
)

type MessageThread struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"userAId"`
	UserBID   string    `json:"userBId"`
	JobID     *string   `json:"jobId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two thread members.
func (t MessageThread) HasParticipant(userID string) bool {
	return t.UserAID == userID || t.UserBID == userID
}

// OtherParticipant returns the member that is not userID.
func (t MessageThread) OtherParticipant(userID string) string {
	if t.UserAID == userID {
		return t.UserBID
	}
	return t.UserAID
}

type Message struct {
	ID             string     `json:"id"`
	ThreadID       string     `json:"threadId"`
	SenderID       string     `json:"senderId"`
	Body           string     `json:"body"`
	AttachmentURL  *string    `json:"attachmentUrl,omitempty"`
	AttachmentKey  *string    `json:"-"`
	AttachmentName *string    `json:"attachmentName,omitempty"`
	AttachmentType *string    `json:"attachmentType,omitempty"`
	AttachmentSize *int64     `json:"attachmentSize,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

type MessageInput struct {
	Body           string  `json:"body" validate:"required"`
	AttachmentURL  *string `json:"attachmentUrl" validate:"omitempty,url"`
	AttachmentKey  *string `json:"attachmentKey"`
	AttachmentName *string `json:"attachmentName"`
	AttachmentType *string `json:"attachmentType"`
	AttachmentSize *int64  `json:"attachmentSize" validate:"omitempty,filesize"`
}

type SendToArtistInput struct {
	ArtistID       string  `json:"artistId" validate:"required"`
	Body           string  `json:"body" validate:"required"`
	AttachmentURL  *string `json:"attachmentUrl" validate:"omitempty,url"`
	AttachmentKey  *string `json:"attachmentKey"`
	AttachmentName *string `json:"attachmentName"`
	AttachmentType *string `json:"attachmentType"`
	AttachmentSize *int64  `json:"attachmentSize" validate:"omitempty,filesize"`
}

// Message returns the message part of the input.
func (in SendToArtistInput) Message() MessageInput {
	return MessageInput{
		Body:           in.Body,
		AttachmentURL:  in.AttachmentURL,
		AttachmentKey:  in.AttachmentKey,
		AttachmentName: in.AttachmentName,
		AttachmentType: in.AttachmentType,
		AttachmentSize: in.AttachmentSize,
	}
}

// Participant is the other user as shown in thread lists and headers.
type Participant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

type ThreadSummary struct {
	ID            string      `json:"id"`
	OtherUser     Participant `json:"otherUser"`
	LastMessage   string      `json:"lastMessage"`
	LastMessageAt time.Time   `json:"lastMessageAt"`
	UnreadCount   int         `json:"unreadCount"`
}

type ThreadDetail struct {
	Thread   ThreadHeader `json:"thread"`
	Messages []Message    `json:"messages"`
}

type ThreadHeader struct {
	ID        string      `json:"id"`
	OtherUser Participant `json:"otherUser"`
}

type SendResult struct {
	ThreadID  string `json:"threadId"`
	MessageID string `json:"messageId"`
}
