package models

import "time"

const (
	RequestPending   = "PENDING"
	RequestAccepted  = "ACCEPTED"
	RequestDeclined  = "DECLINED"
	RequestCompleted = "COMPLETED"
	RequestCanceled  = "CANCELED"
)

const (
	BoxSent     = "sent"
	BoxReceived = "received"
)

type ArtistRequest struct {
	ID             string    `json:"id"`
	ArtistID       string    `json:"artistId"`
	RequesterID    string    `json:"requesterId"`
	ShortHelp      string    `json:"shortHelp"`
	Description    string    `json:"description"`
	ReferenceLinks []string  `json:"referenceLinks"`
	Status         string    `json:"status"`
	ThreadID       *string   `json:"threadId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RequestListItem adds the counterpart names to a request for the inbox views.
type RequestListItem struct {
	ArtistRequest
	ArtistSlug      string  `json:"artistSlug"`
	ArtistStageName string  `json:"artistStageName"`
	RequesterName   *string `json:"requesterName,omitempty"`
}

type ArtistRequestInput struct {
	ArtistID       string   `json:"artistId" validate:"required"`
	ShortHelp      string   `json:"shortHelp" validate:"required,max=200"`
	Description    string   `json:"description" validate:"required,max=5000"`
	ReferenceLinks []string `json:"referenceLinks" validate:"omitempty,max=10,dive,url"`
}

type RequestStatusInput struct {
	Status string `json:"status" validate:"required,oneof=ACCEPTED DECLINED COMPLETED CANCELED"`
}
