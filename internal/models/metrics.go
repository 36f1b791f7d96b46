package models

import "time"

// ResponseMetrics summarises how an artist answers incoming requests.
// Rate and time are nil when no request was answered.
type ResponseMetrics struct {
	ResponseRate        *int `json:"responseRate"`
	ResponseTimeMinutes *int `json:"responseTimeMinutes"`
	CompletedCount      int  `json:"completedCount"`
	TotalRequests       int  `json:"totalRequests"`
}

// RequestTiming is the slice of an ArtistRequest the metrics need.
type RequestTiming struct {
	Status    string
	ThreadID  *string
	CreatedAt time.Time
}
