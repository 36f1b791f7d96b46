package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/realtime"
	"soundcrew/internal/repositories"
)

type RequestService struct {
	DB          *repositories.DB
	RequestRepo *repositories.ArtistRequestRepository
	ArtistRepo  *repositories.ArtistRepository
	Messages    *MessageService
	Metrics     *MetricsService
	Push        *PushService
	Logger      logger.Logger

	now func() time.Time
}

func (s *RequestService) clock() time.Time { return timestamp(s.now) }

// ComposeRequestMessage is the opening message posted in the thread of a new request.
func ComposeRequestMessage(in models.ArtistRequestInput) string {
	parts := []string{
		"무엇을 도와드릴까요?: " + in.ShortHelp,
		"프로젝트 설명: " + in.Description,
	}
	if links := strings.Join(in.ReferenceLinks, "\n"); links != "" {
		parts = append(parts, "참고 링크:\n"+links)
	}
	return strings.Join(parts, "\n\n")
}

// CreateRequest files a work request. When the artist has a user the request
// is also posted into their direct thread, in the same transaction.
func (s *RequestService) CreateRequest(ctx context.Context, requesterID string, in models.ArtistRequestInput) (models.ArtistRequest, error) {
	artist, err := s.ArtistRepo.GetArtistByID(ctx, in.ArtistID)
	if err != nil {
		return models.ArtistRequest{}, err
	}
	if artist.UserID != nil && *artist.UserID == requesterID {
		return models.ArtistRequest{}, models.ErrSelfRequest
	}

	now := s.clock()
	req := models.ArtistRequest{
		ID:             uuid.NewString(),
		ArtistID:       artist.ID,
		RequesterID:    requesterID,
		ShortHelp:      in.ShortHelp,
		Description:    in.Description,
		ReferenceLinks: nonNil(in.ReferenceLinks),
		Status:         models.RequestPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var thread models.MessageThread
	var msg models.Message
	err = s.DB.InTx(ctx, func(ctx context.Context) error {
		if artist.UserID != nil {
			var err error
			thread, err = s.Messages.FindOrCreateThread(ctx, requesterID, *artist.UserID)
			if err != nil {
				return err
			}
			msg, err = s.Messages.AppendMessage(ctx, thread.ID, requesterID, models.MessageInput{Body: ComposeRequestMessage(in)})
			if err != nil {
				return err
			}
			req.ThreadID = &thread.ID
		}
		return s.RequestRepo.CreateRequest(ctx, req)
	})
	if err != nil {
		return models.ArtistRequest{}, err
	}

	if artist.UserID != nil {
		s.Messages.publish(ctx, realtime.Envelope{
			UserIDs: []string{thread.UserAID, thread.UserBID},
			Event:   realtime.Event{Type: realtime.EventMessage, ThreadID: thread.ID, Message: &msg},
		})
		s.Metrics.Invalidate(ctx, *artist.UserID)
		s.Push.Notify(ctx, *artist.UserID, PushKindRequest, PushNotification{
			Title: "새 작업 요청",
			Body:  truncateRunes(in.ShortHelp, pushPreviewRunes),
			Data:  map[string]string{"type": "request", "requestId": req.ID, "threadId": thread.ID},
		})
	}
	return req, nil
}

// ListRequests returns the user's sent requests or the requests received by
// their artist profile.
func (s *RequestService) ListRequests(ctx context.Context, userID, box string) ([]models.RequestListItem, error) {
	switch box {
	case models.BoxSent, "":
		return s.RequestRepo.ListSentRequests(ctx, userID)
	case models.BoxReceived:
		artistID, err := s.ArtistRepo.GetArtistIDByUserID(ctx, userID)
		if errors.Is(err, models.ErrNoRecord) {
			return []models.RequestListItem{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.RequestRepo.ListReceivedRequests(ctx, artistID)
	}
	return nil, models.ErrInvalidBox
}

// transitionAllowed encodes who may move a request where: the artist decides
// on pending requests and completes accepted ones, the requester may cancel
// while the work has not finished.
func transitionAllowed(from, to string, isOwner, isRequester bool) bool {
	switch {
	case isOwner && from == models.RequestPending && (to == models.RequestAccepted || to == models.RequestDeclined):
		return true
	case isOwner && from == models.RequestAccepted && to == models.RequestCompleted:
		return true
	case isRequester && (from == models.RequestPending || from == models.RequestAccepted) && to == models.RequestCanceled:
		return true
	}
	return false
}

// UpdateStatus moves a request to a new status on behalf of userID.
// Users who are not a party to the request get ErrNoRecord.
func (s *RequestService) UpdateStatus(ctx context.Context, userID, requestID, status string) (models.ArtistRequest, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.ArtistRequest{}, err
	}
	artist, err := s.ArtistRepo.GetArtistByID(ctx, req.ArtistID)
	if err != nil {
		return models.ArtistRequest{}, err
	}

	isOwner := artist.UserID != nil && *artist.UserID == userID
	isRequester := req.RequesterID == userID
	if !isOwner && !isRequester {
		return models.ArtistRequest{}, models.ErrNoRecord
	}
	if !transitionAllowed(req.Status, status, isOwner, isRequester) {
		return models.ArtistRequest{}, models.ErrInvalidTransition
	}

	now := s.clock()
	if err := s.RequestRepo.UpdateStatus(ctx, req.ID, status, now); err != nil {
		return models.ArtistRequest{}, err
	}
	req.Status, req.UpdatedAt = status, now

	if artist.UserID != nil {
		s.Metrics.Invalidate(ctx, *artist.UserID)
	}
	counterpart := req.RequesterID
	if isRequester {
		counterpart = ""
		if artist.UserID != nil {
			counterpart = *artist.UserID
		}
	}
	if counterpart != "" {
		s.Push.Notify(ctx, counterpart, PushKindRequest, PushNotification{
			Title: "작업 요청 상태 변경",
			Body:  statusLabels[status],
			Data:  map[string]string{"type": "request", "requestId": req.ID, "status": status},
		})
	}
	return req, nil
}

var statusLabels = map[string]string{
	models.RequestAccepted:  "요청이 수락되었습니다.",
	models.RequestDeclined:  "요청이 거절되었습니다.",
	models.RequestCompleted: "작업이 완료되었습니다.",
	models.RequestCanceled:  "요청이 취소되었습니다.",
}
