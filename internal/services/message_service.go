package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/realtime"
	"soundcrew/internal/repositories"
)

// unreadWorkers bounds the concurrent unread count queries of a thread list.
const unreadWorkers = 8

const pushPreviewRunes = 100

type MessageService struct {
	DB          *repositories.DB
	ThreadRepo  *repositories.ThreadRepository
	MessageRepo *repositories.MessageRepository
	UserRepo    *repositories.UserRepository
	ArtistRepo  *repositories.ArtistRepository
	Metrics     *MetricsService
	Bus         Publisher
	Push        *PushService
	Logger      logger.Logger

	now func() time.Time
}

func (s *MessageService) clock() time.Time { return timestamp(s.now) }

func (s *MessageService) bus() Publisher {
	if s.Bus == nil {
		return noopPublisher{}
	}
	return s.Bus
}

// FindOrCreateThread returns the direct thread of the pair in either order,
// creating it when absent. Concurrent first contacts may create two threads.
func (s *MessageService) FindOrCreateThread(ctx context.Context, userA, userB string) (models.MessageThread, error) {
	if userA == userB {
		return models.MessageThread{}, models.ErrSelfMessage
	}

	thread, err := s.ThreadRepo.FindPairThread(ctx, userA, userB)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, models.ErrNoRecord) {
		return models.MessageThread{}, err
	}

	now := s.clock()
	thread = models.MessageThread{
		ID:        uuid.NewString(),
		UserAID:   userA,
		UserBID:   userB,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ThreadRepo.CreateThread(ctx, thread); err != nil {
		return models.MessageThread{}, err
	}
	return thread, nil
}

// AppendMessage stores the message and bumps the thread's updatedAt.
// Call it inside InTx.
func (s *MessageService) AppendMessage(ctx context.Context, threadID, senderID string, in models.MessageInput) (models.Message, error) {
	msg := models.Message{
		ID:             uuid.NewString(),
		ThreadID:       threadID,
		SenderID:       senderID,
		Body:           in.Body,
		AttachmentURL:  in.AttachmentURL,
		AttachmentKey:  in.AttachmentKey,
		AttachmentName: in.AttachmentName,
		AttachmentType: in.AttachmentType,
		AttachmentSize: in.AttachmentSize,
		CreatedAt:      s.clock(),
	}
	if err := s.MessageRepo.CreateMessage(ctx, msg); err != nil {
		return models.Message{}, err
	}
	if err := s.ThreadRepo.TouchThread(ctx, threadID, msg.CreatedAt); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListThreads returns the user's threads, most recently active first.
func (s *MessageService) ListThreads(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	threads, err := s.ThreadRepo.ListThreadsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.ThreadSummary, len(threads))
	if len(threads) == 0 {
		return summaries, nil
	}

	others := make([]string, 0, len(threads))
	for _, t := range threads {
		others = append(others, t.OtherParticipant(userID))
	}
	participants, err := s.UserRepo.GetParticipants(ctx, others)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(unreadWorkers)
	for i, t := range threads {
		g.Go(func() error {
			sum := models.ThreadSummary{
				ID:            t.ID,
				OtherUser:     participantOrDefault(participants, t.OtherParticipant(userID)),
				LastMessageAt: t.UpdatedAt,
			}
			last, err := s.MessageRepo.GetLastMessage(gctx, t.ID)
			switch {
			case err == nil:
				sum.LastMessage = previewText(last)
				sum.LastMessageAt = last.CreatedAt
			case !errors.Is(err, models.ErrNoRecord):
				return err
			}
			n, err := s.MessageRepo.CountUnread(gctx, t.ID, userID)
			if err != nil {
				return err
			}
			sum.UnreadCount = n
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func participantOrDefault(m map[string]models.Participant, id string) models.Participant {
	if p, ok := m[id]; ok {
		return p
	}
	return models.Participant{ID: id, Name: models.NoNameLabel}
}

func previewText(m models.Message) string {
	if m.Body != "" {
		return m.Body
	}
	if m.AttachmentURL != nil {
		return models.AttachmentPreviewText
	}
	return ""
}

// GetThread marks the thread read for the user and returns it with all messages.
func (s *MessageService) GetThread(ctx context.Context, threadID, userID string) (models.ThreadDetail, error) {
	thread, err := s.ParticipantThread(ctx, threadID, userID)
	if err != nil {
		return models.ThreadDetail{}, err
	}

	if err := s.MarkRead(ctx, thread, userID); err != nil {
		return models.ThreadDetail{}, err
	}

	messages, err := s.MessageRepo.GetMessagesForThread(ctx, thread.ID)
	if err != nil {
		return models.ThreadDetail{}, err
	}
	otherID := thread.OtherParticipant(userID)
	participants, err := s.UserRepo.GetParticipants(ctx, []string{otherID})
	if err != nil {
		return models.ThreadDetail{}, err
	}

	return models.ThreadDetail{
		Thread:   models.ThreadHeader{ID: thread.ID, OtherUser: participantOrDefault(participants, otherID)},
		Messages: messages,
	}, nil
}

// MarkRead flips readAt on the messages the reader received and tells the
// other participant when anything changed.
func (s *MessageService) MarkRead(ctx context.Context, thread models.MessageThread, readerID string) error {
	n, err := s.MessageRepo.MarkRead(ctx, thread.ID, readerID, s.clock())
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	s.publish(ctx, realtime.Envelope{
		UserIDs: []string{thread.OtherParticipant(readerID)},
		Event:   realtime.Event{Type: realtime.EventRead, ThreadID: thread.ID, ReaderID: readerID},
	})
	return nil
}

// ParticipantThread loads the thread, answering ErrNoRecord to outsiders.
func (s *MessageService) ParticipantThread(ctx context.Context, threadID, userID string) (models.MessageThread, error) {
	thread, err := s.ThreadRepo.GetThreadByID(ctx, threadID)
	if err != nil {
		return models.MessageThread{}, err
	}
	if !thread.HasParticipant(userID) {
		return models.MessageThread{}, models.ErrNoRecord
	}
	return thread, nil
}

// SendToArtist opens (or reuses) the direct thread with the artist's user and
// appends the message in one transaction.
func (s *MessageService) SendToArtist(ctx context.Context, senderID string, in models.SendToArtistInput) (models.SendResult, error) {
	artist, err := s.ArtistRepo.GetArtistByID(ctx, in.ArtistID)
	if errors.Is(err, models.ErrNoRecord) {
		return models.SendResult{}, models.ErrArtistUserRequired
	}
	if err != nil {
		return models.SendResult{}, err
	}
	if artist.UserID == nil {
		return models.SendResult{}, models.ErrArtistUserRequired
	}

	var thread models.MessageThread
	var msg models.Message
	err = s.DB.InTx(ctx, func(ctx context.Context) error {
		var err error
		thread, err = s.FindOrCreateThread(ctx, senderID, *artist.UserID)
		if err != nil {
			return err
		}
		msg, err = s.AppendMessage(ctx, thread.ID, senderID, in.Message())
		return err
	})
	if err != nil {
		return models.SendResult{}, err
	}

	s.afterAppend(ctx, thread, msg)
	return models.SendResult{ThreadID: thread.ID, MessageID: msg.ID}, nil
}

// SendInThread appends a message to a thread the sender takes part in.
func (s *MessageService) SendInThread(ctx context.Context, threadID, senderID string, in models.MessageInput) (models.Message, error) {
	thread, err := s.ParticipantThread(ctx, threadID, senderID)
	if err != nil {
		return models.Message{}, err
	}

	var msg models.Message
	err = s.DB.InTx(ctx, func(ctx context.Context) error {
		var err error
		msg, err = s.AppendMessage(ctx, thread.ID, senderID, in)
		return err
	})
	if err != nil {
		return models.Message{}, err
	}

	s.afterAppend(ctx, thread, msg)
	return msg, nil
}

// afterAppend fans a committed message out: realtime event to both
// participants, push to the recipient, and a fresh metrics computation for
// the sender in case they answered as an artist.
func (s *MessageService) afterAppend(ctx context.Context, thread models.MessageThread, msg models.Message) {
	s.publish(ctx, realtime.Envelope{
		UserIDs: []string{thread.UserAID, thread.UserBID},
		Event:   realtime.Event{Type: realtime.EventMessage, ThreadID: thread.ID, Message: &msg},
	})

	s.Metrics.Invalidate(ctx, msg.SenderID)

	if s.Push != nil {
		title := models.NoNameLabel
		if p, err := s.UserRepo.GetParticipants(ctx, []string{msg.SenderID}); err == nil {
			title = participantOrDefault(p, msg.SenderID).Name
		}
		s.Push.Notify(ctx, thread.OtherParticipant(msg.SenderID), PushKindMessage, PushNotification{
			Title: title,
			Body:  truncateRunes(previewText(msg), pushPreviewRunes),
			Data:  map[string]string{"type": "message", "threadId": thread.ID},
		})
	}
}

func (s *MessageService) publish(ctx context.Context, env realtime.Envelope) {
	if err := s.bus().Publish(ctx, env); err != nil {
		s.Logger.Errorf("realtime publish %s: %v", env.Event.Type, err)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
