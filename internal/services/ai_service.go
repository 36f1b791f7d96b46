package services

import (
	"context"
	"strings"
	"time"

	"soundcrew/internal/models"
)

type ChatCompletionClient interface {
	Complete(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Temperature float32       `json:"temperature,omitempty"`
	Messages    []ChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Content string
}

const shortIntroSystemPrompt = "너는 뮤지션 프로필 작성을 돕는 어시스턴트다. " +
	"친근하고 자연스러운 한국어로 한 줄 소개(1문장)만 작성한다. " +
	"과장하거나 허위 사실을 만들지 않는다. " +
	"아티스트의 포지션/장르/작업 성향을 간결하게 반영한다. " +
	"길이는 30~60자 정도로 유지한다."

const shortIntroFallback = "현재 응답을 생성하지 못했습니다. 잠시 후 다시 시도해주세요."

// AIService drafts profile copy with a chat completion model.
type AIService struct {
	Client  ChatCompletionClient
	Model   string
	Timeout time.Duration
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "없음"
	}
	return s
}

func shortIntroPrompt(in models.ShortIntroInput) string {
	return strings.Join([]string{
		"활동명: " + orNone(in.StageName),
		"포지션: " + orNone(strings.Join(in.Roles, ", ")),
		"장르: " + orNone(strings.Join(in.Genres, ", ")),
		"포트폴리오: " + orNone(in.PortfolioText),
	}, "\n")
}

// ShortIntro returns a one sentence introduction for the artist.
func (s *AIService) ShortIntro(ctx context.Context, in models.ShortIntroInput) (string, error) {
	if s.Client == nil {
		return "", models.ErrNotConfigured
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	resp, err := s.Client.Complete(ctx, ChatCompletionRequest{
		Model:       s.Model,
		Temperature: 0.6,
		Messages: []ChatMessage{
			{Role: "system", Content: shortIntroSystemPrompt},
			{Role: "user", Content: shortIntroPrompt(in)},
		},
	})
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return shortIntroFallback, nil
	}
	return reply, nil
}
