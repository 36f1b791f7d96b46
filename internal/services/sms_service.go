package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"soundcrew/internal/models"
)

const defaultSolapiBaseURL = "https://api.solapi.com"

// SolapiClient sends SMS and Kakao Alimtalk messages through the Solapi v4 API.
type SolapiClient struct {
	httpClient *http.Client
	apiKey     string
	apiSecret  string
	sender     string
	pfID       string
	baseURL    string
}

func NewSolapiClient(httpClient *http.Client, apiKey, apiSecret, sender, pfID string) *SolapiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SolapiClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		sender:     DigitsOnly(sender),
		pfID:       pfID,
		baseURL:    defaultSolapiBaseURL,
	}
}

type solapiKakaoOptions struct {
	PfID       string            `json:"pfId"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables,omitempty"`
	DisableSMS bool              `json:"disableSms"`
}

type solapiMessage struct {
	To           string              `json:"to"`
	From         string              `json:"from"`
	Text         string              `json:"text,omitempty"`
	KakaoOptions *solapiKakaoOptions `json:"kakaoOptions,omitempty"`
}

func (c *SolapiClient) SendSMS(ctx context.Context, to, text string) error {
	to = DigitsOnly(to)
	if len(to) < 10 || len(c.sender) < 10 {
		return fmt.Errorf("solapi: invalid number format")
	}
	return c.send(ctx, solapiMessage{To: to, From: c.sender, Text: text})
}

func (c *SolapiClient) SendAlimtalk(ctx context.Context, to, templateID string, variables map[string]string) error {
	if c.pfID == "" || templateID == "" {
		return models.ErrNotConfigured
	}
	to = NormalizeKrPhone(to)
	if len(to) < 10 || len(c.sender) < 9 {
		return fmt.Errorf("solapi: invalid number format")
	}
	return c.send(ctx, solapiMessage{
		To:   to,
		From: c.sender,
		KakaoOptions: &solapiKakaoOptions{
			PfID:       c.pfID,
			TemplateID: templateID,
			Variables:  variables,
		},
	})
}

func (c *SolapiClient) send(ctx context.Context, msg solapiMessage) error {
	if strings.TrimSpace(c.apiKey) == "" || strings.TrimSpace(c.apiSecret) == "" {
		return models.ErrNotConfigured
	}

	body, err := json.Marshal(map[string]interface{}{"message": msg})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/messages/v4/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	auth, err := c.authorization(time.Now())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &models.UpstreamError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return nil
}

// authorization builds the HMAC-SHA256 header: the signature covers date+salt.
func (c *SolapiClient) authorization(now time.Time) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(buf)
	date := now.UTC().Format(time.RFC3339)

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(date + salt))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s", c.apiKey, date, salt, signature), nil
}
