package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client는 LINE Messaging API 클라이언트입니다.
// DryRun 모드에서는 전송 대신 로그로만 출력합니다
type Client struct {
	baseURL       string
	accessToken   string
	channelSecret string
	dryRun        bool
	httpClient    *http.Client

	maxRetries int
	retryDelay time.Duration
}

// ClientOption은 LINE 클라이언트 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 요청 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 변경합니다 (테스트용)
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithDryRun은 실제 전송 없이 로그만 남기는 모드를 켭니다
func WithDryRun(dryRun bool) ClientOption {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// WithRetry는 재시도 횟수와 기본 대기 시간을 설정합니다
func WithRetry(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// NewClient는 새로운 LINE 클라이언트를 생성합니다
func NewClient(accessToken, channelSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       "https://api.line.me",
		accessToken:   accessToken,
		channelSecret: channelSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// PushText는 수신자에게 텍스트 메시지를 푸시합니다
func (c *Client) PushText(ctx context.Context, to, text string) error {
	if c.dryRun {
		log.Printf("[DRY-RUN] LINE 푸시 -> %s:\n%s", to, text)
		return nil
	}

	body, err := json.Marshal(pushRequest{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("푸시 요청 직렬화 실패: %w", err)
	}
	return c.post(ctx, "/v2/bot/message/push", body)
}

// ReplyText는 웹훅 이벤트의 reply token으로 답장을 전송합니다
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	if c.dryRun {
		log.Printf("[DRY-RUN] LINE 답장:\n%s", text)
		return nil
	}

	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("답장 요청 직렬화 실패: %w", err)
	}
	return c.post(ctx, "/v2/bot/message/reply", body)
}

// post는 Messaging API에 JSON을 전송합니다.
// 429/5xx 응답은 지수 백오프로 재시도합니다
func (c *Client) post(ctx context.Context, path string, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			log.Printf("LINE API 재시도 %d/%d (%v 대기)", attempt, c.maxRetries, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("LINE 요청 생성 실패: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("LINE 요청 실패: %w", err)
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return nil
		}

		lastErr = fmt.Errorf("LINE API 응답 에러 (상태 코드: %d): %s", resp.StatusCode, string(respBody))
		if !retryable(resp.StatusCode) {
			return lastErr
		}
	}
	return fmt.Errorf("LINE API 재시도 %d회 초과: %w", c.maxRetries, lastErr)
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// VerifySignature는 웹훅 요청의 X-Line-Signature 헤더를 검증합니다.
// 채널 시크릿이 설정되지 않았으면 검증을 건너뜁니다
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.channelSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(c.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
