package line

import (
	"context"
	"fmt"
)

// Push는 수신자에게 텍스트 메시지를 전송합니다
func (c *Client) Push(ctx context.Context, recipientID, text string) error {
	return c.PushText(ctx, recipientID, text)
}

// PushError는 수신자에게 에러 알림을 전송합니다
func (c *Client) PushError(ctx context.Context, recipientID string, err error) error {
	return c.PushText(ctx, recipientID, fmt.Sprintf("⚠️ 에러 발생:\n%v", err))
}
