package notification

import "context"

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// Push는 수신자에게 텍스트 메시지를 전송합니다
	Push(ctx context.Context, recipientID, text string) error

	// PushError는 수신자에게 에러 알림을 전송합니다
	PushError(ctx context.Context, recipientID string, err error) error
}
