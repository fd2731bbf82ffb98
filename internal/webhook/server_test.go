package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kdwatch/internal/subscription"
)

type stubLine struct {
	replies    []string
	signatures bool
}

func (s *stubLine) ReplyText(ctx context.Context, replyToken, text string) error {
	s.replies = append(s.replies, text)
	return nil
}

func (s *stubLine) VerifySignature(body []byte, signature string) bool {
	return s.signatures
}

func newTestServer(t *testing.T) (*Server, *stubLine, *subscription.Service) {
	t.Helper()
	line := &stubLine{signatures: true}
	subs := subscription.NewService(subscription.NewFileBackend(filepath.Join(t.TempDir(), "subs.json")))
	return NewServer(":0", line, subs), line, subs
}

func postEvent(t *testing.T, srv *Server, text string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{
		"events": [{
			"type": "message",
			"replyToken": "token-1",
			"source": {"type": "user", "userId": "user1"},
			"message": {"type": "text", "text": %q}
		}]
	}`, text)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", "sig")
	w := httptest.NewRecorder()
	srv.handleWebhook(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_AddCommand(t *testing.T) {
	srv, line, subs := newTestServer(t)

	w := postEvent(t, srv, "add 2330 2603")
	assert.Equal(t, http.StatusOK, w.Code)

	require.Len(t, line.replies, 1)
	assert.Contains(t, line.replies[0], "2330.TW")
	assert.Contains(t, line.replies[0], "2603.TW")

	list, err := subs.List(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2330.TW", "2603.TW"}, list)
}

func TestServer_KoreanAliases(t *testing.T) {
	srv, line, _ := newTestServer(t)

	postEvent(t, srv, "추가 2330")
	postEvent(t, srv, "목록")
	postEvent(t, srv, "삭제 2330")
	postEvent(t, srv, "초기화")

	require.Len(t, line.replies, 4)
	assert.Contains(t, line.replies[0], "2330.TW")
	assert.Contains(t, line.replies[1], "2330.TW")
	assert.Contains(t, line.replies[2], "2330.TW")
	assert.Contains(t, line.replies[3], "0개")
}

func TestServer_BareSymbolsAddsSubscription(t *testing.T) {
	srv, line, subs := newTestServer(t)

	postEvent(t, srv, "2330 2603.TW")

	require.Len(t, line.replies, 1)
	list, err := subs.List(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2330.TW", "2603.TW"}, list)
}

func TestServer_UnknownCommand(t *testing.T) {
	srv, line, _ := newTestServer(t)

	postEvent(t, srv, "무엇을 해야 하나요")

	require.Len(t, line.replies, 1)
	assert.Contains(t, line.replies[0], "알 수 없는 명령")
}

func TestServer_Help(t *testing.T) {
	srv, line, _ := newTestServer(t)

	postEvent(t, srv, "help")

	require.Len(t, line.replies, 1)
	assert.Contains(t, line.replies[0], "사용법")
}

func TestServer_RejectsInvalidSignature(t *testing.T) {
	line := &stubLine{signatures: false}
	subs := subscription.NewService(subscription.NewFileBackend(filepath.Join(t.TempDir(), "subs.json")))
	srv := NewServer(":0", line, subs)

	w := postEvent(t, srv, "add 2330")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, line.replies)
}

func TestServer_IgnoresNonTextEvents(t *testing.T) {
	srv, line, _ := newTestServer(t)

	body := `{
		"events": [{
			"type": "message",
			"replyToken": "token-1",
			"source": {"type": "user", "userId": "user1"},
			"message": {"type": "sticker", "packageId": "1"}
		}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", "sig")
	w := httptest.NewRecorder()
	srv.handleWebhook(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, line.replies)
}
