package webhook

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	simplejson "github.com/bitly/go-simplejson"

	"github.com/assist-by/kdwatch/internal/subscription"
)

// LineAPI는 웹훅 서버가 필요로 하는 LINE 클라이언트 기능을 정의합니다
type LineAPI interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	VerifySignature(body []byte, signature string) bool
}

// Server는 LINE 웹훅을 받아 구독 명령을 처리하는 HTTP 서버입니다
type Server struct {
	addr string
	line LineAPI
	subs *subscription.Service
	srv  *http.Server
}

// NewServer는 새로운 웹훅 서버를 생성합니다
func NewServer(addr string, line LineAPI, subs *subscription.Service) *Server {
	s := &Server{
		addr: addr,
		line: line,
		subs: subs,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/webhook", s.handleWebhook)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start는 서버를 시작하고 컨텍스트 취소 시 안전하게 종료합니다
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("웹훅 서버 시작: %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("웹훅 서버 실행 실패: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !s.line.VerifySignature(body, r.Header.Get("X-Line-Signature")) {
		log.Printf("웹훅 서명 검증 실패")
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	js, err := simplejson.NewJson(body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	events := js.Get("events").MustArray()
	for i := range events {
		event := js.Get("events").GetIndex(i)
		if event.Get("type").MustString() != "message" {
			continue
		}
		if event.Get("message").Get("type").MustString() != "text" {
			continue
		}

		userID := event.Get("source").Get("userId").MustString()
		replyToken := event.Get("replyToken").MustString()
		text := event.Get("message").Get("text").MustString()

		reply := s.handleCommand(r.Context(), userID, text)
		if reply == "" {
			continue
		}
		if err := s.line.ReplyText(r.Context(), replyToken, reply); err != nil {
			log.Printf("답장 전송 실패 (user=%s): %v", userID, err)
		}
	}

	// LINE 플랫폼에는 항상 200을 돌려준다 (재전송 폭주 방지)
	w.WriteHeader(http.StatusOK)
}

// handleCommand는 사용자 메시지를 구독 명령으로 해석하고 답장 텍스트를 만듭니다
func (s *Server) handleCommand(ctx context.Context, userID, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "add", "추가", "구독":
		if len(args) == 0 {
			return "추가할 심볼을 함께 입력해주세요. 예: add 2330 2603"
		}
		return s.cmdAdd(ctx, userID, args)

	case "remove", "rm", "삭제", "해지":
		if len(args) == 0 {
			return "삭제할 심볼을 함께 입력해주세요. 예: remove 2330"
		}
		return s.cmdRemove(ctx, userID, args)

	case "list", "ls", "목록":
		return s.cmdList(ctx, userID)

	case "clear", "초기화":
		return s.cmdClear(ctx, userID)

	case "help", "도움말", "?":
		return helpText

	default:
		// 명령어 없이 심볼만 나열하면 추가로 처리한다
		if allSymbols(fields) {
			return s.cmdAdd(ctx, userID, fields)
		}
		return "알 수 없는 명령입니다. 'help'를 입력하면 사용법을 볼 수 있습니다."
	}
}

func allSymbols(fields []string) bool {
	for _, f := range fields {
		if !subscription.IsValidSymbol(subscription.EnsureTWSuffix(f)) {
			return false
		}
	}
	return true
}

func (s *Server) cmdAdd(ctx context.Context, userID string, symbols []string) string {
	added, skipped, err := s.subs.Add(ctx, userID, symbols)
	if err != nil {
		log.Printf("구독 추가 실패 (user=%s): %v", userID, err)
		return "구독 추가 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	}

	var b strings.Builder
	if len(added) > 0 {
		b.WriteString(fmt.Sprintf("구독 추가: %s", strings.Join(added, ", ")))
	} else {
		b.WriteString("새로 추가된 심볼이 없습니다.")
	}
	if len(skipped) > 0 {
		b.WriteString(fmt.Sprintf("\n형식 오류로 건너뜀: %s", strings.Join(skipped, ", ")))
	}
	return b.String()
}

func (s *Server) cmdRemove(ctx context.Context, userID string, symbols []string) string {
	removed, err := s.subs.Remove(ctx, userID, symbols)
	if err != nil {
		log.Printf("구독 삭제 실패 (user=%s): %v", userID, err)
		return "구독 삭제 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	}
	if len(removed) == 0 {
		return "삭제된 심볼이 없습니다."
	}
	return fmt.Sprintf("구독 삭제: %s", strings.Join(removed, ", "))
}

func (s *Server) cmdList(ctx context.Context, userID string) string {
	symbols, err := s.subs.List(ctx, userID)
	if err != nil {
		log.Printf("구독 목록 조회 실패 (user=%s): %v", userID, err)
		return "구독 목록 조회 중 오류가 발생했습니다."
	}
	if len(symbols) == 0 {
		return "구독 중인 심볼이 없습니다. 'add 2330'처럼 추가해보세요."
	}
	return fmt.Sprintf("구독 중인 심볼 (%d개):\n%s", len(symbols), strings.Join(symbols, "\n"))
}

func (s *Server) cmdClear(ctx context.Context, userID string) string {
	n, err := s.subs.Clear(ctx, userID)
	if err != nil {
		log.Printf("구독 초기화 실패 (user=%s): %v", userID, err)
		return "구독 초기화 중 오류가 발생했습니다."
	}
	return fmt.Sprintf("구독 %d개를 모두 삭제했습니다.", n)
}

const helpText = `KD 알림 봇 사용법
add 2330 2603 — 심볼 구독 추가 (.TW는 자동으로 붙습니다)
remove 2330 — 구독 삭제
list — 구독 목록
clear — 구독 전체 삭제
심볼만 입력해도 추가로 처리됩니다`
