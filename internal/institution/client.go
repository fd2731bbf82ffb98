package institution

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	simplejson "github.com/bitly/go-simplejson"
)

// Flow는 하루치 삼대법인 매매 동향(순매수 주수)을 담습니다
type Flow struct {
	Symbol  string
	Date    string // YYYY-MM-DD
	Foreign int64  // 외국인 (외자 자영업자 제외)
	Trust   int64  // 투신
	Dealer  int64  // 자영상
	Total   int64  // 삼대법인 합계
}

// Client는 대만증권거래소(TWSE)의 T86 일별 기관 매매 자료를 조회합니다.
// 하루치 전체 응답을 날짜별 파일로 캐시해 같은 날 반복 조회를 막습니다
type Client struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
}

// ClientOption은 TWSE 클라이언트 옵션을 정의합니다
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

// NewClient는 새로운 TWSE 클라이언트를 생성합니다
func NewClient(cacheDir string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  "https://www.twse.com.tw",
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// T86 응답의 컬럼 헤더 (중국어 원문 그대로 매칭)
const (
	fieldSymbol  = "證券代號"
	fieldForeign = "外陸資買賣超股數(不含外資自營商)"
	fieldTrust   = "投信買賣超股數"
	fieldDealer  = "自營商買賣超股數"
	fieldTotal   = "三大法人買賣超股數"
)

// GetFlow는 지정 날짜의 심볼별 기관 매매 동향을 조회합니다.
// 해당 날짜에 자료가 없거나 심볼이 목록에 없으면 (nil, nil)을 반환해
// 호출자가 주석 없이 알림을 보낼 수 있게 합니다
func (c *Client) GetFlow(ctx context.Context, symbol string, date time.Time) (*Flow, error) {
	data, err := c.fetchDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	ticker := strings.TrimSuffix(strings.TrimSuffix(symbol, ".TW"), ".TWO")
	row, ok := data[ticker]
	if !ok {
		return nil, nil
	}
	row.Symbol = symbol
	row.Date = date.Format("2006-01-02")
	return &row, nil
}

// fetchDay는 하루치 T86 전체 테이블을 조회합니다 (캐시 우선).
// 휴장일 등으로 자료가 없으면 (nil, nil)을 반환합니다
func (c *Client) fetchDay(ctx context.Context, date time.Time) (map[string]Flow, error) {
	dateStr := date.Format("20060102")

	if cached, err := c.readCache(dateStr); err == nil && cached != nil {
		return parseT86(cached)
	}

	url := fmt.Sprintf("%s/rwd/zh/fund/T86?date=%s&selectType=All&response=json", c.baseURL, dateStr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("T86 요청 생성 실패: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("T86 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("T86 API 응답 에러 (상태 코드: %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("T86 응답 읽기 실패: %w", err)
	}

	flows, err := parseT86(body)
	if err != nil {
		return nil, err
	}
	if flows != nil {
		c.writeCache(dateStr, body)
	}
	return flows, nil
}

func (c *Client) cachePath(dateStr string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("twse_T86_%s.json", dateStr))
}

func (c *Client) readCache(dateStr string) ([]byte, error) {
	if c.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(c.cachePath(dateStr))
}

func (c *Client) writeCache(dateStr string, body []byte) {
	if c.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return
	}
	// 캐시 실패는 치명적이지 않으므로 에러를 무시한다
	_ = os.WriteFile(c.cachePath(dateStr), body, 0o644)
}

// parseT86은 T86 JSON을 심볼(티커) -> Flow 맵으로 변환합니다.
// stat이 "OK"가 아니면 해당 날짜에 자료가 없는 것이므로 (nil, nil)
func parseT86(body []byte) (map[string]Flow, error) {
	js, err := simplejson.NewJson(body)
	if err != nil {
		return nil, fmt.Errorf("T86 JSON 파싱 실패: %w", err)
	}

	if stat := js.Get("stat").MustString(); stat != "OK" {
		return nil, nil
	}

	fields, err := js.Get("fields").StringArray()
	if err != nil {
		return nil, fmt.Errorf("T86 필드 목록 파싱 실패: %w", err)
	}
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	for _, required := range []string{fieldSymbol, fieldForeign, fieldTrust, fieldDealer, fieldTotal} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("T86 응답에 %q 컬럼이 없습니다", required)
		}
	}

	rows := js.Get("data").MustArray()
	flows := make(map[string]Flow, len(rows))
	for i := range rows {
		row := js.Get("data").GetIndex(i)
		ticker := strings.TrimSpace(row.GetIndex(idx[fieldSymbol]).MustString())
		if ticker == "" {
			continue
		}
		flows[ticker] = Flow{
			Foreign: parseShares(row.GetIndex(idx[fieldForeign]).MustString()),
			Trust:   parseShares(row.GetIndex(idx[fieldTrust]).MustString()),
			Dealer:  parseShares(row.GetIndex(idx[fieldDealer]).MustString()),
			Total:   parseShares(row.GetIndex(idx[fieldTotal]).MustString()),
		}
	}
	return flows, nil
}

// parseShares는 "1,234,567" / "-12,345" / "--" 형식의 주수를 정수로 변환합니다.
// 파싱할 수 없는 값은 0으로 처리합니다
func parseShares(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatLine은 알림 메시지에 덧붙일 한 줄 요약을 만듭니다
func (f *Flow) FormatLine() string {
	return fmt.Sprintf("법인동향(%s): 외국인 %s주 / 투신 %s주 / 자영상 %s주 / 합계 %s주",
		f.Date, signedComma(f.Foreign), signedComma(f.Trust), signedComma(f.Dealer), signedComma(f.Total))
}

// signedComma는 부호를 유지하며 천 단위 쉼표를 넣습니다
func signedComma(v int64) string {
	sign := ""
	if v > 0 {
		sign = "+"
	} else if v < 0 {
		sign = "-"
		v = -v
	}

	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	b.WriteString(sign)
	offset := len(digits) % 3
	if offset > 0 {
		b.WriteString(digits[:offset])
		if len(digits) > offset {
			b.WriteString(",")
		}
	}
	for i := offset; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(",")
		}
	}
	return b.String()
}
