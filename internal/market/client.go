package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	simplejson "github.com/bitly/go-simplejson"

	"github.com/assist-by/kdwatch/internal/domain"
)

// Client는 야후 파이낸스 차트 API 클라이언트를 구현합니다
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient는 새로운 차트 API 클라이언트를 생성합니다
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    "https://query1.finance.yahoo.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetCandles는 심볼의 봉 데이터를 조회합니다.
// 동일 타임스탬프 봉은 나중 값을 유지하며 제거되고, OHLC가 비어있는 행은
// 건너뜁니다. 데이터가 하나도 없으면 에러를 반환합니다
func (c *Client) GetCandles(ctx context.Context, symbol string, interval domain.Interval) (domain.CandleList, error) {
	if !interval.IsValid() {
		return nil, fmt.Errorf("지원하지 않는 간격: %s", interval)
	}

	params := url.Values{}
	params.Set("interval", string(interval))
	params.Set("range", interval.FetchRange())

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}
	// 기본 Go UA는 차단되는 경우가 있어 브라우저 UA를 사용
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("차트 조회 실패 (%s %s): %w", symbol, interval, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("차트 API 에러 (%s): status=%d body=%s",
			symbol, resp.StatusCode, truncate(string(body), 200))
	}

	return parseChart(body, symbol, interval)
}

// parseChart는 차트 API 응답을 봉 목록으로 변환합니다
func parseChart(body []byte, symbol string, interval domain.Interval) (domain.CandleList, error) {
	js, err := simplejson.NewJson(body)
	if err != nil {
		return nil, fmt.Errorf("차트 응답 파싱 실패: %w", err)
	}

	if chartErr := js.GetPath("chart", "error"); chartErr.Interface() != nil {
		return nil, fmt.Errorf("차트 API 에러 (%s): %s",
			symbol, chartErr.Get("description").MustString("unknown"))
	}

	result := js.GetPath("chart", "result").GetIndex(0)
	timestamps := result.Get("timestamp")
	tsArr, err := timestamps.Array()
	if err != nil || len(tsArr) == 0 {
		return nil, fmt.Errorf("no data for %s %s", symbol, interval)
	}

	quote := result.GetPath("indicators", "quote").GetIndex(0)
	opens := quote.Get("open")
	highs := quote.Get("high")
	lows := quote.Get("low")
	closes := quote.Get("close")
	volumes := quote.Get("volume")

	candles := make(domain.CandleList, 0, len(tsArr))
	for i := range tsArr {
		ts, err := timestamps.GetIndex(i).Int64()
		if err != nil {
			continue
		}

		high, errH := highs.GetIndex(i).Float64()
		low, errL := lows.GetIndex(i).Float64()
		closePx, errC := closes.GetIndex(i).Float64()
		if errH != nil || errL != nil || errC != nil {
			// 미체결/휴장 행은 null로 내려오므로 건너뜀
			continue
		}

		openPx, err := opens.GetIndex(i).Float64()
		if err != nil {
			openPx = closePx
		}
		volume, _ := volumes.GetIndex(i).Float64()

		candles = append(candles, domain.Candle{
			OpenTime: time.Unix(ts, 0).UTC(),
			Open:     openPx,
			High:     high,
			Low:      low,
			Close:    closePx,
			Volume:   volume,
			Symbol:   symbol,
			Interval: interval,
		})
	}

	candles = candles.Dedupe()
	if len(candles) == 0 {
		return nil, fmt.Errorf("no data for %s %s", symbol, interval)
	}
	return candles, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
