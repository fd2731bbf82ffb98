package market

import (
	"testing"
	"time"

	"github.com/assist-by/kdwatch/internal/domain"
)

func taipeiLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("타임존 로드 실패: %v", err)
	}
	return loc
}

func dailyCandles(loc *time.Location, days int) domain.CandleList {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	candles := make(domain.CandleList, days)
	for i := 0; i < days; i++ {
		candles[i] = domain.Candle{
			OpenTime: base.AddDate(0, 0, i),
			Open:     100, High: 105, Low: 95, Close: 102,
			Interval: domain.IntervalDaily,
		}
	}
	return candles
}

func TestLastCompletedDaily(t *testing.T) {
	loc := taipeiLocation(t)
	candles := dailyCandles(loc, 5) // 마지막 봉: 2024-03-08

	testCases := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{"확정 전(당일 오전)", time.Date(2024, 3, 8, 10, 0, 0, 0, loc), 4},
		{"확정 직전(13:34)", time.Date(2024, 3, 8, 13, 34, 0, 0, loc), 4},
		{"확정 직후(13:35)", time.Date(2024, 3, 8, 13, 35, 0, 0, loc), 5},
		{"다음 날", time.Date(2024, 3, 9, 9, 0, 0, 0, loc), 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LastCompletedDaily(candles, tc.now, loc)
			if len(got) != tc.expected {
				t.Errorf("봉 개수 기대 %d, 실제 %d", tc.expected, len(got))
			}
		})
	}
}

func TestLastCompletedDaily_Empty(t *testing.T) {
	loc := taipeiLocation(t)
	got := LastCompletedDaily(nil, time.Now(), loc)
	if len(got) != 0 {
		t.Errorf("빈 입력은 빈 결과여야 합니다")
	}
}

func TestMinRequiredBars(t *testing.T) {
	if got := MinRequiredBars(20, 9); got != 22 {
		t.Errorf("기대 22, 실제 %d", got)
	}
	if got := MinRequiredBars(5, 9); got != 11 {
		t.Errorf("기대 11, 실제 %d", got)
	}
}
