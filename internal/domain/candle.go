package domain

import (
	"sort"
	"time"
)

// Candle은 하나의 봉 데이터를 표현합니다
type Candle struct {
	OpenTime time.Time // 봉 시작 시간
	Open     float64   // 시가
	High     float64   // 고가
	Low      float64   // 저가
	Close    float64   // 종가
	Volume   float64   // 거래량
	Symbol   string    // 심볼 (예: 2330.TW)
	Interval Interval  // 시간 간격 (1d, 1wk)
}

// CandleList는 봉 데이터 목록입니다. 시간 오름차순 정렬을 전제로 합니다
type CandleList []Candle

// LastCandle은 가장 최근 봉을 반환합니다
func (cl CandleList) LastCandle() (Candle, bool) {
	if len(cl) == 0 {
		return Candle{}, false
	}
	return cl[len(cl)-1], true
}

// Closes는 종가 목록을 반환합니다
func (cl CandleList) Closes() []float64 {
	closes := make([]float64, len(cl))
	for i, c := range cl {
		closes[i] = c.Close
	}
	return closes
}

// Dedupe는 시간 오름차순으로 정렬하고 동일 타임스탬프 봉을 제거합니다.
// 중복이 있으면 나중에 받은 봉을 유지합니다
func (cl CandleList) Dedupe() CandleList {
	if len(cl) == 0 {
		return cl
	}

	sorted := make(CandleList, len(cl))
	copy(sorted, cl)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpenTime.Before(sorted[j].OpenTime)
	})

	out := make(CandleList, 0, len(sorted))
	for _, c := range sorted {
		if n := len(out); n > 0 && out[n-1].OpenTime.Equal(c.OpenTime) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
