package market

import (
	"time"

	"github.com/assist-by/kdwatch/internal/domain"
)

// 일봉 확정 기준 시각. 대만 증시는 13:30에 마감하고 종가 확정에 몇 분이
// 더 걸리므로 13:35 이전에는 당일 봉을 진행 중으로 취급합니다
const (
	settleHour   = 13
	settleMinute = 35
)

// LastCompletedDaily는 일봉 시리즈에서 확정된 봉까지만 남깁니다.
// 마지막 봉의 날짜가 거래 지역 기준 오늘이고 현재 시각이 확정 기준 이전이면
// 마지막 봉(진행 중)을 제거합니다
func LastCompletedDaily(candles domain.CandleList, now time.Time, loc *time.Location) domain.CandleList {
	if len(candles) == 0 {
		return candles
	}

	localNow := now.In(loc)
	lastDate := candles[len(candles)-1].OpenTime.In(loc)

	sameDay := lastDate.Year() == localNow.Year() &&
		lastDate.Month() == localNow.Month() &&
		lastDate.Day() == localNow.Day()
	beforeSettle := localNow.Hour() < settleHour ||
		(localNow.Hour() == settleHour && localNow.Minute() < settleMinute)

	if sameDay && beforeSettle {
		return candles[:len(candles)-1]
	}
	return candles
}

// MinRequiredBars는 지표 계산에 필요한 최소 봉 개수를 반환합니다.
// 크로스 판정에 직전 행이 필요하므로 각 기간에 2를 더한 값의 최댓값입니다
func MinRequiredBars(maPeriod, kdPeriod int) int {
	need := maPeriod + 2
	if kdPeriod+2 > need {
		need = kdPeriod + 2
	}
	return need
}
