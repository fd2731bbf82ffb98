package indicator

import "math"

// SMA는 단순이동평균을 계산합니다.
// 결과 길이는 입력 길이와 같고, 값이 period개 미만인 앞 구간은 NaN입니다
// (파이썬 rolling(n, min_periods=n).mean()과 동일)
func SMA(values []float64, period int) []float64 {
	results := make([]float64, len(values))

	if period <= 0 {
		for i := range results {
			results[i] = math.NaN()
		}
		return results
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			results[i] = sum / float64(period)
		} else {
			results[i] = math.NaN()
		}
	}
	return results
}

// LastSMA는 이동평균의 마지막 값을 반환합니다.
// 데이터가 부족하면 NaN을 반환합니다
func LastSMA(values []float64, period int) float64 {
	results := SMA(values, period)
	if len(results) == 0 {
		return math.NaN()
	}
	return results[len(results)-1]
}
