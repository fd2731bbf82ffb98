package indicator

import (
	"fmt"
	"math"
	"time"
)

// KDResult는 KD(스토캐스틱) 지표 계산 결과입니다.
// 계산 불가 구간(워밍업, 평탄 구간)의 K/D는 math.NaN()입니다
type KDResult struct {
	K         float64
	D         float64
	Timestamp time.Time
}

// GetTimestamp는 결과의 타임스탬프를 반환합니다 (Result 인터페이스 구현)
func (r KDResult) GetTimestamp() time.Time {
	return r.Timestamp
}

// IsDefined는 K/D가 모두 정의된 값인지 확인합니다
func (r KDResult) IsDefined() bool {
	return !math.IsNaN(r.K) && !math.IsNaN(r.D)
}

// KD는 재귀 평활 방식의 스토캐스틱 지표를 구현합니다.
// K는 RSV의 재귀 평균 K(i) = α·RSV(i) + (1−α)·K(i−1)이고 D는 K에 같은 필터를
// 적용한 값입니다. 시드는 첫 유효 RSV 자체입니다 (50으로 초기화하지 않음)
type KD struct {
	BaseIndicator
	Period int     // RSV 조회 기간
	Alpha  float64 // 평활 계수 (0 < α ≤ 1)
}

// NewKD는 새로운 KD 지표 인스턴스를 생성합니다
func NewKD(period int, alpha float64) *KD {
	return &KD{
		BaseIndicator: BaseIndicator{
			Name: fmt.Sprintf("KD(%d)", period),
			Config: map[string]interface{}{
				"Period": period,
				"Alpha":  alpha,
			},
		},
		Period: period,
		Alpha:  alpha,
	}
}

// Calculate는 주어진 가격 데이터에 대해 K/D를 계산합니다.
// 결과 길이는 입력 길이와 같고, 앞의 Period−1개는 항상 NaN입니다.
// 조회 구간의 고가와 저가가 같으면(평탄 구간) RSV가 정의되지 않으므로
// 해당 위치의 K는 NaN이 되고, 재귀는 다음 유효 RSV에서 다시 시드됩니다
func (k *KD) Calculate(prices []PriceData) ([]KDResult, error) {
	if err := k.validateInput(prices); err != nil {
		return nil, err
	}

	p := k.Period
	alpha := k.Alpha
	results := make([]KDResult, len(prices))

	kPrev := math.NaN()
	dPrev := math.NaN()

	for i := range prices {
		rsv := math.NaN()
		if i >= p-1 {
			highest := prices[i].High
			lowest := prices[i].Low
			for j := i - p + 1; j <= i; j++ {
				if prices[j].High > highest {
					highest = prices[j].High
				}
				if prices[j].Low < lowest {
					lowest = prices[j].Low
				}
			}
			// 분모가 0이면(평탄 구간) RSV는 0이 아니라 미정의
			if denom := highest - lowest; denom != 0 {
				rsv = 100 * (prices[i].Close - lowest) / denom
			}
		}

		var kVal float64
		switch {
		case math.IsNaN(rsv):
			kVal = math.NaN()
		case math.IsNaN(kPrev):
			// 첫 유효 RSV를 시드로 사용 (재시드 포함)
			kVal = rsv
		default:
			kVal = alpha*rsv + (1-alpha)*kPrev
		}
		kPrev = kVal

		var dVal float64
		switch {
		case math.IsNaN(kVal):
			dVal = math.NaN()
		case math.IsNaN(dPrev):
			dVal = kVal
		default:
			dVal = alpha*kVal + (1-alpha)*dPrev
		}
		dPrev = dVal

		results[i] = KDResult{K: kVal, D: dVal, Timestamp: prices[i].Time}
	}

	return results, nil
}

// validateInput은 입력 데이터가 유효한지 검증합니다
func (k *KD) validateInput(prices []PriceData) error {
	if k.Period < 2 {
		return &ValidationError{Field: "period", Err: fmt.Errorf("period must be >= 2")}
	}
	if k.Alpha <= 0 || k.Alpha > 1 {
		return &ValidationError{Field: "alpha", Err: fmt.Errorf("alpha must be in (0, 1]")}
	}
	if len(prices) == 0 {
		return &ValidationError{Field: "prices", Err: fmt.Errorf("가격 데이터가 비어있습니다")}
	}
	return nil
}
