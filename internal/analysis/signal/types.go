package signal

import (
	"time"

	"github.com/assist-by/kdwatch/internal/domain"
)

// Conditions는 한 번의 평가에서 계산된 조건과 지표 값을 저장합니다.
// 알림이 발생하지 않아도 진단용으로 관찰할 수 있습니다
type Conditions struct {
	WeeklyOK     bool // 주봉 필터 충족 여부 (K>D, K>=50, 종가>주MA)
	EntryCross   bool // 일봉 골든크로스 여부
	ExitCross    bool // 일봉 데드크로스 여부
	DailyTrendOK bool // 일봉 종가 > 일MA 여부

	DailyK     float64
	DailyD     float64
	DailyClose float64
	DailyMA    float64

	WeeklyK     float64
	WeeklyD     float64
	WeeklyClose float64
	WeeklyMA    float64

	DailyTime  time.Time // 마지막 확정 일봉 시각
	WeeklyTime time.Time // 완성 주봉 시각

	DailyMAPeriod  int
	WeeklyMAPeriod int
}

// Alert는 발생한 알림 정보를 담습니다
type Alert struct {
	Type       domain.AlertType
	Symbol     string
	Key        string // 멱등 키 (진입 알림은 포지션 상태로 중복을 막으므로 비어있음)
	Conditions Conditions
}
