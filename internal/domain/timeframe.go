package domain

// Interval은 봉의 시간 간격을 정의합니다
type Interval string

const (
	IntervalDaily  Interval = "1d"  // 일봉
	IntervalWeekly Interval = "1wk" // 주봉
)

// FetchRange는 해당 간격의 조회 기간을 반환합니다.
// 주봉 MA 계산에는 긴 이력이 필요하므로 주봉은 10년을 조회합니다
func (i Interval) FetchRange() string {
	switch i {
	case IntervalWeekly:
		return "10y"
	default:
		return "2y"
	}
}

// IsValid는 지원하는 간격인지 확인합니다
func (i Interval) IsValid() bool {
	return i == IntervalDaily || i == IntervalWeekly
}
