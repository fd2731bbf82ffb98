package domain

// AlertType은 알림 유형을 정의합니다
type AlertType int

const (
	NoAlert AlertType = iota
	Entry             // 신규 진입
	Reduce            // 부분 감량
	Exit              // 전량 청산
)

// String은 알림 유형의 문자열 표현을 반환합니다
func (t AlertType) String() string {
	switch t {
	case Entry:
		return "ENTRY"
	case Reduce:
		return "REDUCE"
	case Exit:
		return "EXIT"
	default:
		return "NONE"
	}
}

// Position은 심볼의 보유 상태를 정의합니다
type Position string

const (
	PositionFlat Position = "flat" // 미보유
	PositionLong Position = "long" // 보유 중
)

// SymbolState는 심볼별로 영속화되는 상태입니다.
// Alerts는 멱등 키("daily_exit@YYYY-MM-DD" 등)별 발송 여부를 기록하며
// 한 번 발송된 키는 다시 발송되지 않습니다
type SymbolState struct {
	Position  Position        `json:"position"`
	Alerts    map[string]bool `json:"alerts"`
	LastEntry string          `json:"last_entry,omitempty"`
}

// NewSymbolState는 초기 상태(미보유, 알림 기록 없음)를 생성합니다
func NewSymbolState() *SymbolState {
	return &SymbolState{
		Position: PositionFlat,
		Alerts:   make(map[string]bool),
	}
}

// Alerted는 해당 키의 알림이 이미 발송되었는지 확인합니다
func (s *SymbolState) Alerted(key string) bool {
	return s.Alerts[key]
}

// MarkAlerted는 해당 키의 알림을 발송됨으로 기록합니다
func (s *SymbolState) MarkAlerted(key string) {
	if s.Alerts == nil {
		s.Alerts = make(map[string]bool)
	}
	s.Alerts[key] = true
}
