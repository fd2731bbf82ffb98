package signal

import "github.com/assist-by/kdwatch/internal/domain"

// Store는 심볼 상태 저장소를 정의합니다.
// Save는 원자적 교체(임시 파일 작성 후 rename)를 보장해야 합니다
type Store interface {
	Save(states map[string]*domain.SymbolState) error
}

// ensureState는 심볼별 상태를 가져오고, 없으면 초기 상태를 생성합니다
func ensureState(states map[string]*domain.SymbolState, symbol string) *domain.SymbolState {
	state, exists := states[symbol]
	if !exists || state == nil {
		state = domain.NewSymbolState()
		states[symbol] = state
	}
	if state.Alerts == nil {
		state.Alerts = make(map[string]bool)
	}
	return state
}
