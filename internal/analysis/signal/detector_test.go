package signal

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/assist-by/kdwatch/internal/domain"
	"github.com/assist-by/kdwatch/internal/indicator"
)

// 테스트용 감지기 설정. High=100/Low=0 고정 봉을 쓰면 RSV가 종가와 같아져서
// K/D를 종가 시퀀스로 직접 제어할 수 있다
func newTestDetector(store Store) *Detector {
	loc, _ := time.LoadLocation("Asia/Taipei")
	return NewDetector(DetectorConfig{
		KPeriod:  9,
		Alpha:    1.0 / 3.0,
		DailyMA:  20,
		WeeklyMA: 20,
		Location: loc,
	}, store)
}

// closesToPrices는 종가 시퀀스를 High=100/Low=0 봉으로 변환합니다
func closesToPrices(closes []float64, step time.Duration) []indicator.PriceData {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]indicator.PriceData, len(closes))
	for i, c := range closes {
		prices[i] = indicator.PriceData{
			Time:  baseTime.Add(time.Duration(i) * step),
			Open:  c,
			High:  100,
			Low:   0,
			Close: c,
		}
	}
	return prices
}

func constantCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

const day = 24 * time.Hour
const week = 7 * day

// 진입 시나리오용 시리즈: 오래 20에 머물다 마지막 봉에서 90으로 급등.
// 직전 K=D=20, 마지막 K=43.3 > D=27.8 (골든크로스), 종가 90 > MA20=23.5
func entryDaily() []indicator.PriceData {
	return closesToPrices(append(constantCloses(29, 20), 90), day)
}

// 감량 시나리오용 시리즈: 오래 80에 머물다 마지막 봉에서 10으로 급락.
// 직전 K=D=80, 마지막 K=56.7 < D=72.2 (데드크로스)
func reduceDaily() []indicator.PriceData {
	return closesToPrices(append(constantCloses(29, 80), 10), day)
}

// 주봉 필터 충족 시리즈: 55에 머물다 완성봉(끝에서 두 번째)에서 85로 상승.
// 완성봉 K=65 > D=58.3, K>=50, 종가 85 > MA20=56.5
func weeklyOn() []indicator.PriceData {
	return closesToPrices(append(constantCloses(40, 55), 85, 80), week)
}

// 주봉 필터 이탈 시리즈: 40 고정 -> K=D이므로 K>D 불충족
func weeklyOff() []indicator.PriceData {
	return closesToPrices(constantCloses(42, 40), week)
}

type stubStore struct {
	saves int
	err   error
}

func (s *stubStore) Save(states map[string]*domain.SymbolState) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	return nil
}

func TestDetector_Entry(t *testing.T) {
	store := &stubStore{}
	d := newTestDetector(store)
	states := make(map[string]*domain.SymbolState)

	alerts, cond, err := d.Evaluate("2330.TW", entryDaily(), weeklyOn(), states)
	if err != nil {
		t.Fatalf("평가 실패: %v", err)
	}

	if !cond.WeeklyOK || !cond.EntryCross || !cond.DailyTrendOK {
		t.Fatalf("조건 불충족: weekly_ok=%v entry_cross=%v trend_ok=%v",
			cond.WeeklyOK, cond.EntryCross, cond.DailyTrendOK)
	}
	if len(alerts) != 1 || alerts[0].Type != domain.Entry {
		t.Fatalf("진입 알림 1개 기대, 실제 %d개: %+v", len(alerts), alerts)
	}

	state := states["2330.TW"]
	if state.Position != domain.PositionLong {
		t.Errorf("진입 후 포지션은 long이어야 합니다: %s", state.Position)
	}
	if state.LastEntry == "" {
		t.Errorf("진입 시각이 기록되어야 합니다")
	}
	if store.saves != 1 {
		t.Errorf("저장 1회 기대, 실제 %d회", store.saves)
	}
}

func TestDetector_EntryOnlyFromFlat(t *testing.T) {
	store := &stubStore{}
	d := newTestDetector(store)
	states := make(map[string]*domain.SymbolState)

	// 첫 평가: 진입
	if _, _, err := d.Evaluate("2330.TW", entryDaily(), weeklyOn(), states); err != nil {
		t.Fatalf("평가 실패: %v", err)
	}

	// 같은 입력으로 재평가: 이미 long이므로 추가 진입도 상태 변이도 없어야 한다
	alerts, _, err := d.Evaluate("2330.TW", entryDaily(), weeklyOn(), states)
	if err != nil {
		t.Fatalf("재평가 실패: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("재평가에서 알림이 없어야 합니다: %+v", alerts)
	}
	if store.saves != 1 {
		t.Errorf("저장 1회 기대, 실제 %d회", store.saves)
	}
	if states["2330.TW"].Position != domain.PositionLong {
		t.Errorf("포지션이 유지되어야 합니다")
	}
}

func TestDetector_ReduceOncePerDate(t *testing.T) {
	store := &stubStore{}
	d := newTestDetector(store)
	states := map[string]*domain.SymbolState{
		"2330.TW": {Position: domain.PositionLong, Alerts: map[string]bool{}},
	}

	daily := reduceDaily()
	alerts, cond, err := d.Evaluate("2330.TW", daily, weeklyOn(), states)
	if err != nil {
		t.Fatalf("평가 실패: %v", err)
	}

	if !cond.ExitCross {
		t.Fatalf("데드크로스가 감지되어야 합니다: K=%.2f D=%.2f", cond.DailyK, cond.DailyD)
	}
	if len(alerts) != 1 || alerts[0].Type != domain.Reduce {
		t.Fatalf("감량 알림 1개 기대, 실제 %+v", alerts)
	}

	wantKey := "daily_exit@" + cond.DailyTime.In(time.FixedZone("CST", 8*3600)).Format("2006-01-02")
	if alerts[0].Key != wantKey {
		t.Errorf("멱등 키 기대 %s, 실제 %s", wantKey, alerts[0].Key)
	}
	if states["2330.TW"].Position != domain.PositionLong {
		t.Errorf("감량은 포지션을 바꾸지 않아야 합니다")
	}

	// 같은 날짜 데이터로 재실행: 두 번째 감량은 없어야 한다
	alerts, _, err = d.Evaluate("2330.TW", daily, weeklyOn(), states)
	if err != nil {
		t.Fatalf("재평가 실패: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("재실행에서 감량이 중복 발송되었습니다: %+v", alerts)
	}
	if store.saves != 1 {
		t.Errorf("저장 1회 기대, 실제 %d회", store.saves)
	}
}

func TestDetector_ExitOnWeeklyOff(t *testing.T) {
	store := &stubStore{}
	d := newTestDetector(store)
	states := map[string]*domain.SymbolState{
		"2330.TW": {Position: domain.PositionLong, Alerts: map[string]bool{}},
	}

	// 일봉은 횡보(크로스 없음), 주봉 필터 이탈
	daily := closesToPrices(constantCloses(30, 80), day)
	alerts, cond, err := d.Evaluate("2330.TW", daily, weeklyOff(), states)
	if err != nil {
		t.Fatalf("평가 실패: %v", err)
	}

	if cond.WeeklyOK {
		t.Fatalf("주봉 필터가 이탈 상태여야 합니다")
	}
	if len(alerts) != 1 || alerts[0].Type != domain.Exit {
		t.Fatalf("청산 알림 1개 기대, 실제 %+v", alerts)
	}
	if states["2330.TW"].Position != domain.PositionFlat {
		t.Errorf("청산 후 포지션은 flat이어야 합니다")
	}

	// 재실행: flat이므로 추가 청산 없음
	alerts, _, err = d.Evaluate("2330.TW", daily, weeklyOff(), states)
	if err != nil {
		t.Fatalf("재평가 실패: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("재실행에서 청산이 중복 발송되었습니다: %+v", alerts)
	}
}

func TestDetector_ReduceAndExitSamePass(t *testing.T) {
	store := &stubStore{}
	d := newTestDetector(store)
	states := map[string]*domain.SymbolState{
		"2330.TW": {Position: domain.PositionLong, Alerts: map[string]bool{}},
	}

	// 데드크로스와 주봉 필터 이탈이 같은 평가에서 겹치면 둘 다 발생한다
	alerts, _, err := d.Evaluate("2330.TW", reduceDaily(), weeklyOff(), states)
	if err != nil {
		t.Fatalf("평가 실패: %v", err)
	}

	if len(alerts) != 2 {
		t.Fatalf("감량+청산 2개 기대, 실제 %d개: %+v", len(alerts), alerts)
	}
	if alerts[0].Type != domain.Reduce || alerts[1].Type != domain.Exit {
		t.Errorf("알림 순서 기대 [REDUCE, EXIT], 실제 [%s, %s]", alerts[0].Type, alerts[1].Type)
	}
	if states["2330.TW"].Position != domain.PositionFlat {
		t.Errorf("청산 후 포지션은 flat이어야 합니다")
	}
	if store.saves != 2 {
		t.Errorf("알림마다 즉시 저장되어야 합니다: 기대 2회, 실제 %d회", store.saves)
	}
}

func TestDetector_InsufficientData(t *testing.T) {
	store := &stubStore{}
	d := newTestDetector(store)
	states := make(map[string]*domain.SymbolState)

	// 기간보다 짧은 일봉 시리즈
	daily := closesToPrices(constantCloses(5, 50), day)
	_, _, err := d.Evaluate("2330.TW", daily, weeklyOn(), states)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("ErrInsufficientData 기대, 실제 %v", err)
	}
	if store.saves != 0 {
		t.Errorf("데이터 부족 시 저장이 없어야 합니다")
	}
}

func TestDetector_PersistFailure(t *testing.T) {
	store := &stubStore{err: fmt.Errorf("disk full")}
	d := newTestDetector(store)
	states := make(map[string]*domain.SymbolState)

	// 저장 실패 시 알림은 전달되지 않고 상태 변이는 되돌려져야 한다
	alerts, _, err := d.Evaluate("2330.TW", entryDaily(), weeklyOn(), states)
	if err == nil {
		t.Fatalf("저장 실패가 전파되어야 합니다")
	}
	if len(alerts) != 0 {
		t.Errorf("저장 실패 시 알림이 없어야 합니다: %+v", alerts)
	}
	if states["2330.TW"].Position != domain.PositionFlat {
		t.Errorf("저장 실패 시 포지션이 되돌려져야 합니다: %s", states["2330.TW"].Position)
	}
}
