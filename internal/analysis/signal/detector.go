package signal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/assist-by/kdwatch/internal/domain"
	"github.com/assist-by/kdwatch/internal/indicator"
)

// ErrInsufficientData는 평가에 필요한 KD 행이 부족한 경우를 나타냅니다.
// 호출자는 해당 심볼을 건너뛰고 계속 진행해야 합니다
var ErrInsufficientData = errors.New("지표 계산에 필요한 데이터가 부족합니다")

// DetectorConfig는 시그널 감지기 설정을 정의합니다
type DetectorConfig struct {
	KPeriod  int     // KD 조회 기간 (기본값: 9)
	Alpha    float64 // 평활 계수 (기본값: 1/3)
	DailyMA  int     // 일봉 이동평균 기간 (기본값: 20)
	WeeklyMA int     // 주봉 이동평균 기간 (기본값: 20)

	Location *time.Location // 거래 지역 타임존 (멱등 키 날짜 계산에 사용)
}

// Detector는 일봉/주봉 KD를 결합해 진입/감량/청산을 판정하는
// 시그널 감지기를 정의합니다. 상태 저장소의 소유권은 감지기에 있습니다
type Detector struct {
	kd       *indicator.KD
	dailyMA  int
	weeklyMA int
	loc      *time.Location
	store    Store
}

// NewDetector는 새로운 시그널 감지기를 생성합니다
func NewDetector(config DetectorConfig, store Store) *Detector {
	return &Detector{
		kd:       indicator.NewKD(config.KPeriod, config.Alpha),
		dailyMA:  config.DailyMA,
		weeklyMA: config.WeeklyMA,
		loc:      config.Location,
		store:    store,
	}
}

// kdRow는 K/D가 정의된 봉 하나를 표현합니다
type kdRow struct {
	time  time.Time
	close float64
	k     float64
	d     float64
}

// definedRows는 KD를 계산하고 K/D가 정의된 행만 남깁니다
func (d *Detector) definedRows(prices []indicator.PriceData) ([]kdRow, error) {
	results, err := d.kd.Calculate(prices)
	if err != nil {
		return nil, err
	}

	rows := make([]kdRow, 0, len(results))
	for i, r := range results {
		if !r.IsDefined() {
			continue
		}
		rows = append(rows, kdRow{
			time:  r.Timestamp,
			close: prices[i].Close,
			k:     r.K,
			d:     r.D,
		})
	}
	return rows, nil
}

func closes(rows []kdRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.close
	}
	return out
}

// dateKey는 봉 시각을 거래 지역 타임존의 날짜 문자열로 변환합니다
func (d *Detector) dateKey(t time.Time) string {
	return t.In(d.loc).Format("2006-01-02")
}

// Evaluate는 확정된 일봉/주봉 시리즈와 심볼 상태로부터 알림을 판정합니다.
// 규칙은 진입 → 감량 → 청산 순서로 평가하며, 진입이 발생하면 같은 평가에서
// 감량/청산은 보지 않습니다. 감량과 청산은 독립적이라 동시에 발생할 수 있습니다.
//
// 알림이 발생할 때마다 상태를 먼저 영속화하고, 저장에 성공한 알림만
// 반환합니다(저장 실패 시 해당 변이는 되돌리고 에러 반환). 같은 입력으로
// 다시 호출해도 추가 알림이나 상태 변이는 발생하지 않습니다
func (d *Detector) Evaluate(symbol string, daily, weekly []indicator.PriceData, states map[string]*domain.SymbolState) ([]Alert, Conditions, error) {
	var cond Conditions

	dailyRows, err := d.definedRows(daily)
	if err != nil {
		return nil, cond, fmt.Errorf("일봉 KD 계산 실패: %w", err)
	}
	if len(dailyRows) < 2 {
		return nil, cond, fmt.Errorf("%w: 일봉 KD 행 %d개 (최소 2개 필요)", ErrInsufficientData, len(dailyRows))
	}

	weeklyRows, err := d.definedRows(weekly)
	if err != nil {
		return nil, cond, fmt.Errorf("주봉 KD 계산 실패: %w", err)
	}
	// 주봉의 마지막 행은 진행 중일 수 있으므로 항상 끝에서 두 번째 행을 완성봉으로 사용
	if len(weeklyRows) < 2 {
		return nil, cond, fmt.Errorf("%w: 주봉 KD 행 %d개 (최소 2개 필요)", ErrInsufficientData, len(weeklyRows))
	}

	dPrev := dailyRows[len(dailyRows)-2]
	dLast := dailyRows[len(dailyRows)-1]
	dailyMA := indicator.LastSMA(closes(dailyRows), d.dailyMA)

	wIdx := len(weeklyRows) - 2
	wRow := weeklyRows[wIdx]
	weeklyMA := indicator.SMA(closes(weeklyRows), d.weeklyMA)[wIdx]

	cond = Conditions{
		DailyK:         dLast.k,
		DailyD:         dLast.d,
		DailyClose:     dLast.close,
		DailyMA:        dailyMA,
		WeeklyK:        wRow.k,
		WeeklyD:        wRow.d,
		WeeklyClose:    wRow.close,
		WeeklyMA:       weeklyMA,
		DailyTime:      dLast.time,
		WeeklyTime:     wRow.time,
		DailyMAPeriod:  d.dailyMA,
		WeeklyMAPeriod: d.weeklyMA,
	}
	// 주MA가 아직 정의되지 않았으면 주봉 필터는 충족하지 않은 것으로 본다
	cond.WeeklyOK = wRow.k > wRow.d && wRow.k >= 50 &&
		!math.IsNaN(weeklyMA) && wRow.close > weeklyMA
	cond.EntryCross = indicator.CrossedUp(dPrev.k, dPrev.d, dLast.k, dLast.d)
	cond.ExitCross = indicator.CrossedDown(dPrev.k, dPrev.d, dLast.k, dLast.d)
	cond.DailyTrendOK = !math.IsNaN(dailyMA) && dLast.close > dailyMA

	state := ensureState(states, symbol)
	var alerts []Alert

	// 1. 진입: 미보유 + 주봉 필터 + 골든크로스 + 일MA 상회
	if state.Position == domain.PositionFlat && cond.WeeklyOK && cond.EntryCross && cond.DailyTrendOK {
		state.Position = domain.PositionLong
		state.LastEntry = dLast.time.In(d.loc).Format("2006-01-02 15:04")
		if err := d.store.Save(states); err != nil {
			state.Position = domain.PositionFlat
			state.LastEntry = ""
			return nil, cond, fmt.Errorf("상태 저장 실패 (%s 진입): %w", symbol, err)
		}
		alerts = append(alerts, Alert{Type: domain.Entry, Symbol: symbol, Conditions: cond})
		return alerts, cond, nil
	}

	// 2. 감량: 보유 중 데드크로스 (날짜당 1회)
	reduceKey := "daily_exit@" + d.dateKey(dLast.time)
	if state.Position == domain.PositionLong && cond.ExitCross && !state.Alerted(reduceKey) {
		state.MarkAlerted(reduceKey)
		if err := d.store.Save(states); err != nil {
			delete(state.Alerts, reduceKey)
			return alerts, cond, fmt.Errorf("상태 저장 실패 (%s 감량): %w", symbol, err)
		}
		alerts = append(alerts, Alert{Type: domain.Reduce, Symbol: symbol, Key: reduceKey, Conditions: cond})
	}

	// 3. 청산: 보유 중 주봉 필터 이탈 (완성 주봉당 1회). 감량과 독립적으로 평가
	exitKey := "weekly_off@" + d.dateKey(wRow.time)
	if state.Position == domain.PositionLong && !cond.WeeklyOK && !state.Alerted(exitKey) {
		state.Position = domain.PositionFlat
		state.MarkAlerted(exitKey)
		if err := d.store.Save(states); err != nil {
			state.Position = domain.PositionLong
			delete(state.Alerts, exitKey)
			return alerts, cond, fmt.Errorf("상태 저장 실패 (%s 청산): %w", symbol, err)
		}
		alerts = append(alerts, Alert{Type: domain.Exit, Symbol: symbol, Key: exitKey, Conditions: cond})
	}

	return alerts, cond, nil
}
