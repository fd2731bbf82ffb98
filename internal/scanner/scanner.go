package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/assist-by/kdwatch/internal/analysis/signal"
	"github.com/assist-by/kdwatch/internal/domain"
	"github.com/assist-by/kdwatch/internal/indicator"
	"github.com/assist-by/kdwatch/internal/institution"
	"github.com/assist-by/kdwatch/internal/market"
	"github.com/assist-by/kdwatch/internal/notification"
	"github.com/assist-by/kdwatch/internal/subscription"
)

// BarSource는 봉 데이터 조회 인터페이스를 정의합니다
type BarSource interface {
	GetCandles(ctx context.Context, symbol string, interval domain.Interval) (domain.CandleList, error)
}

// StateLoader는 저장된 심볼 상태를 읽어들입니다
type StateLoader interface {
	Load() (map[string]*domain.SymbolState, error)
}

// InstitutionSource는 기관 매매 동향 조회 인터페이스를 정의합니다
type InstitutionSource interface {
	GetFlow(ctx context.Context, symbol string, date time.Time) (*institution.Flow, error)
}

// Config는 스캐너 동작 설정을 정의합니다
type Config struct {
	KDPeriod int
	DailyMA  int
	WeeklyMA int

	Location   *time.Location
	RetryCount int           // 봉 조회 재시도 횟수
	RetryDelay time.Duration // 재시도 간격
}

// Scanner는 구독된 모든 심볼을 순회하며 시그널을 판정하고 알림을
// 전송하는 배치 드라이버입니다
type Scanner struct {
	config   Config
	source   BarSource
	detector *signal.Detector
	states   StateLoader
	subs     *subscription.Service
	notifier notification.Notifier
	inst     InstitutionSource // nil이면 기관 주석 비활성

	now func() time.Time
}

// NewScanner는 새로운 스캐너를 생성합니다.
// inst에 nil을 넘기면 기관 매매 주석 없이 동작합니다
func NewScanner(config Config, source BarSource, detector *signal.Detector, states StateLoader,
	subs *subscription.Service, notifier notification.Notifier, inst InstitutionSource) *Scanner {
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 2 * time.Second
	}
	return &Scanner{
		config:   config,
		source:   source,
		detector: detector,
		states:   states,
		subs:     subs,
		notifier: notifier,
		inst:     inst,
		now:      time.Now,
	}
}

// Execute는 스케줄러 Task 인터페이스를 구현합니다
func (s *Scanner) Execute(ctx context.Context) error {
	return s.Scan(ctx)
}

// Scan은 한 번의 전체 스캔을 수행합니다.
// 심볼 하나의 실패는 다른 심볼의 평가를 막지 않으며, 실패한 심볼들은
// 마지막에 에러로 모아 반환합니다
func (s *Scanner) Scan(ctx context.Context) error {
	inverse, err := s.subs.SymbolsToSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("구독 목록 조회 실패: %w", err)
	}
	if len(inverse) == 0 {
		log.Printf("구독된 심볼이 없어 스캔을 건너뜁니다")
		return nil
	}

	symbols := make([]string, 0, len(inverse))
	for sym := range inverse {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	states, err := s.states.Load()
	if err != nil {
		return fmt.Errorf("상태 로드 실패: %w", err)
	}

	log.Printf("스캔 시작: 심볼 %d개", len(symbols))
	var failures []error
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scanSymbol(ctx, sym, states, inverse[sym]); err != nil {
			log.Printf("심볼 스캔 실패 (%s): %v", sym, err)
			failures = append(failures, fmt.Errorf("%s: %w", sym, err))
		}
	}

	log.Printf("스캔 완료: 성공 %d / 실패 %d", len(symbols)-len(failures), len(failures))
	return errors.Join(failures...)
}

// scanSymbol은 심볼 하나를 평가하고 발생한 알림을 구독자 전원에게 전송합니다
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, states map[string]*domain.SymbolState, subscribers map[string]bool) error {
	daily, err := s.fetchWithRetry(ctx, symbol, domain.IntervalDaily)
	if err != nil {
		return fmt.Errorf("일봉 조회 실패: %w", err)
	}
	daily = market.LastCompletedDaily(daily, s.now(), s.config.Location)

	needDaily := market.MinRequiredBars(s.config.DailyMA, s.config.KDPeriod)
	if len(daily) < needDaily {
		log.Printf("일봉 데이터 부족으로 건너뜀 (%s): %d개 < %d개", symbol, len(daily), needDaily)
		return nil
	}

	weekly, err := s.fetchWithRetry(ctx, symbol, domain.IntervalWeekly)
	if err != nil {
		return fmt.Errorf("주봉 조회 실패: %w", err)
	}
	needWeekly := market.MinRequiredBars(s.config.WeeklyMA, s.config.KDPeriod)
	if len(weekly) < needWeekly {
		log.Printf("주봉 데이터 부족으로 건너뜀 (%s): %d개 < %d개", symbol, len(weekly), needWeekly)
		return nil
	}

	alerts, cond, err := s.detector.Evaluate(symbol,
		indicator.ConvertCandlesToPriceData(daily),
		indicator.ConvertCandlesToPriceData(weekly),
		states)
	if err != nil {
		if errors.Is(err, signal.ErrInsufficientData) {
			log.Printf("KD 행 부족으로 건너뜀 (%s): %v", symbol, err)
			return nil
		}
		// 일부 알림은 이미 영속화되었을 수 있으므로 전송 후 에러를 반환한다
		s.deliver(ctx, alerts, subscribers)
		return err
	}

	if len(alerts) == 0 {
		log.Printf("알림 없음 (%s): weekly_ok=%v entry_cross=%v exit_cross=%v trend_ok=%v K=%.2f D=%.2f",
			symbol, cond.WeeklyOK, cond.EntryCross, cond.ExitCross, cond.DailyTrendOK, cond.DailyK, cond.DailyD)
		return nil
	}

	s.deliver(ctx, alerts, subscribers)
	return nil
}

// deliver는 알림마다 메시지를 만들어 구독자 전원에게 전송합니다.
// 개별 전송 실패는 로그만 남기고 계속 진행합니다
func (s *Scanner) deliver(ctx context.Context, alerts []signal.Alert, subscribers map[string]bool) {
	for _, alert := range alerts {
		text := notification.FormatAlert(alert, s.institutionLine(ctx, alert), s.config.Location)
		log.Printf("알림 발생: %s %s", alert.Type, alert.Symbol)

		recipients := make([]string, 0, len(subscribers))
		for rid := range subscribers {
			recipients = append(recipients, rid)
		}
		sort.Strings(recipients)

		for _, rid := range recipients {
			if err := s.notifier.Push(ctx, rid, text); err != nil {
				log.Printf("알림 전송 실패 (%s -> %s): %v", alert.Symbol, rid, err)
			}
		}
	}
}

// institutionLine은 기관 매매 한 줄 요약을 조회합니다.
// 조회 실패나 자료 없음은 알림 전송을 막지 않도록 빈 문자열로 처리합니다
func (s *Scanner) institutionLine(ctx context.Context, alert signal.Alert) string {
	if s.inst == nil {
		return ""
	}

	date := alert.Conditions.DailyTime.In(s.config.Location)
	flow, err := s.inst.GetFlow(ctx, alert.Symbol, date)
	if err != nil {
		log.Printf("기관 동향 조회 실패 (%s): %v", alert.Symbol, err)
		return ""
	}
	if flow == nil {
		return ""
	}
	return flow.FormatLine()
}

// fetchWithRetry는 봉 조회를 재시도와 함께 수행합니다
func (s *Scanner) fetchWithRetry(ctx context.Context, symbol string, interval domain.Interval) (domain.CandleList, error) {
	var lastErr error
	for attempt := 0; attempt < s.config.RetryCount; attempt++ {
		if attempt > 0 {
			log.Printf("봉 조회 재시도 %d/%d (%s %s)", attempt, s.config.RetryCount-1, symbol, interval)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}

		candles, err := s.source.GetCandles(ctx, symbol, interval)
		if err == nil {
			return candles, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
