package scheduler

import (
	"context"
	"log"
	"time"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// Scheduler는 정해진 시간에 작업을 실행하는 스케줄러입니다.
// 기본은 고정 간격 모드이며, WithDailyAt 옵션으로 매일 지정 시각에
// 실행하는 모드로 바꿀 수 있습니다
type Scheduler struct {
	interval time.Duration
	task     Task
	stopCh   chan struct{}

	// 일일 고정 시각 모드 설정
	dailyMode bool
	hour      int
	minute    int
	loc       *time.Location
}

// Option은 스케줄러 생성 옵션을 정의합니다
type Option func(*Scheduler)

// WithDailyAt은 매일 지정 타임존의 고정 시각에 실행하는 모드를 켭니다.
// 장 마감 후 종가가 확정된 뒤에 스캔하도록 할 때 사용합니다
func WithDailyAt(hour, minute int, loc *time.Location) Option {
	return func(s *Scheduler) {
		s.dailyMode = true
		s.hour = hour
		s.minute = minute
		s.loc = loc
	}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(interval time.Duration, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextRun은 다음 실행 시각을 계산합니다
func (s *Scheduler) nextRun(now time.Time) time.Time {
	if !s.dailyMode {
		return now.Truncate(s.interval).Add(s.interval)
	}

	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start는 스케줄러를 시작합니다
func (s *Scheduler) Start(ctx context.Context) error {
	now := time.Now()
	nextRun := s.nextRun(now)
	waitDuration := nextRun.Sub(now)

	log.Printf("다음 실행까지 %v 대기 (다음 실행: %s)",
		waitDuration.Round(time.Second),
		nextRun.Format("2006-01-02 15:04:05"))

	timer := time.NewTimer(waitDuration)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			// 작업 실행
			if err := s.task.Execute(ctx); err != nil {
				log.Printf("작업 실행 실패: %v", err)
				// 에러가 발생해도 계속 실행
			}

			// 다음 실행 시간 계산
			now := time.Now()
			nextRun = s.nextRun(now)
			waitDuration = nextRun.Sub(now)

			log.Printf("다음 실행까지 %v 대기 (다음 실행: %s)",
				waitDuration.Round(time.Second),
				nextRun.Format("2006-01-02 15:04:05"))

			timer.Reset(waitDuration)
		}
	}
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
