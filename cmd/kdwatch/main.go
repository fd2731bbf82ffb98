package main

import (
	"context"
	"flag"
	"log"
	"os"
	osSignal "os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/assist-by/kdwatch/internal/analysis/signal"
	"github.com/assist-by/kdwatch/internal/config"
	"github.com/assist-by/kdwatch/internal/institution"
	"github.com/assist-by/kdwatch/internal/market"
	"github.com/assist-by/kdwatch/internal/notification/line"
	"github.com/assist-by/kdwatch/internal/scanner"
	"github.com/assist-by/kdwatch/internal/scheduler"
	"github.com/assist-by/kdwatch/internal/storage"
	"github.com/assist-by/kdwatch/internal/subscription"
	"github.com/assist-by/kdwatch/internal/webhook"
)

func main() {
	// 명령줄 플래그 정의
	onceFlag := flag.Bool("once", false, "한 번 스캔 후 종료")
	webhookFlag := flag.Bool("webhook", true, "LINE 웹훅 서버 실행 여부")

	// 플래그 파싱
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("KD 알림 봇 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("타임존 로드 실패: %v", err)
	}

	// LINE 클라이언트 생성
	lineClient := line.NewClient(
		cfg.Line.ChannelAccessToken,
		cfg.Line.ChannelSecret,
		line.WithTimeout(10*time.Second),
		line.WithDryRun(cfg.App.DryRun),
	)
	if cfg.App.DryRun {
		log.Println("⚠️ DRY-RUN 모드로 실행 중입니다. 알림은 로그로만 출력됩니다.")
	}

	// 구독 저장소 생성
	var subsBackend subscription.Backend
	switch cfg.Subs.Backend {
	case "redis":
		redisBackend := subscription.NewRedisBackend(cfg.Subs.RedisAddr, cfg.Subs.RedisKey)
		defer redisBackend.Close()
		subsBackend = redisBackend
	default:
		subsBackend = subscription.NewFileBackend(cfg.Subs.File)
	}
	subs := subscription.NewService(subsBackend)

	// 상태 저장소와 시그널 감지기 생성
	stateStore := storage.NewFileStore(cfg.App.StateFile)
	detector := signal.NewDetector(signal.DetectorConfig{
		KPeriod:  cfg.KD.Period,
		Alpha:    cfg.KD.Alpha,
		DailyMA:  cfg.KD.DailyMA,
		WeeklyMA: cfg.KD.WeeklyMA,
		Location: loc,
	}, stateStore)

	// 봉 데이터 클라이언트 생성
	marketClient := market.NewClient(market.WithTimeout(10 * time.Second))

	// 기관 수급 주석 (옵션)
	var instSource scanner.InstitutionSource
	if cfg.Institution.Enabled && cfg.Institution.IncludeInPush {
		instSource = institution.NewClient(cfg.Institution.CacheDir)
	}

	// 스캐너 생성
	sc := scanner.NewScanner(scanner.Config{
		KDPeriod: cfg.KD.Period,
		DailyMA:  cfg.KD.DailyMA,
		WeeklyMA: cfg.KD.WeeklyMA,
		Location: loc,
	}, marketClient, detector, stateStore, subs, lineClient, instSource)

	// 단발 실행 모드
	if *onceFlag {
		if err := sc.Scan(ctx); err != nil {
			log.Printf("스캔 실패: %v", err)
			os.Exit(1)
		}
		log.Println("스캔 완료. 프로그램을 종료합니다.")
		return
	}

	// 스케줄러 생성: RUN_AT이 설정되면 매일 고정 시각, 아니면 간격 모드
	var sched *scheduler.Scheduler
	if cfg.App.RunAt != "" {
		hour, minute := parseRunAt(cfg.App.RunAt)
		sched = scheduler.NewScheduler(cfg.App.FetchInterval, sc,
			scheduler.WithDailyAt(hour, minute, loc))
	} else {
		sched = scheduler.NewScheduler(cfg.App.FetchInterval, sc)
	}

	// 웹훅 서버 시작 (구독 명령 처리)
	if *webhookFlag {
		srv := webhook.NewServer(cfg.App.WebhookAddr, lineClient, subs)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Printf("웹훅 서버 에러: %v", err)
			}
		}()
	}

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 스케줄러 시작
	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("스케줄러 실행 중 에러 발생: %v", err)
		}
	}()

	// 시그널 대기
	sig := <-sigChan
	log.Printf("시스템 종료 신호 수신: %v", sig)

	// 스케줄러 중지
	sched.Stop()
	cancel()

	log.Println("프로그램을 종료합니다.")
}

// parseRunAt은 HH:MM 문자열을 시/분으로 변환합니다.
// 형식은 설정 검증에서 이미 확인되었습니다
func parseRunAt(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		minute, _ = strconv.Atoi(parts[1])
	}
	return hour, minute
}
