package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// KD 지표 설정
	KD struct {
		Period   int     `envconfig:"K_PERIOD" default:"9"`
		Alpha    float64 `envconfig:"ALPHA" default:"0.3333333333"`
		DailyMA  int     `envconfig:"DAILY_MA" default:"20"`
		WeeklyMA int     `envconfig:"WEEKLY_MA" default:"20"`
	}

	// LINE Messaging API 설정
	Line struct {
		ChannelAccessToken string `envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
		ChannelSecret      string `envconfig:"LINE_CHANNEL_SECRET"`
	}

	// 구독 목록 저장소 설정
	Subs struct {
		Backend   string `envconfig:"SUBS_BACKEND" default:"file"`
		File      string `envconfig:"SUBS_FILE" default:"subscriptions.json"`
		RedisAddr string `envconfig:"SUBS_REDIS_ADDR" default:"localhost:6379"`
		RedisKey  string `envconfig:"SUBS_REDIS_KEY" default:"kdwatch:subscriptions"`
	}

	// 법인 수급 주석 설정
	Institution struct {
		Enabled       bool   `envconfig:"FEATURES_INSTITUTIONS_ENABLED" default:"false"`
		IncludeInPush bool   `envconfig:"FEATURES_INSTITUTIONS_INCLUDE_IN_PUSH" default:"true"`
		CacheDir      string `envconfig:"INSTITUTIONS_CACHE_DIR" default:"cache"`
	}

	// 애플리케이션 설정
	App struct {
		StateFile     string        `envconfig:"STATE_FILE" default:"kd_state.json"`
		Timezone      string        `envconfig:"TZ" default:"Asia/Taipei"`
		FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"24h"`
		RunAt         string        `envconfig:"RUN_AT" default:"13:40"` // 거래 지역 기준 일일 실행 시각 (HH:MM, 비우면 간격 모드)
		WebhookAddr   string        `envconfig:"WEBHOOK_ADDR" default:":8080"`
		DryRun        bool          `envconfig:"DRY_RUN" default:"false"`
	}
}

// Location은 거래 지역 타임존을 반환합니다
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("타임존 로드 실패 (%s): %w", c.App.Timezone, err)
	}
	return loc, nil
}

// ValidateConfig는 설정이 유효한지 확인합니다
func ValidateConfig(cfg *Config) error {
	if cfg.KD.Period < 2 {
		return fmt.Errorf("K_PERIOD는 2 이상이어야 합니다")
	}

	if cfg.KD.Alpha <= 0 || cfg.KD.Alpha > 1 {
		return fmt.Errorf("ALPHA는 0 초과 1 이하이어야 합니다")
	}

	if cfg.KD.DailyMA < 1 || cfg.KD.WeeklyMA < 1 {
		return fmt.Errorf("MA 기간은 1 이상이어야 합니다")
	}

	if cfg.Subs.Backend != "file" && cfg.Subs.Backend != "redis" {
		return fmt.Errorf("지원하지 않는 구독 저장소 백엔드: %s", cfg.Subs.Backend)
	}

	if !cfg.App.DryRun && cfg.Line.ChannelAccessToken == "" {
		return fmt.Errorf("DRY_RUN이 아닌 경우 LINE_CHANNEL_ACCESS_TOKEN이 필요합니다")
	}

	if cfg.App.RunAt != "" {
		if _, err := time.Parse("15:04", cfg.App.RunAt); err != nil {
			return fmt.Errorf("RUN_AT 형식이 잘못되었습니다 (HH:MM): %w", err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일이 있으면 먼저 읽어들입니다
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
		}
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
