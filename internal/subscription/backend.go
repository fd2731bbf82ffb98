package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

// Backend는 구독 목록(수신자 -> 심볼 목록)의 저장소를 정의합니다
type Backend interface {
	Load(ctx context.Context) (map[string][]string, error)
	Save(ctx context.Context, data map[string][]string) error
}

// FileBackend는 구독 목록을 JSON 파일로 저장합니다.
// 상태 저장소와 마찬가지로 임시 파일 작성 후 rename으로 원자성을 보장합니다
type FileBackend struct {
	path string
}

// NewFileBackend는 새로운 파일 백엔드를 생성합니다
func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = "subscriptions.json"
	}
	return &FileBackend{path: path}
}

func (b *FileBackend) Load(ctx context.Context) (map[string][]string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("구독 파일 읽기 실패: %w", err)
	}

	out := make(map[string][]string)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("구독 파일 파싱 실패: %w", err)
	}
	return out, nil
}

func (b *FileBackend) Save(ctx context.Context, data map[string][]string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("구독 목록 직렬화 실패: %w", err)
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("임시 구독 파일 쓰기 실패: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("구독 파일 교체 실패: %w", err)
	}
	return nil
}

// RedisBackend는 구독 목록을 레디스 키 하나에 JSON으로 저장합니다
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend는 새로운 레디스 백엔드를 생성합니다
func NewRedisBackend(addr, key string) *RedisBackend {
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

func (b *RedisBackend) Load(ctx context.Context) (map[string][]string, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("레디스 구독 조회 실패: %w", err)
	}

	out := make(map[string][]string)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("레디스 구독 파싱 실패: %w", err)
	}
	return out, nil
}

func (b *RedisBackend) Save(ctx context.Context, data map[string][]string) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("구독 목록 직렬화 실패: %w", err)
	}
	if err := b.client.Set(ctx, b.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("레디스 구독 저장 실패: %w", err)
	}
	return nil
}

// Close는 레디스 연결을 닫습니다
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
