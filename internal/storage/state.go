package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/assist-by/kdwatch/internal/domain"
)

// FileStore는 심볼 상태를 JSON 파일로 영속화합니다.
// 저장은 임시 파일에 쓴 뒤 rename하는 원자적 교체 방식이라 쓰기 도중
// 프로세스가 죽어도 파일이 깨지지 않습니다
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore는 새로운 파일 상태 저장소를 생성합니다
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load는 저장된 심볼 상태를 읽어들입니다.
// 파일이 없으면 빈 맵을 반환합니다
func (s *FileStore) Load() (map[string]*domain.SymbolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*domain.SymbolState), nil
		}
		return nil, fmt.Errorf("상태 파일 읽기 실패: %w", err)
	}

	states := make(map[string]*domain.SymbolState)
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("상태 파일 파싱 실패: %w", err)
	}
	return states, nil
}

// Save는 심볼 상태 전체를 원자적으로 저장합니다
func (s *FileStore) Save(states map[string]*domain.SymbolState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("상태 직렬화 실패: %w", err)
	}

	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("상태 디렉토리 생성 실패: %w", err)
		}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("임시 상태 파일 쓰기 실패: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("상태 파일 교체 실패: %w", err)
	}
	return nil
}
