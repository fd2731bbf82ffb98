package subscription

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// 심볼 형식: 영숫자와 거래소 접미사용 점, 최대 12자
var symbolRe = regexp.MustCompile(`^[A-Za-z0-9\.]{1,12}$`)

// 대만 종목 코드 형식: 숫자 1~6자리 + 선택적 영문 1~2자 (예: 2330, 00981A)
var twNumLettersRe = regexp.MustCompile(`^\d{1,6}[A-Z]{0,2}$`)

// EnsureTWSuffix는 심볼을 정규화합니다.
// 대문자로 바꾸고, 거래소 접미사(.TW/.TWO)가 이미 있으면 유지하며,
// 대만 종목 코드 형태면 .TW를 붙입니다 (장외 종목은 .TWO를 직접 입력)
func EnsureTWSuffix(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, ".TW") || strings.HasSuffix(s, ".TWO") {
		return s
	}
	if twNumLettersRe.MatchString(s) {
		return s + ".TW"
	}
	return s
}

// IsValidSymbol은 정규화된 심볼이 허용 형식인지 확인합니다
func IsValidSymbol(symbol string) bool {
	return symbolRe.MatchString(symbol)
}

func normalizeMap(data map[string][]string) map[string][]string {
	out := make(map[string][]string, len(data))
	for rid, syms := range data {
		seen := make(map[string]bool)
		uniq := make([]string, 0, len(syms))
		for _, raw := range syms {
			s := EnsureTWSuffix(raw)
			if !IsValidSymbol(s) || seen[s] {
				continue
			}
			seen[s] = true
			uniq = append(uniq, s)
		}
		sort.Strings(uniq)
		out[rid] = uniq
	}
	return out
}

// Service는 구독 목록 관리 기능을 제공합니다
type Service struct {
	backend Backend
}

// NewService는 새로운 구독 서비스를 생성합니다
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// List는 수신자의 구독 심볼 목록을 반환합니다 (정렬됨)
func (s *Service) List(ctx context.Context, recipientID string) ([]string, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	syms := normalizeMap(data)[recipientID]
	return syms, nil
}

// Add는 수신자의 구독 목록에 심볼을 추가합니다.
// 추가된 심볼과 형식이 잘못되어 건너뛴 입력을 반환합니다
func (s *Service) Add(ctx context.Context, recipientID string, symbols []string) (added, skipped []string, err error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	data = normalizeMap(data)

	current := make(map[string]bool)
	for _, sym := range data[recipientID] {
		current[sym] = true
	}

	for _, raw := range symbols {
		sym := EnsureTWSuffix(raw)
		if !IsValidSymbol(sym) {
			skipped = append(skipped, raw)
			continue
		}
		if !current[sym] {
			current[sym] = true
			added = append(added, sym)
		}
	}

	data[recipientID] = sortedKeys(current)
	if err := s.backend.Save(ctx, data); err != nil {
		return nil, nil, err
	}
	return added, skipped, nil
}

// Remove는 수신자의 구독 목록에서 심볼을 제거하고 제거된 심볼을 반환합니다
func (s *Service) Remove(ctx context.Context, recipientID string, symbols []string) ([]string, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	data = normalizeMap(data)

	current := make(map[string]bool)
	for _, sym := range data[recipientID] {
		current[sym] = true
	}

	var removed []string
	for _, raw := range symbols {
		sym := EnsureTWSuffix(raw)
		if current[sym] {
			delete(current, sym)
			removed = append(removed, sym)
		}
	}

	data[recipientID] = sortedKeys(current)
	if err := s.backend.Save(ctx, data); err != nil {
		return nil, err
	}
	return removed, nil
}

// Clear는 수신자의 구독을 모두 제거하고 제거된 개수를 반환합니다
func (s *Service) Clear(ctx context.Context, recipientID string) (int, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return 0, err
	}
	data = normalizeMap(data)

	n := len(data[recipientID])
	data[recipientID] = []string{}
	if err := s.backend.Save(ctx, data); err != nil {
		return 0, err
	}
	return n, nil
}

// SymbolsToSubscribers는 심볼 -> 수신자 집합의 역방향 맵을 반환합니다.
// 배치 스캐너가 추적 대상 심볼 목록으로 사용합니다
func (s *Service) SymbolsToSubscribers(ctx context.Context) (map[string]map[string]bool, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]bool)
	for rid, syms := range normalizeMap(data) {
		for _, sym := range syms {
			if out[sym] == nil {
				out[sym] = make(map[string]bool)
			}
			out[sym][rid] = true
		}
	}
	return out, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
