package indicator

import "testing"

func TestCrossedUp(t *testing.T) {
	testCases := []struct {
		name                 string
		kPrev, dPrev, k, d   float64
		expected             bool
	}{
		{"골든크로스", 48, 50, 52, 50, true},
		{"직전 동치에서 상향", 50, 50, 52, 50, true},
		{"현재 동치는 크로스 아님", 48, 50, 50, 50, false},
		{"이미 위에 있던 경우", 52, 50, 55, 50, false},
		{"하향 이동", 52, 50, 48, 50, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CrossedUp(tc.kPrev, tc.dPrev, tc.k, tc.d)
			if got != tc.expected {
				t.Errorf("CrossedUp(%.1f, %.1f, %.1f, %.1f) = %v, 기대 %v",
					tc.kPrev, tc.dPrev, tc.k, tc.d, got, tc.expected)
			}
		})
	}
}

func TestCrossedDown(t *testing.T) {
	testCases := []struct {
		name               string
		kPrev, dPrev, k, d float64
		expected           bool
	}{
		{"데드크로스", 51, 50, 49, 50, true},
		{"직전 동치에서 하향", 50, 50, 49, 50, true},
		{"현재 동치는 크로스 아님", 51, 50, 50, 50, false},
		{"이미 아래에 있던 경우", 48, 50, 45, 50, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CrossedDown(tc.kPrev, tc.dPrev, tc.k, tc.d)
			if got != tc.expected {
				t.Errorf("CrossedDown(%.1f, %.1f, %.1f, %.1f) = %v, 기대 %v",
					tc.kPrev, tc.dPrev, tc.k, tc.d, got, tc.expected)
			}
		})
	}
}

func TestCross_MutuallyExclusive(t *testing.T) {
	// 직전 또는 현재 쌍이 동치가 아닌 한 두 크로스가 동시에 참일 수 없다
	values := []float64{40, 45, 50, 55, 60}
	for _, kPrev := range values {
		for _, dPrev := range values {
			for _, k := range values {
				for _, d := range values {
					if kPrev == dPrev && k == d {
						continue
					}
					up := CrossedUp(kPrev, dPrev, k, d)
					down := CrossedDown(kPrev, dPrev, k, d)
					if up && down {
						t.Errorf("동시 크로스 발생: (%.0f, %.0f, %.0f, %.0f)", kPrev, dPrev, k, d)
					}
				}
			}
		}
	}
}
