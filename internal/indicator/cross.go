package indicator

// CrossedUp은 골든크로스 여부를 확인합니다.
// 직전 쌍에서 K가 D 이하였다가 현재 쌍에서 K가 D를 상회하면 true입니다
// (직전 쌍의 동치도 크로스로 인정). NaN 입력은 호출자가 걸러야 합니다
func CrossedUp(kPrev, dPrev, k, d float64) bool {
	return kPrev <= dPrev && k > d
}

// CrossedDown은 데드크로스 여부를 확인합니다 (CrossedUp의 대칭)
func CrossedDown(kPrev, dPrev, k, d float64) bool {
	return kPrev >= dPrev && k < d
}
