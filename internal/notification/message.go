package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/assist-by/kdwatch/internal/analysis/signal"
	"github.com/assist-by/kdwatch/internal/domain"
)

const timeFormat = "2006-01-02 15:04"

// FormatAlert는 알림을 LINE 푸시용 텍스트로 변환합니다.
// instLine은 기관 매매 동향 한 줄 요약으로, 비어 있으면 생략합니다
func FormatAlert(alert signal.Alert, instLine string, loc *time.Location) string {
	cond := alert.Conditions
	var b strings.Builder

	switch alert.Type {
	case domain.Entry:
		b.WriteString(fmt.Sprintf("🚀 [진입] %s\n", alert.Symbol))
		b.WriteString(fmt.Sprintf("일봉 골든크로스 K=%.2f > D=%.2f\n", cond.DailyK, cond.DailyD))
		b.WriteString(fmt.Sprintf("종가 %.2f > %d일선 %.2f\n", cond.DailyClose, cond.DailyMAPeriod, cond.DailyMA))
		b.WriteString(fmt.Sprintf("주봉 필터 충족: K=%.2f D=%.2f 종가 %.2f > %d주선 %.2f\n",
			cond.WeeklyK, cond.WeeklyD, cond.WeeklyClose, cond.WeeklyMAPeriod, cond.WeeklyMA))
		b.WriteString(fmt.Sprintf("기준봉: %s", cond.DailyTime.In(loc).Format(timeFormat)))

	case domain.Reduce:
		b.WriteString(fmt.Sprintf("🔻 [감량] %s\n", alert.Symbol))
		b.WriteString(fmt.Sprintf("일봉 데드크로스 K=%.2f < D=%.2f\n", cond.DailyK, cond.DailyD))
		b.WriteString(fmt.Sprintf("종가 %.2f / %d일선 %.2f\n", cond.DailyClose, cond.DailyMAPeriod, cond.DailyMA))
		b.WriteString(fmt.Sprintf("기준봉: %s", cond.DailyTime.In(loc).Format(timeFormat)))

	case domain.Exit:
		b.WriteString(fmt.Sprintf("⚠️ [청산] %s\n", alert.Symbol))
		b.WriteString("주봉 필터 이탈\n")
		b.WriteString(fmt.Sprintf("주봉 K=%.2f D=%.2f 종가 %.2f / %d주선 %.2f\n",
			cond.WeeklyK, cond.WeeklyD, cond.WeeklyClose, cond.WeeklyMAPeriod, cond.WeeklyMA))
		b.WriteString(fmt.Sprintf("완성 주봉: %s", cond.WeeklyTime.In(loc).Format(timeFormat)))

	default:
		b.WriteString(fmt.Sprintf("ℹ️ %s: 알림 조건 없음", alert.Symbol))
	}

	if instLine != "" {
		b.WriteString("\n")
		b.WriteString(instLine)
	}
	return b.String()
}
