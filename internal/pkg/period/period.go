package period

import (
	"errors"
	"time"
)

var ErrInvalidMonth = errors.New("无效的月份格式")

// 支持的月份标识格式
var monthLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01",
}

// MonthStart 归一化到所在自然月的首日零点（本地时区）
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthBounds 返回所在自然月的边界 [首日零点, 当月最后一瞬]
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := MonthStart(t)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// DaysInMonth 所在自然月的天数
func DaysInMonth(t time.Time) int {
	start := MonthStart(t)
	return start.AddDate(0, 1, -1).Day()
}

// PrevMonthStart 上个自然月的首日零点
func PrevMonthStart(now time.Time) time.Time {
	return MonthStart(now).AddDate(0, -1, 0)
}

// ParseMonth 解析月份标识，接受 YYYY-MM-DD、完整时间戳或 YYYY-MM
// 空串表示上个自然月
func ParseMonth(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return PrevMonthStart(now), nil
	}

	for _, layout := range monthLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return MonthStart(t), nil
		}
	}

	return time.Time{}, ErrInvalidMonth
}

// OverlapDays 两个区间重叠的自然天数（按日期含头含尾）
func OverlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return 0
	}

	// 锚定到 UTC 计数，夏令时导致的 23/25 小时天不影响结果
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDay.Sub(startDay).Hours()/24) + 1
}

// DayStart 当天零点
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
