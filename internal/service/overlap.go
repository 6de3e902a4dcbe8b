package service

import "time"

// Overlaps 判断两个时间区间是否重叠（半开区间语义）。
// 边界相接不算重叠：一个班次恰好在另一个开始时结束不构成冲突。
// 精确到秒，不做任何舍入。
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
