package service

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	at := func(h, m, s int) time.Time {
		return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second)
	}

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"完全重叠", at(0, 0, 0), at(4, 0, 0), at(0, 0, 0), at(4, 0, 0), true},
		{"部分重叠", at(0, 0, 0), at(4, 0, 0), at(2, 0, 0), at(6, 0, 0), true},
		{"包含", at(0, 0, 0), at(8, 0, 0), at(2, 0, 0), at(4, 0, 0), true},
		{"边界相接不重叠", at(0, 0, 0), at(4, 0, 0), at(4, 0, 0), at(8, 0, 0), false},
		{"反向边界相接不重叠", at(4, 0, 0), at(8, 0, 0), at(0, 0, 0), at(4, 0, 0), false},
		{"完全分离", at(0, 0, 0), at(2, 0, 0), at(4, 0, 0), at(6, 0, 0), false},
		{"相隔1秒不重叠", at(0, 0, 0), at(4, 0, 0), at(4, 0, 1), at(8, 0, 0), false},
		{"重叠1秒算重叠", at(0, 0, 0), at(4, 0, 0), at(3, 59, 59), at(8, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps(%v, %v, %v, %v) = %v，期望 %v",
					tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
			}
		})
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	a1 := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	a2 := a1.Add(4 * time.Hour)
	b1 := a1.Add(2 * time.Hour)
	b2 := a1.Add(6 * time.Hour)

	if Overlaps(a1, a2, b1, b2) != Overlaps(b1, b2, a1, a2) {
		t.Error("Overlaps 应满足对称性")
	}
}
