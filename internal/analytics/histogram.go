package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

const (
	// FirstHour and LastHour bound the daily chart, both inclusive
	FirstHour = 8
	LastHour  = 18
)

// ErrInvalidView is returned for an unknown view mode
var ErrInvalidView = errors.New("invalid view mode")

// ParseViewMode validates a view mode string; empty means daily
func ParseViewMode(s string) (types.ViewMode, error) {
	switch types.ViewMode(s) {
	case "", types.ViewDaily:
		return types.ViewDaily, nil
	case types.ViewMonthly:
		return types.ViewMonthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
}

// SameDay reports whether a and b fall on the same calendar day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether a and b fall in the same calendar month in loc
func SameMonth(a, b time.Time, loc *time.Location) bool {
	ay, am, _ := a.In(loc).Date()
	by, bm, _ := b.In(loc).Date()
	return ay == by && am == bm
}

// DaysInMonth returns the number of days of t's month in loc
func DaysInMonth(t time.Time, loc *time.Location) int {
	y, m, _ := t.In(loc).Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// BuildDailyHistogram buckets the records of day by local hour, 08:00 to
// 18:00. Records outside that window are left out of the chart. When day is
// today and a forecast is present, buckets at or after the current hour also
// carry the predicted volume.
func BuildDailyHistogram(records []types.AttendanceRecord, day time.Time, loc *time.Location, forecast Forecast, now time.Time) types.Histogram {
	buckets := make([]types.HistogramBucket, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		buckets = append(buckets, types.HistogramBucket{
			Label: fmt.Sprintf("%02d:00", h),
			Hour:  h,
		})
	}

	for _, r := range records {
		if !SameDay(r.CreatedAt, day, loc) {
			continue
		}
		h := r.CreatedAt.In(loc).Hour()
		if h < FirstHour || h > LastHour {
			continue
		}
		addToBucket(&buckets[h-FirstHour], r.Visual)
	}

	if !forecast.Empty() && SameDay(day, now, loc) {
		current := now.In(loc).Hour()
		for i := range buckets {
			if buckets[i].Hour < current {
				continue
			}
			if v, ok := forecast.Hourly[buckets[i].Hour]; ok {
				predicted := v
				buckets[i].Predicted = &predicted
			}
		}
	}

	return types.Histogram{Mode: types.ViewDaily, Buckets: buckets}
}

// BuildMonthlyHistogram buckets the records of month by calendar day
func BuildMonthlyHistogram(records []types.AttendanceRecord, month time.Time, loc *time.Location) types.Histogram {
	days := DaysInMonth(month, loc)
	buckets := make([]types.HistogramBucket, 0, days)
	for d := 1; d <= days; d++ {
		buckets = append(buckets, types.HistogramBucket{
			Label: fmt.Sprintf("%02d", d),
			Day:   d,
		})
	}

	for _, r := range records {
		if !SameMonth(r.CreatedAt, month, loc) {
			continue
		}
		d := r.CreatedAt.In(loc).Day()
		addToBucket(&buckets[d-1], r.Visual)
	}

	return types.Histogram{Mode: types.ViewMonthly, Buckets: buckets}
}

// BuildHistogram dispatches on the view mode
func BuildHistogram(records []types.AttendanceRecord, view types.ViewMode, date time.Time, loc *time.Location, forecast Forecast, now time.Time) types.Histogram {
	if view == types.ViewMonthly {
		return BuildMonthlyHistogram(records, date, loc)
	}
	return BuildDailyHistogram(records, date, loc, forecast, now)
}

// WithEfficiency annotates each bucket with success/total as a percentage
func WithEfficiency(h types.Histogram) types.Histogram {
	out := types.Histogram{Mode: h.Mode, Buckets: make([]types.HistogramBucket, len(h.Buckets))}
	for i, b := range h.Buckets {
		eff := 0.0
		if b.Total > 0 {
			eff = float64(b.Success) / float64(b.Total) * 100
		}
		b.Efficiency = &eff
		out.Buckets[i] = b
	}
	return out
}

func addToBucket(b *types.HistogramBucket, v types.VisualStatus) {
	b.Total++
	switch v {
	case types.VisualSuccess:
		b.Success++
	case types.VisualFailure:
		b.Failure++
	case types.VisualTransferred:
		b.Transferred++
	default:
		b.Unclassified++
	}
}
