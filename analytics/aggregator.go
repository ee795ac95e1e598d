package analytics

import (
	"context"
	"slices"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// DailyCount is the number of events on one calendar day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EngagementDay is one point of the merged dashboard series.
type EngagementDay struct {
	Date     string `json:"date"`
	Comments int    `json:"comments"`
	Likes    int    `json:"likes"`
}

// Totals are all-time counts shown beside the series.
type Totals struct {
	Posts    int `json:"posts"`
	Quotes   int `json:"quotes"`
	Comments int `json:"comments"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Likes    int `json:"likes"`
}

// Source supplies raw engagement events and totals.
type Source interface {
	EngagementEvents(ctx context.Context, since time.Time) (comments, likes []time.Time, err error)
	EngagementTotals(ctx context.Context) (Totals, error)
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// windowStart returns midnight of the first day of a window ending on today.
func windowStart(today time.Time, windowDays int) time.Time {
	return startOfDay(today).AddDate(0, 0, -(windowDays - 1))
}

// BucketByDay counts events per calendar day over the windowDays days
// ending on today, inclusive. Days are taken in today's location. The
// result has exactly windowDays entries in ascending date order, with zero
// counts for quiet days; events outside the window are ignored.
func BucketByDay(events []time.Time, today time.Time, windowDays int) []DailyCount {
	if windowDays <= 0 {
		return nil
	}
	loc := today.Location()
	first := windowStart(today, windowDays)

	counts := make(map[string]int, windowDays)
	for _, ev := range events {
		counts[ev.In(loc).Format(dayLayout)]++
	}

	result := make([]DailyCount, windowDays)
	for i := range result {
		label := first.AddDate(0, 0, i).Format(dayLayout)
		result[i] = DailyCount{Date: label, Count: counts[label]}
	}
	return result
}

// MergeSeries zips aligned comment and like series into one series. Dates
// present in only one input are kept with a zero for the other.
func MergeSeries(comments, likes []DailyCount) []EngagementDay {
	out := make([]EngagementDay, 0, max(len(comments), len(likes)))
	index := make(map[string]int, cap(out))
	add := func(date string) *EngagementDay {
		if i, ok := index[date]; ok {
			return &out[i]
		}
		index[date] = len(out)
		out = append(out, EngagementDay{Date: date})
		return &out[len(out)-1]
	}
	for _, c := range comments {
		add(c.Date).Comments += c.Count
	}
	for _, l := range likes {
		add(l.Date).Likes += l.Count
	}
	slices.SortFunc(out, func(a, b EngagementDay) int { return strings.Compare(a.Date, b.Date) })
	return out
}
