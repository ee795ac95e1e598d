package analytics

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestBucketByDayThirtyDays(t *testing.T) {
	today := day(2024, time.March, 15, 18)
	events := []time.Time{
		day(2024, time.March, 15, 1),
		day(2024, time.March, 15, 23),
		day(2024, time.March, 1, 12),
		day(2024, time.February, 15, 0),  // first day of the window
		day(2024, time.February, 14, 23), // outside
		day(2024, time.March, 16, 0),     // future, outside
	}

	got := BucketByDay(events, today, 30)
	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	if got[0].Date != "2024-02-15" {
		t.Errorf("first date = %s, want 2024-02-15", got[0].Date)
	}
	if got[29].Date != "2024-03-15" {
		t.Errorf("last date = %s, want 2024-03-15", got[29].Date)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date <= got[i-1].Date {
			t.Fatalf("dates not ascending at %d: %s <= %s", i, got[i].Date, got[i-1].Date)
		}
	}

	want := map[string]int{"2024-03-15": 2, "2024-03-01": 1, "2024-02-15": 1}
	total := 0
	for _, d := range got {
		total += d.Count
		if d.Count != want[d.Date] {
			t.Errorf("%s count = %d, want %d", d.Date, d.Count, want[d.Date])
		}
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}

func TestBucketByDayNoEvents(t *testing.T) {
	got := BucketByDay(nil, day(2024, time.January, 3, 0), 7)
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	if got[0].Date != "2023-12-28" {
		t.Errorf("first date = %s, want 2023-12-28", got[0].Date)
	}
	for _, d := range got {
		if d.Count != 0 {
			t.Errorf("%s count = %d, want 0", d.Date, d.Count)
		}
	}
}

func TestBucketByDayUsesTodayLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	today := time.Date(2024, time.June, 10, 12, 0, 0, 0, loc)
	// 2024-06-09 20:00 UTC is already 2024-06-10 01:00 at UTC+5
	events := []time.Time{time.Date(2024, time.June, 9, 20, 0, 0, 0, time.UTC)}

	got := BucketByDay(events, today, 2)
	if got[1].Date != "2024-06-10" || got[1].Count != 1 {
		t.Errorf("got %+v, want the event on 2024-06-10", got)
	}
	if got[0].Count != 0 {
		t.Errorf("got %+v, want nothing on 2024-06-09", got)
	}
}

func TestBucketByDayZeroWindow(t *testing.T) {
	if got := BucketByDay([]time.Time{time.Now()}, time.Now(), 0); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestMergeSeries(t *testing.T) {
	comments := []DailyCount{{Date: "2024-01-01", Count: 2}, {Date: "2024-01-02", Count: 0}}
	likes := []DailyCount{{Date: "2024-01-01", Count: 1}, {Date: "2024-01-02", Count: 5}}

	got := MergeSeries(comments, likes)
	want := []EngagementDay{
		{Date: "2024-01-01", Comments: 2, Likes: 1},
		{Date: "2024-01-02", Comments: 0, Likes: 5},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMergeSeriesMisaligned(t *testing.T) {
	comments := []DailyCount{{Date: "2024-01-03", Count: 1}}
	likes := []DailyCount{{Date: "2024-01-01", Count: 4}}

	got := MergeSeries(comments, likes)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Date != "2024-01-01" || got[0].Likes != 4 || got[0].Comments != 0 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Date != "2024-01-03" || got[1].Comments != 1 || got[1].Likes != 0 {
		t.Errorf("got[1] = %+v", got[1])
	}
}
