package media

import "time"

// DailyUserActivity is one per-(user, calendar date) activity row. Rows
// after the resume checkpoint are always freshly inserted, never merged.
type DailyUserActivity struct {
	UserID string
	Date   time.Time // midnight in the configured timezone

	HourCounts      map[int]int
	MostActiveHour  *int
	LeastActiveHour *int

	ReviewCount      int
	WorkoutCount     int
	MeasurementCount int

	WorkoutDuration   int // minutes
	ShowDuration      int // minutes
	PodcastDuration   int // minutes
	MovieDuration     int // minutes
	AudioBookDuration int // minutes
	MusicDuration     int // minutes

	AnimeCount       int
	AudioBookCount   int
	BookCount        int
	MangaCount       int
	MovieCount       int
	MusicCount       int
	PodcastCount     int
	ShowCount        int
	VideoGameCount   int
	VisualNovelCount int

	TotalCount    int
	TotalDuration int
}

// Finalize derives the mode/antimode hours and the roll-up totals after all
// events for the date have been folded in. A flat histogram leaves both
// hour markers unset.
func (a *DailyUserActivity) Finalize() {
	var maxHour, minHour *int
	for hour, count := range a.HourCounts {
		h := hour
		if maxHour == nil || count > a.HourCounts[*maxHour] ||
			(count == a.HourCounts[*maxHour] && h < *maxHour) {
			maxHour = &h
		}
		if minHour == nil || count < a.HourCounts[*minHour] ||
			(count == a.HourCounts[*minHour] && h < *minHour) {
			minHour = &h
		}
	}
	if maxHour != nil && minHour != nil && a.HourCounts[*maxHour] == a.HourCounts[*minHour] {
		maxHour, minHour = nil, nil
	}
	a.MostActiveHour = maxHour
	a.LeastActiveHour = minHour

	a.TotalCount = a.ReviewCount + a.WorkoutCount + a.MeasurementCount +
		a.AnimeCount + a.AudioBookCount + a.BookCount + a.MangaCount +
		a.MovieCount + a.MusicCount + a.PodcastCount + a.ShowCount +
		a.VideoGameCount + a.VisualNovelCount
	a.TotalDuration = a.WorkoutDuration + a.ShowDuration + a.PodcastDuration +
		a.MovieDuration + a.AudioBookDuration + a.MusicDuration
}
