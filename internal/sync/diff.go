package sync

import (
	"fmt"

	"github.com/IgnisDa/trackona/internal/media"
)

// diffSnapshots compares the stored snapshot against the freshly fetched
// one and produces a human-readable notice per detected change. Fields are
// only compared when both sides carry a value.
func (s *Service) diffSnapshots(stored media.Metadata, details media.Details) []media.Notification {
	var out []media.Notification
	push := func(msg string, kind media.ChangeKind) {
		out = append(out, media.Notification{Message: msg, Kind: kind})
	}

	if stored.ProductionStatus != nil && details.ProductionStatus != nil &&
		*stored.ProductionStatus != *details.ProductionStatus {
		push(fmt.Sprintf("Status changed from %q to %q",
			*stored.ProductionStatus, *details.ProductionStatus), media.ChangeStatus)
	}
	if stored.PublishYear != nil && details.PublishYear != nil &&
		*stored.PublishYear != *details.PublishYear {
		push(fmt.Sprintf("Publish year from %d to %d",
			*stored.PublishYear, *details.PublishYear), media.ChangeReleaseDate)
	}

	if before, after := stored.Specifics.Show, details.Specifics.Show; before != nil && after != nil {
		out = append(out, s.diffShow(before, after)...)
	}
	if before, after := stored.Specifics.Anime, details.Specifics.Anime; before != nil && after != nil {
		if before.Episodes != nil && after.Episodes != nil && *before.Episodes != *after.Episodes {
			push(fmt.Sprintf("Number of episodes changed from %d to %d",
				*before.Episodes, *after.Episodes), media.ChangeChaptersOrEpisodes)
		}
	}
	if before, after := stored.Specifics.Manga, details.Specifics.Manga; before != nil && after != nil {
		if before.Chapters != nil && after.Chapters != nil && !before.Chapters.Equal(*after.Chapters) {
			push(fmt.Sprintf("Number of chapters changed from %s to %s",
				before.Chapters, after.Chapters), media.ChangeChaptersOrEpisodes)
		}
	}
	if before, after := stored.Specifics.Podcast, details.Specifics.Podcast; before != nil && after != nil {
		out = append(out, diffPodcast(before, after)...)
	}

	for i := range out {
		out[i].Message = fmt.Sprintf("%s for %q.", out[i].Message, stored.Title)
	}
	return out
}

// diffShow walks both season lists pairwise by index. A season-count
// mismatch short-circuits to a single notice; an episode-count mismatch
// short-circuits the per-episode walk for that season pair.
func (s *Service) diffShow(before, after *media.ShowSpecifics) []media.Notification {
	var out []media.Notification
	push := func(msg string, kind media.ChangeKind) {
		out = append(out, media.Notification{Message: msg, Kind: kind})
	}

	if len(before.Seasons) != len(after.Seasons) {
		push(fmt.Sprintf("Number of seasons changed from %d to %d",
			len(before.Seasons), len(after.Seasons)), media.ChangeNumberOfSeasons)
		return out
	}

	for i := range before.Seasons {
		s1, s2 := &before.Seasons[i], &after.Seasons[i]
		if s.isSpecialSeason(s1.Name) && s.isSpecialSeason(s2.Name) {
			continue
		}
		if len(s1.Episodes) != len(s2.Episodes) {
			push(fmt.Sprintf("Number of episodes changed from %d to %d (Season %d)",
				len(s1.Episodes), len(s2.Episodes), s1.SeasonNumber), media.ChangeEpisodeReleased)
			continue
		}
		for j := range s1.Episodes {
			e1, e2 := &s1.Episodes[j], &s2.Episodes[j]
			if e1.Name != e2.Name {
				push(fmt.Sprintf("Episode name changed from %q to %q (S%dE%d)",
					e1.Name, e2.Name, s1.SeasonNumber, e1.EpisodeNumber), media.ChangeEpisodeName)
			}
			if !stringSlicesEqual(e1.PosterImages, e2.PosterImages) {
				push(fmt.Sprintf("Episode image changed for S%dE%d",
					s1.SeasonNumber, e1.EpisodeNumber), media.ChangeEpisodeImages)
			}
			if e1.PublishDate != nil && e2.PublishDate != nil && !e1.PublishDate.Equal(*e2.PublishDate) {
				push(fmt.Sprintf("Episode release date changed from %s to %s (S%dE%d)",
					e1.PublishDate.Format("2006-01-02"), e2.PublishDate.Format("2006-01-02"),
					s1.SeasonNumber, e1.EpisodeNumber), media.ChangeReleaseDate)
			}
		}
	}
	return out
}

func diffPodcast(before, after *media.PodcastSpecifics) []media.Notification {
	var out []media.Notification
	push := func(msg string, kind media.ChangeKind) {
		out = append(out, media.Notification{Message: msg, Kind: kind})
	}

	if len(before.Episodes) != len(after.Episodes) {
		push(fmt.Sprintf("Number of episodes changed from %d to %d",
			len(before.Episodes), len(after.Episodes)), media.ChangeEpisodeReleased)
		return out
	}
	for i := range before.Episodes {
		e1, e2 := &before.Episodes[i], &after.Episodes[i]
		if e1.Title != e2.Title {
			push(fmt.Sprintf("Episode name changed from %q to %q (EP%d)",
				e1.Title, e2.Title, e1.Number), media.ChangeEpisodeName)
		}
		if !stringPtrEqual(e1.Thumbnail, e2.Thumbnail) {
			push(fmt.Sprintf("Episode image changed for EP%d", e1.Number), media.ChangeEpisodeImages)
		}
	}
	return out
}

func (s *Service) isSpecialSeason(name string) bool {
	for _, special := range s.specialSeasons {
		if name == special {
			return true
		}
	}
	return false
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
