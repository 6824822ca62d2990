// Package media holds the canonical domain model shared by the progress
// engine, the sync engine and the statistics aggregator.
package media

// Lot is the kind of media an entity represents.
type Lot string

const (
	LotAnime       Lot = "anime"
	LotAudioBook   Lot = "audio_book"
	LotBook        Lot = "book"
	LotManga       Lot = "manga"
	LotMovie       Lot = "movie"
	LotMusic       Lot = "music"
	LotPodcast     Lot = "podcast"
	LotShow        Lot = "show"
	LotVideoGame   Lot = "video_game"
	LotVisualNovel Lot = "visual_novel"
)

// IsEpisodic reports whether consumption of this lot is tracked per
// episode-coordinate rather than as a single unit.
func (l Lot) IsEpisodic() bool {
	switch l {
	case LotShow, LotPodcast, LotAnime, LotManga:
		return true
	}
	return false
}

// Source is the upstream provider an entity was obtained from.
type Source string

const (
	SourceAnilist      Source = "anilist"
	SourceAudible      Source = "audible"
	SourceCustom       Source = "custom"
	SourceGoogleBooks  Source = "google_books"
	SourceIgdb         Source = "igdb"
	SourceItunes       Source = "itunes"
	SourceListennotes  Source = "listennotes"
	SourceMal          Source = "mal"
	SourceMangaUpdates Source = "manga_updates"
	SourceOpenlibrary  Source = "openlibrary"
	SourceTmdb         Source = "tmdb"
	SourceVndb         Source = "vndb"
)

// SeenState is the lifecycle state of a consumption session.
type SeenState string

const (
	SeenStateCompleted  SeenState = "completed"
	SeenStateDropped    SeenState = "dropped"
	SeenStateInProgress SeenState = "in_progress"
	SeenStateOnAHold    SeenState = "on_a_hold"
)

// EntityLot distinguishes the different entity tables an id can point into.
type EntityLot string

const (
	EntityLotMetadata      EntityLot = "metadata"
	EntityLotPerson        EntityLot = "person"
	EntityLotMetadataGroup EntityLot = "metadata_group"
	EntityLotCollection    EntityLot = "collection"
)

// ChangeKind classifies an upstream metadata change detected during a
// refresh. Users subscribe to change kinds individually.
type ChangeKind string

const (
	ChangeStatus             ChangeKind = "status_changed"
	ChangeReleaseDate        ChangeKind = "release_date_changed"
	ChangeNumberOfSeasons    ChangeKind = "number_of_seasons_changed"
	ChangeEpisodeReleased    ChangeKind = "episode_released"
	ChangeEpisodeName        ChangeKind = "episode_name_changed"
	ChangeEpisodeImages      ChangeKind = "episode_images_changed"
	ChangeChaptersOrEpisodes ChangeKind = "chapters_or_episodes_changed"
)

// Default collections maintained by the progress engine.
const (
	CollectionWatchlist  = "Watchlist"
	CollectionInProgress = "In Progress"
	CollectionCompleted  = "Completed"
	CollectionMonitoring = "Monitoring"
)
