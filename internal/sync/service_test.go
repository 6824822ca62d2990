package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/jobs"
	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/provider"
	"github.com/IgnisDa/trackona/internal/store"
)

type fakeClient struct {
	details      media.Details
	detailsErr   error
	updatedSince bool
	sinceErr     error
	group        media.GroupDetails
	groupParts   []media.PartialMetadata

	detailsCalls int
	sinceCalls   int
}

func (f *fakeClient) MetadataDetails(_ context.Context, _ string) (media.Details, error) {
	f.detailsCalls++
	return f.details, f.detailsErr
}

func (f *fakeClient) MetadataUpdatedSince(_ context.Context, _ string, _ time.Time) (bool, error) {
	f.sinceCalls++
	return f.updatedSince, f.sinceErr
}

func (f *fakeClient) MetadataGroupDetails(_ context.Context, _ string) (media.GroupDetails, []media.PartialMetadata, error) {
	return f.group, f.groupParts, nil
}

func (f *fakeClient) PersonDetails(_ context.Context, _ string) (media.Person, error) {
	return media.Person{}, nil
}

func (f *fakeClient) Search(_ context.Context, _ string, _ int) (provider.SearchResults, error) {
	return provider.SearchResults{}, nil
}

type syncEnv struct {
	service      *Service
	metadata     *store.InMemoryMetadataRepository
	associations *store.InMemoryAssociationRepository
	groups       *store.InMemoryGroupRepository
	monitored    *store.InMemoryMonitoredRepository
	preferences  *store.InMemoryPreferencesRepository
	queue        *jobs.MemoryQueue
	client       *fakeClient
}

func newSyncEnv(t *testing.T, lot media.Lot) *syncEnv {
	t.Helper()
	env := &syncEnv{
		metadata:     store.NewInMemoryMetadataRepository(),
		associations: store.NewInMemoryAssociationRepository(),
		groups:       store.NewInMemoryGroupRepository(),
		monitored:    store.NewInMemoryMonitoredRepository(),
		preferences:  store.NewInMemoryPreferencesRepository(),
		queue:        jobs.NewMemoryQueue(),
		client:       &fakeClient{updatedSince: true},
	}
	registry := provider.NewRegistry()
	registry.Register(lot, media.SourceCustom, env.client)
	env.service = NewService(
		zap.NewNop(), env.metadata, env.associations, env.groups,
		env.monitored, env.preferences, registry, env.queue, Options{},
	)
	return env
}

func showDetails(title string, seasons ...media.ShowSeason) media.Details {
	return media.Details{
		Lot:        media.LotShow,
		Source:     media.SourceCustom,
		Identifier: "show-1",
		Title:      title,
		Specifics:  media.Specifics{Show: &media.ShowSpecifics{Seasons: seasons}},
	}
}

func season(number int, name string, episodes int) media.ShowSeason {
	s := media.ShowSeason{SeasonNumber: number, Name: name}
	for i := 1; i <= episodes; i++ {
		s.Episodes = append(s.Episodes, media.ShowEpisode{
			EpisodeNumber: i,
			Name:          "Episode " + string(rune('0'+i)),
		})
	}
	return s
}

func TestRefresh_ShortCircuitsWhenUnchanged(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, err := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	env.client.updatedSince = false

	notifications, err := env.service.Refresh(ctx, stored.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 0 {
		t.Fatalf("notifications = %d, want none", len(notifications))
	}
	if env.client.detailsCalls != 0 {
		t.Fatal("unchanged entity must not trigger a full fetch")
	}
}

func TestRefresh_EpisodeCountChange(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)
	env.client.details = showDetails("Orbit", season(1, "Season 1", 4))

	notifications, err := env.service.Refresh(ctx, stored.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications = %v, want exactly one episode-count notice", notifications)
	}
	if notifications[0].Kind != media.ChangeEpisodeReleased {
		t.Fatalf("kind = %s, want episode_released", notifications[0].Kind)
	}
	if notifications[0].Message != `Number of episodes changed from 3 to 4 (Season 1) for "Orbit".` {
		t.Fatalf("unexpected message: %s", notifications[0].Message)
	}
}

func TestRefresh_EpisodeNameChange(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	before := season(1, "Season 1", 3)
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", before), false)

	after := season(1, "Season 1", 3)
	after.Episodes[2].Name = "Renamed"
	env.client.details = showDetails("Orbit", after)

	notifications, err := env.service.Refresh(ctx, stored.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications = %v, want exactly one name notice", notifications)
	}
	if notifications[0].Kind != media.ChangeEpisodeName {
		t.Fatalf("kind = %s, want episode_name_changed", notifications[0].Kind)
	}
}

func TestRefresh_SeasonCountChange(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)
	env.client.details = showDetails("Orbit", season(1, "Season 1", 3), season(2, "Season 2", 2))

	notifications, err := env.service.Refresh(ctx, stored.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Kind != media.ChangeNumberOfSeasons {
		t.Fatalf("notifications = %v, want one season-count notice", notifications)
	}
}

func TestRefresh_SpecialSeasonsSkipped(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	before := season(0, "Specials", 2)
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", before), false)

	after := season(0, "Specials", 2)
	after.Episodes[0].Name = "Renamed Special"
	env.client.details = showDetails("Orbit", after)

	notifications, err := env.service.Refresh(ctx, stored.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifications) != 0 {
		t.Fatalf("special seasons must not be diffed, got %v", notifications)
	}
}

func TestRefresh_ProviderFailureLeavesSnapshot(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)
	env.client.detailsErr = errors.New("upstream down")

	if _, err := env.service.Refresh(ctx, stored.ID, true); err == nil {
		t.Fatal("provider failure should surface to the caller")
	}
	got, _ := env.metadata.GetByID(ctx, stored.ID)
	if got.Title != "Orbit" || len(got.Specifics.Show.Seasons) != 1 {
		t.Fatal("failed refresh must leave the stored snapshot untouched")
	}
}

func TestRefresh_PersistsSnapshotAndAssociations(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)

	details := showDetails("Orbit: Redux", season(1, "Season 1", 3))
	details.Genres = []string{"Drama"}
	details.GroupIdentifiers = []string{"franchise-9"}
	env.client.details = details

	if _, err := env.service.Refresh(ctx, stored.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.metadata.GetByID(ctx, stored.ID)
	if got.Title != "Orbit: Redux" {
		t.Fatalf("title = %s, snapshot should be overwritten", got.Title)
	}
	committed, ok := env.associations.Edges(stored.ID)
	if !ok || len(committed.Genres) != 1 {
		t.Fatal("association edges should be rewritten from the new snapshot")
	}
	if len(env.queue.Associations) != 1 || env.queue.Associations[0].Identifier != "franchise-9" {
		t.Fatalf("group jobs = %+v, want one for franchise-9", env.queue.Associations)
	}
}

func TestRefreshAndNotify_FanOutFiltersByPreference(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)
	env.client.details = showDetails("Orbit", season(1, "Season 1", 4))

	env.monitored.Add(media.MonitoredEntity{UserID: "subscriber", EntityID: stored.ID, EntityLot: media.EntityLotMetadata})
	env.monitored.Add(media.MonitoredEntity{UserID: "muted", EntityID: stored.ID, EntityLot: media.EntityLotMetadata})
	env.preferences.SetNotificationPreferences("subscriber", media.NotificationPreferences{
		Enabled: true,
		ToSend:  []media.ChangeKind{media.ChangeEpisodeReleased},
	})
	env.preferences.SetNotificationPreferences("muted", media.NotificationPreferences{Enabled: false})

	if err := env.service.RefreshAndNotify(ctx, stored.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delivered := env.queue.Delivered()
	if len(delivered) != 1 || delivered[0].UserID != "subscriber" {
		t.Fatalf("delivered = %+v, want a single delivery to subscriber", delivered)
	}
}

func TestCommit_ExistingRowSkipsProvider(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	stored, _ := env.metadata.Insert(ctx, showDetails("Orbit", season(1, "Season 1", 3)), false)

	got, err := env.service.Commit(ctx, media.LotShow, media.SourceCustom, "show-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != stored.ID {
		t.Fatalf("commit returned %s, want existing row %s", got.ID, stored.ID)
	}
	if env.client.detailsCalls != 0 {
		t.Fatal("existing row must not trigger a provider fetch")
	}
}

func TestCommit_MissingRowFetchesAndInserts(t *testing.T) {
	env := newSyncEnv(t, media.LotShow)
	ctx := context.Background()
	env.client.details = showDetails("Orbit", season(1, "Season 1", 3))

	got, err := env.service.Commit(ctx, media.LotShow, media.SourceCustom, "show-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Orbit" || got.IsPartial {
		t.Fatalf("committed row = %+v, want a full Orbit snapshot", got)
	}
	if _, ok := env.associations.Edges(got.ID); !ok {
		t.Fatal("commit should build associations inline")
	}
}

func TestAssociateGroup_LinksParts(t *testing.T) {
	env := newSyncEnv(t, media.LotBook)
	ctx := context.Background()
	env.client.group = media.GroupDetails{
		Identifier: "series-1",
		Lot:        media.LotBook,
		Source:     media.SourceCustom,
		Title:      "The Expanse",
		Parts:      2,
	}
	env.client.groupParts = []media.PartialMetadata{
		{Identifier: "book-1", Lot: media.LotBook, Source: media.SourceCustom, Title: "Leviathan Wakes"},
		{Identifier: "book-2", Lot: media.LotBook, Source: media.SourceCustom, Title: "Caliban's War"},
	}

	if err := env.service.AssociateGroup(ctx, media.LotBook, media.SourceCustom, "series-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	groupID, err := env.groups.GetOrCreate(ctx, env.client.group)
	if err != nil {
		t.Fatalf("group lookup: %v", err)
	}
	if parts := env.groups.Parts(groupID); len(parts) != 2 {
		t.Fatalf("linked parts = %v, want 2", parts)
	}
	if _, err := env.metadata.FindByIdentity(ctx, media.LotBook, media.SourceCustom, "book-2"); err != nil {
		t.Fatal("group parts should exist as partial metadata rows")
	}
}
