package media

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metadata is the canonical stored snapshot of an entity. It is owned by
// the sync engine; everything else only reads it.
type Metadata struct {
	ID               string
	Lot              Lot
	Source           Source
	Identifier       string
	Title            string
	Description      *string
	PublishYear      *int
	PublishDate      *time.Time
	ProductionStatus *string
	OriginalLanguage *string
	ProviderRating   *decimal.Decimal
	Images           []string
	IsNSFW           *bool
	IsPartial        bool
	LastUpdatedOn    time.Time
	Specifics        Specifics
}

// PartialPerson identifies a person as known to a provider before the full
// record has been committed.
type PartialPerson struct {
	Identifier      string
	Source          Source
	Name            string
	Role            string
	Character       *string
	SourceSpecifics *string
}

// Person is a committed person row.
type Person struct {
	ID              string
	Identifier      string
	Source          Source
	SourceSpecifics *string
	Name            string
	IsPartial       bool
}

// PartialMetadata is a stub reference to another entity, enough to create a
// partial row when the target has not been committed yet.
type PartialMetadata struct {
	Identifier string
	Lot        Lot
	Source     Source
	Title      string
	Image      *string
}

// Details is the full snapshot returned by a provider fetch. The sync
// engine diffs it against the stored Metadata and then overwrites.
type Details struct {
	Lot              Lot
	Source           Source
	Identifier       string
	Title            string
	Description      *string
	PublishYear      *int
	PublishDate      *time.Time
	ProductionStatus *string
	OriginalLanguage *string
	ProviderRating   *decimal.Decimal
	Images           []string
	IsNSFW           *bool
	Specifics        Specifics

	Genres           []string
	People           []PartialPerson
	Suggestions      []PartialMetadata
	GroupIdentifiers []string
}

// GroupDetails is the provider snapshot of a metadata group (a book series,
// a movie collection and so on).
type GroupDetails struct {
	Identifier string
	Lot        Lot
	Source     Source
	Title      string
	Parts      int
	Image      *string
}

// Notification is one human-readable change notice produced by a refresh.
type Notification struct {
	Message string
	Kind    ChangeKind
}

// MonitoredEntity marks that a user wants change notifications for an
// entity. Mutated outside this core, read-only here.
type MonitoredEntity struct {
	UserID    string
	EntityID  string
	EntityLot EntityLot
}

// NotificationPreferences is the per-user filter applied during fan-out.
type NotificationPreferences struct {
	Enabled bool
	ToSend  []ChangeKind
}

// Wants reports whether the user subscribed to the given change kind.
func (p NotificationPreferences) Wants(kind ChangeKind) bool {
	if !p.Enabled {
		return false
	}
	for _, k := range p.ToSend {
		if k == kind {
			return true
		}
	}
	return false
}
