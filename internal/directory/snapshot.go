package directory

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"bhavcli/pkg/contracts/domain"
)

// Snapshot is a point-in-time copy of an exchange company directory
type Snapshot struct {
	CachedAt time.Time
	Entries  map[string]domain.Company
}

// Lookup returns the company listed under symbol
func (s Snapshot) Lookup(symbol string) (domain.Company, bool) {
	c, ok := s.Entries[symbol]
	return c, ok
}

// Len returns the number of companies in the snapshot
func (s Snapshot) Len() int {
	return len(s.Entries)
}

// IsEmpty reports whether the snapshot holds no companies
func (s Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

type snapshotMeta struct {
	CachedAt time.Time `json:"cached_at"`
}

// snapshotDocument is the persisted layout
type snapshotDocument struct {
	Meta      snapshotMeta              `json:"meta"`
	Companies map[string]domain.Company `json:"companies"`
}

func encodeSnapshot(s Snapshot) ([]byte, error) {
	companies := s.Entries
	if companies == nil {
		companies = map[string]domain.Company{}
	}
	return json.Marshal(snapshotDocument{
		Meta:      snapshotMeta{CachedAt: s.CachedAt},
		Companies: companies,
	})
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if doc.Meta.CachedAt.IsZero() || doc.Companies == nil {
		return nil, fmt.Errorf("%w: missing meta or companies", ErrCorruptSnapshot)
	}
	return &Snapshot{CachedAt: doc.Meta.CachedAt, Entries: doc.Companies}, nil
}

// StalenessPolicy decides when a cached snapshot must be refreshed
type StalenessPolicy string

const (
	// StaleDaily expires a snapshot once the calendar day changes
	StaleDaily StalenessPolicy = "daily"
	// StaleMonthly expires a snapshot once the calendar month changes
	StaleMonthly StalenessPolicy = "monthly"
)

// Valid reports whether p is a known policy
func (p StalenessPolicy) Valid() bool {
	return p == StaleDaily || p == StaleMonthly
}

// IsStale compares the calendar period of cachedAt with the one of now,
// both taken in now's location. Unknown policies behave like StaleDaily.
func (p StalenessPolicy) IsStale(cachedAt, now time.Time) bool {
	if cachedAt.IsZero() {
		return true
	}
	cached := civil.DateOf(cachedAt.In(now.Location()))
	today := civil.DateOf(now)

	if p == StaleMonthly {
		return cached.Year != today.Year || cached.Month != today.Month
	}
	return cached != today
}
