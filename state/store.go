// Package state holds the shared site state observed by the display
// components: the searched domain, the site data and related link
// collections, and the markers that keep a domain from being fetched twice.
package state

import (
	"context"
	"slices"
	"sync"

	"github.com/ka2n/sitelens/api/site"
	"github.com/ka2n/sitelens/log"
)

// Event identifies a notification emitted by the Store
type Event int

const (
	// EventChange fires when the domain changes, before any fetch starts
	EventChange Event = iota
	// EventSiteDataUpdated fires when the site data collection has been repopulated
	EventSiteDataUpdated
	// EventRelatedLinksUpdated fires when the related links collection has been repopulated
	EventRelatedLinksUpdated
	// EventSiteDataFailed fires when the site data fetch for the current domain failed
	EventSiteDataFailed
	// EventRelatedLinksFailed fires when the related links fetch for the current domain failed
	EventRelatedLinksFailed
)

var eventNames = map[Event]string{
	EventChange:              "change",
	EventSiteDataUpdated:     "update:siteData",
	EventRelatedLinksUpdated: "update:relatedLinks",
	EventSiteDataFailed:      "error:siteData",
	EventRelatedLinksFailed:  "error:relatedLinks",
}

func (e Event) String() string {
	return eventNames[e]
}

// Snapshot is an immutable view of the Store handed to subscribers
type Snapshot struct {
	Domain       string
	SiteData     []site.DataEntry
	RelatedLinks []site.RelatedLink
	// Err is set for the failure events
	Err error
}

// Handler receives notifications. Handlers run one at a time and must not
// call back into the Store synchronously.
type Handler func(Snapshot)

// Fetcher retrieves the records for a domain
type Fetcher interface {
	FetchSiteData(ctx context.Context, domain string) ([]site.DataEntry, error)
	FetchRelatedLinks(ctx context.Context, domain string) ([]site.RelatedLink, error)
}

// marker records the domain a collection was last fetched for.
// gen identifies the fetch so superseded responses can be dropped.
type marker struct {
	domain string
	set    bool
	gen    uint64
}

func (m marker) matches(domain string) bool {
	return m.set && m.domain == domain
}

type subscription struct {
	id      uint64
	handler Handler
}

// Store is the single source of truth for one page session
type Store struct {
	fetcher Fetcher

	mu           sync.Mutex
	domain       string
	domainSet    bool
	siteData     []site.DataEntry
	relatedLinks []site.RelatedLink
	siteMarker   marker
	linksMarker  marker
	gen          uint64

	nextID uint64
	subs   map[Event][]subscription
}

// New creates an empty Store backed by fetcher
func New(fetcher Fetcher) *Store {
	return &Store{
		fetcher: fetcher,
		subs:    make(map[Event][]subscription),
	}
}

// Subscribe registers h for ev and returns a function that removes it
func (s *Store) Subscribe(ev Event, h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[ev] = append(s.subs[ev], subscription{id: id, handler: h})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[ev] = slices.DeleteFunc(s.subs[ev], func(sub subscription) bool {
			return sub.id == id
		})
	}
}

// notify calls the handlers for ev. s.mu must be held, which serializes
// notifications with the state changes they describe.
func (s *Store) notify(ev Event, err error) {
	snap := s.snapshot()
	snap.Err = err

	log.Debug("Site state event", "event", ev.String(), "domain", snap.Domain)
	for _, sub := range slices.Clone(s.subs[ev]) {
		sub.handler(snap)
	}
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{
		Domain:       s.domain,
		SiteData:     slices.Clone(s.siteData),
		RelatedLinks: slices.Clone(s.relatedLinks),
	}
}

// SetDomain stores value as the searched domain and notifies EventChange
// when it differs from the current one. The value is kept verbatim.
// Both markers are reset, so responses still in flight for the previous
// domain are dropped when they arrive.
func (s *Store) SetDomain(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.domainSet && s.domain == value {
		return
	}
	s.domain = value
	s.domainSet = true
	s.siteMarker = marker{}
	s.linksMarker = marker{}
	s.siteData = nil
	s.relatedLinks = nil
	s.notify(EventChange, nil)
}

// Domain returns the searched domain
func (s *Store) Domain() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain
}

// SiteData returns a copy of the site data collection
func (s *Store) SiteData() []site.DataEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.siteData)
}

// RelatedLinks returns a copy of the related links collection
func (s *Store) RelatedLinks() []site.RelatedLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.relatedLinks)
}

// FetchSiteData repopulates the site data collection for the current domain.
// It is a no-op when the collection was already fetched for this domain.
func (s *Store) FetchSiteData(ctx context.Context) error {
	s.mu.Lock()
	if s.siteMarker.matches(s.domain) {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	s.siteMarker = marker{domain: s.domain, set: true, gen: s.gen}
	s.siteData = nil
	req := s.siteMarker
	s.mu.Unlock()

	entries, err := s.fetcher.FetchSiteData(ctx, req.domain)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.siteMarker.gen != req.gen {
		log.Debug("Dropping superseded site data", "domain", req.domain)
		return nil
	}
	if err != nil {
		s.notify(EventSiteDataFailed, err)
		return err
	}
	s.siteData = entries
	s.notify(EventSiteDataUpdated, nil)
	return nil
}

// FetchRelatedLinks repopulates the related links collection for the current
// domain. It is a no-op when the collection was already fetched for this domain.
func (s *Store) FetchRelatedLinks(ctx context.Context) error {
	s.mu.Lock()
	if s.linksMarker.matches(s.domain) {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	s.linksMarker = marker{domain: s.domain, set: true, gen: s.gen}
	s.relatedLinks = nil
	req := s.linksMarker
	s.mu.Unlock()

	links, err := s.fetcher.FetchRelatedLinks(ctx, req.domain)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linksMarker.gen != req.gen {
		log.Debug("Dropping superseded related links", "domain", req.domain)
		return nil
	}
	if err != nil {
		s.notify(EventRelatedLinksFailed, err)
		return err
	}
	s.relatedLinks = links
	s.notify(EventRelatedLinksUpdated, nil)
	return nil
}
