// Package view implements the search input and the two display components
// of the site lookup widget, and the Page that wires them to a state.Store.
//
// Display components subscribe only to the events they need. On a domain
// change each one clears its region and starts its own fetch; when its
// collection is updated it appends one fragment per record.
package view

import (
	"context"
	"sync"

	"github.com/ka2n/sitelens/log"
	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/state"
	"github.com/morikuni/failure/v2"
)

// SearchInput writes submitted text into the store
type SearchInput struct {
	store *state.Store
}

// Submit sets the domain to value exactly as typed
func (s *SearchInput) Submit(value string) {
	s.store.SetDomain(value)
}

// component holds what both display components share
type component struct {
	ctx      context.Context
	store    *state.Store
	renderer render.Renderer
	region   Region
	wg       *sync.WaitGroup
	unsubs   []func()
}

// start runs fetch in the background. Its error has already been
// delivered through the store's failure event.
func (c *component) start(name string, fetch func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fetch(c.ctx); err != nil {
			log.Debug("Fetch failed", "component", name, "error", err)
		}
	}()
}

func (c *component) appendRendered(name string, data any) {
	fragment, err := c.renderer.Render(name, data)
	if err != nil {
		log.Error("Render failed", "template", name, "error", err)
		return
	}
	c.region.Append(fragment)
}

func (c *component) fail(name string, err error) {
	msg := err.Error()
	if fmsg := failure.MessageOf(err); fmsg != "" {
		msg = fmsg.String()
	}
	fragment, rerr := c.renderer.Render(name, msg)
	if rerr != nil {
		log.Error("Render failed", "template", name, "error", rerr)
		return
	}
	c.region.Fail(fragment)
}

func (c *component) close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
}

// SiteDataView displays the site data collection
type SiteDataView struct {
	component
}

func newSiteDataView(c component) *SiteDataView {
	v := &SiteDataView{component: c}
	v.unsubs = []func(){
		v.store.Subscribe(state.EventChange, v.onChange),
		v.store.Subscribe(state.EventSiteDataUpdated, v.onUpdated),
		v.store.Subscribe(state.EventSiteDataFailed, v.onFailed),
	}
	return v
}

func (v *SiteDataView) onChange(state.Snapshot) {
	v.region.Clear()
	v.start("siteData", v.store.FetchSiteData)
}

func (v *SiteDataView) onUpdated(snap state.Snapshot) {
	for _, entry := range snap.SiteData {
		v.appendRendered(render.SiteDataItem, entry)
	}
}

func (v *SiteDataView) onFailed(snap state.Snapshot) {
	v.fail(render.SiteDataError, snap.Err)
}

// RelatedLinksView displays the related links collection
type RelatedLinksView struct {
	component
}

func newRelatedLinksView(c component) *RelatedLinksView {
	v := &RelatedLinksView{component: c}
	v.unsubs = []func(){
		v.store.Subscribe(state.EventChange, v.onChange),
		v.store.Subscribe(state.EventRelatedLinksUpdated, v.onUpdated),
		v.store.Subscribe(state.EventRelatedLinksFailed, v.onFailed),
	}
	return v
}

func (v *RelatedLinksView) onChange(state.Snapshot) {
	v.region.Clear()
	v.start("relatedLinks", v.store.FetchRelatedLinks)
}

func (v *RelatedLinksView) onUpdated(snap state.Snapshot) {
	for _, link := range snap.RelatedLinks {
		v.appendRendered(render.RelatedLinkItem, link)
	}
}

func (v *RelatedLinksView) onFailed(snap state.Snapshot) {
	v.fail(render.RelatedLinkError, snap.Err)
}
