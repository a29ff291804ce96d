package view

import (
	"context"
	"sync"

	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/state"
)

// Page wires the search input and the display components to one store
type Page struct {
	Input        *SearchInput
	SiteData     *SiteDataView
	RelatedLinks *RelatedLinksView

	wg *sync.WaitGroup
}

// NewPage composes the widget. Fetches started by the display components
// run with ctx.
func NewPage(ctx context.Context, store *state.Store, renderer render.Renderer, siteRegion, linksRegion Region) *Page {
	wg := &sync.WaitGroup{}
	base := component{
		ctx:      ctx,
		store:    store,
		renderer: renderer,
		wg:       wg,
	}

	siteComponent := base
	siteComponent.region = siteRegion
	linksComponent := base
	linksComponent.region = linksRegion

	return &Page{
		Input:        &SearchInput{store: store},
		SiteData:     newSiteDataView(siteComponent),
		RelatedLinks: newRelatedLinksView(linksComponent),
		wg:           wg,
	}
}

// Wait blocks until every fetch started so far has finished
func (p *Page) Wait() {
	p.wg.Wait()
}

// Close detaches the display components from the store
func (p *Page) Close() {
	p.SiteData.close()
	p.RelatedLinks.close()
}
