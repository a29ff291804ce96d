package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ka2n/sitelens/api/site"
	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/state"
	"github.com/morikuni/failure/v2"
)

type stubFetcher struct {
	mu        sync.Mutex
	siteData  map[string][]site.DataEntry
	links     map[string][]site.RelatedLink
	siteErr   error
	siteCalls int
	linkCalls int
	// siteGates holds the site data fetch for a domain until closed
	siteGates map[string]chan struct{}
}

func (f *stubFetcher) FetchSiteData(ctx context.Context, domain string) ([]site.DataEntry, error) {
	f.mu.Lock()
	gate := f.siteGates[domain]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.siteCalls++
	if f.siteErr != nil {
		return nil, f.siteErr
	}
	return f.siteData[domain], nil
}

func (f *stubFetcher) FetchRelatedLinks(ctx context.Context, domain string) ([]site.RelatedLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	return f.links[domain], nil
}

// stubRenderer renders "name|data" so fragments are easy to compare
type stubRenderer struct{}

func (stubRenderer) Render(name string, data any) (string, error) {
	switch v := data.(type) {
	case site.DataEntry:
		return fmt.Sprintf("%s|%s", name, v.Name), nil
	case site.RelatedLink:
		return fmt.Sprintf("%s|%s", name, v.Title), nil
	default:
		return fmt.Sprintf("%s|%v", name, v), nil
	}
}

// opRegion records every call in order
type opRegion struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "clear")
}

func (r *opRegion) Append(fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "append "+fragment)
}

func (r *opRegion) Fail(fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "fail "+fragment)
}

// clearHookRegion records operations and runs onClear after each Clear
type clearHookRegion struct {
	opRegion
	clears  int
	onClear func(n int)
}

func (r *clearHookRegion) Clear() {
	r.opRegion.Clear()
	r.mu.Lock()
	r.clears++
	n := r.clears
	r.mu.Unlock()
	r.onClear(n)
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		siteData: map[string][]site.DataEntry{
			"a.example": {{Name: "Rank"}, {Name: "Speed"}},
			"b.example": {{Name: "Title"}},
		},
		links: map[string][]site.RelatedLink{
			"a.example": {{Title: "Foo"}, {Title: "Bar"}},
			"b.example": {},
		},
	}
}

func TestPageSubmit(t *testing.T) {
	f := newStubFetcher()
	siteRegion, linksRegion := &opRegion{}, &opRegion{}
	page := NewPage(context.Background(), state.New(f), stubRenderer{}, siteRegion, linksRegion)
	defer page.Close()

	page.Input.Submit("a.example")
	page.Wait()
	page.Input.Submit("b.example")
	page.Wait()

	wantSite := []string{
		"clear",
		"append siteData/item|Rank",
		"append siteData/item|Speed",
		"clear",
		"append siteData/item|Title",
	}
	if diff := cmp.Diff(wantSite, siteRegion.ops); diff != "" {
		t.Errorf("Site data region mismatch (-want +got):\n%s", diff)
	}

	wantLinks := []string{
		"clear",
		"append relatedLink/item|Foo",
		"append relatedLink/item|Bar",
		"clear",
	}
	if diff := cmp.Diff(wantLinks, linksRegion.ops); diff != "" {
		t.Errorf("Related links region mismatch (-want +got):\n%s", diff)
	}
}

func TestPageDropsResultsOfPreviousSearch(t *testing.T) {
	f := newStubFetcher()
	gate := make(chan struct{})
	f.siteGates = map[string]chan struct{}{"a.example": gate}

	// the a.example response is released while b.example is being announced,
	// before the b.example fetch has started
	siteRegion := &clearHookRegion{onClear: func(n int) {
		if n == 2 {
			close(gate)
		}
	}}
	linksRegion := &opRegion{}
	store := state.New(f)
	page := NewPage(context.Background(), store, stubRenderer{}, siteRegion, linksRegion)
	defer page.Close()

	page.Input.Submit("a.example")
	page.Input.Submit("b.example")
	page.Wait()

	want := []string{
		"clear",
		"clear",
		"append siteData/item|Title",
	}
	if diff := cmp.Diff(want, siteRegion.ops); diff != "" {
		t.Errorf("Site data region mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]site.DataEntry{{Name: "Title"}}, store.SiteData()); diff != "" {
		t.Errorf("SiteData() mismatch (-want +got):\n%s", diff)
	}
}

func TestPageSubmitSameDomain(t *testing.T) {
	f := newStubFetcher()
	var siteRegion, linksRegion Buffer
	page := NewPage(context.Background(), state.New(f), stubRenderer{}, &siteRegion, &linksRegion)
	defer page.Close()

	page.Input.Submit("a.example")
	page.Wait()
	page.Input.Submit("a.example")
	page.Wait()

	if f.siteCalls != 1 || f.linkCalls != 1 {
		t.Errorf("Expected one fetch per collection, got site=%d links=%d", f.siteCalls, f.linkCalls)
	}
	if got := len(siteRegion.Fragments()); got != 2 {
		t.Errorf("Expected 2 site data fragments, got %d", got)
	}
	if got := len(linksRegion.Fragments()); got != 2 {
		t.Errorf("Expected 2 related link fragments, got %d", got)
	}
}

func TestPageFetchFailure(t *testing.T) {
	f := newStubFetcher()
	f.siteErr = failure.New(errCode("Boom"), failure.Message("upstream returned 500"))

	var siteRegion, linksRegion Buffer
	page := NewPage(context.Background(), state.New(f), stubRenderer{}, &siteRegion, &linksRegion)
	defer page.Close()

	page.Input.Submit("a.example")
	page.Wait()

	if !siteRegion.Failed() {
		t.Error("Expected site data region to be marked failed")
	}
	if diff := cmp.Diff([]string{"siteData/error|upstream returned 500"}, siteRegion.Fragments()); diff != "" {
		t.Errorf("Site data fragments mismatch (-want +got):\n%s", diff)
	}
	if linksRegion.Failed() {
		t.Error("Expected related links region to be unaffected")
	}
	if got := len(linksRegion.Fragments()); got != 2 {
		t.Errorf("Expected 2 related link fragments, got %d", got)
	}

	// a plain error falls back to its text
	f.mu.Lock()
	f.siteErr = errors.New("dial tcp: refused")
	f.mu.Unlock()
	page.Input.Submit("b.example")
	page.Wait()

	if diff := cmp.Diff([]string{"siteData/error|dial tcp: refused"}, siteRegion.Fragments()); diff != "" {
		t.Errorf("Site data fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestPageClose(t *testing.T) {
	f := newStubFetcher()
	siteRegion, linksRegion := &opRegion{}, &opRegion{}
	store := state.New(f)
	page := NewPage(context.Background(), store, stubRenderer{}, siteRegion, linksRegion)

	page.Close()
	page.Input.Submit("a.example")
	page.Wait()

	if len(siteRegion.ops) != 0 || len(linksRegion.ops) != 0 {
		t.Errorf("Expected no region updates after Close, got %v %v", siteRegion.ops, linksRegion.ops)
	}
	if got := store.Domain(); got != "a.example" {
		t.Errorf("Expected input to keep writing the store, got %q", got)
	}
}

func TestPageWithTemplates(t *testing.T) {
	templates, err := render.New()
	if err != nil {
		t.Fatalf("render.New() error: %v", err)
	}

	f := newStubFetcher()
	f.siteData["a.example"] = []site.DataEntry{
		{Name: "Rank", Details: []site.Detail{{Name: "Value", Value: "1200"}}},
	}
	f.links["a.example"] = []site.RelatedLink{{Title: "Foo & Co", Href: "http://foo.example"}}

	var siteRegion, linksRegion Buffer
	page := NewPage(context.Background(), state.New(f), templates, &siteRegion, &linksRegion)
	defer page.Close()

	page.Input.Submit("a.example")
	page.Wait()

	wantLink := "<li><a href=\"http://foo.example\">Foo &amp; Co</a></li>\n"
	if diff := cmp.Diff([]string{wantLink}, linksRegion.Fragments()); diff != "" {
		t.Errorf("Related link fragments mismatch (-want +got):\n%s", diff)
	}
	if got := siteRegion.Fragments(); len(got) != 1 {
		t.Errorf("Expected 1 site data fragment, got %d", len(got))
	}
}

type errCode string

func (c errCode) ErrorCode() string {
	return string(c)
}
