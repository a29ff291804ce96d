package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/ka2n/sitelens/api/site"
	"github.com/ka2n/sitelens/config"
	"github.com/ka2n/sitelens/render"
)

type stubFetcher struct{}

func (stubFetcher) FetchSiteData(ctx context.Context, domain string) ([]site.DataEntry, error) {
	return []site.DataEntry{
		{Name: "Rank", Details: []site.Detail{{Name: "Value", Value: "1200"}}},
	}, nil
}

func (stubFetcher) FetchRelatedLinks(ctx context.Context, domain string) ([]site.RelatedLink, error) {
	return []site.RelatedLink{
		{Title: "Related to " + domain, Href: "http://related.example"},
	}, nil
}

// relayStub echoes the query it was asked to relay
var relayStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(r.URL.RawQuery))
})

func newTestServer(t *testing.T, cfg *config.Config, withWidget bool) *Server {
	t.Helper()

	var widget *Widget
	if withWidget {
		templates, err := render.New()
		if err != nil {
			t.Fatalf("render.New() error: %v", err)
		}
		widget = &Widget{Templates: templates, Fetcher: stubFetcher{}}
	}
	return New(cfg, relayStub, widget)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig(), false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestRelayRoute(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig(), false)

	req := httptest.NewRequest(http.MethodGet, RelayPath+"?dat=s&cli=10&url=example.com", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "dat=s&cli=10&url=example.com" {
		t.Errorf("expected query relayed unchanged, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header without allowed origins, got %q", got)
	}
}

func TestRelayCORS(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowedOrigins = []string{"https://a.example"}
	srv := newTestServer(t, cfg, false)

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://a.example", want: "https://a.example"},
		{origin: "https://evil.example", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, RelayPath+"?dat=n", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWidgetRoutes(t *testing.T) {
	tests := []struct {
		name       string
		withWidget bool
		wantStatus int
	}{
		{name: "serve", withWidget: true, wantStatus: http.StatusOK},
		{name: "relay only", withWidget: false, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, config.DefaultConfig(), tt.withWidget)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
					t.Errorf("expected HTML, got %q", ct)
				}
				if !strings.Contains(w.Body.String(), `class="form-container"`) {
					t.Error("expected the search form in the page")
				}
			}
		})
	}
}

func TestSession(t *testing.T) {
	srv := newTestServer(t, config.DefaultConfig(), true)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + SessionPath
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// malformed messages are ignored
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(clientMessage{Type: "search", Domain: "example.com"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := map[string][]string{}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for range 4 {
		var u RegionUpdate
		if err := conn.ReadJSON(&u); err != nil {
			t.Fatalf("read: %v", err)
		}
		got[u.Region] = append(got[u.Region], u.Op)
		if u.Region == RegionRelatedLinks && u.Op == OpAppend && !strings.Contains(u.HTML, "Related to example.com") {
			t.Errorf("unexpected related link fragment %q", u.HTML)
		}
	}

	want := map[string][]string{
		RegionSiteData:     {OpClear, OpAppend},
		RegionRelatedLinks: {OpClear, OpAppend},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("region updates mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionSendAfterWriterStopped(t *testing.T) {
	sess := newSession(nil)
	stop := make(chan struct{})
	close(stop)
	sess.writeLoop(stop)

	sent := make(chan struct{})
	go func() {
		for range sendQueue + 10 {
			sess.send(RegionUpdate{Region: RegionSiteData, Op: OpClear})
		}
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("send blocked after the writer stopped")
	}
}
