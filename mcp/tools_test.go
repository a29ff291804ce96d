package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ka2n/sitelens/api"
	"github.com/ka2n/sitelens/api/site"
	"github.com/mark3labs/mcp-go/mcp"
)

// newUpstream serves one record per mode and fails related links for broken.example
func newUpstream(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var (
		mu     sync.Mutex
		limits []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mu.Lock()
		limits = append(limits, q.Get("cli"))
		mu.Unlock()
		switch {
		case q.Get("dat") == "s":
			w.Write([]byte(`<ALEXA><SD><Rank Value="1200" Delta="+5"/></SD></ALEXA>`))
		case q.Get("url") == "broken.example":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			w.Write([]byte(`<ALEXA><RLS><RL TITLE="Foo" HREF="http://foo.example"/></RLS></ALEXA>`))
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &limits
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if len(result.Content) != 1 {
		t.Fatalf("Expected 1 content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestFetchSiteData(t *testing.T) {
	ts, limits := newUpstream(t)
	_, handler := FetchSiteData(api.NewClient(ts.URL, 10))

	result := callTool(t, handler, map[string]interface{}{"domain": "example.com", "limit": float64(5)})
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}

	var got []site.DataEntry
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []site.DataEntry{
		{Name: "Rank", Details: []site.Detail{{Name: "Value", Value: "1200"}, {Name: "Delta", Value: "+5"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchSiteData mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"5"}, *limits); diff != "" {
		t.Errorf("Limit mismatch (-want +got):\n%s", diff)
	}
}

func TestToolArgumentValidation(t *testing.T) {
	ts, _ := newUpstream(t)
	_, handler := FetchRelatedLinks(api.NewClient(ts.URL, 10))

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{name: "Missing domain", args: map[string]interface{}{}},
		{name: "Limit too large", args: map[string]interface{}{"domain": "example.com", "limit": float64(1000)}},
		{name: "Domain of wrong type", args: map[string]interface{}{"domain": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, handler, tt.args)
			if !result.IsError {
				t.Errorf("Expected tool error, got %s", resultText(t, result))
			}
		})
	}
}

func TestLookupSite(t *testing.T) {
	ts, _ := newUpstream(t)
	_, handler := LookupSite(api.NewClient(ts.URL, 10))

	tests := []struct {
		name          string
		domain        string
		wantLinks     int
		wantLinksFail bool
	}{
		{name: "Both halves", domain: "example.com", wantLinks: 1},
		{name: "Related links fail independently", domain: "broken.example", wantLinks: 0, wantLinksFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, handler, map[string]interface{}{"domain": tt.domain})
			if result.IsError {
				t.Fatalf("Unexpected tool error: %s", resultText(t, result))
			}

			var got SiteInfo
			if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Domain != tt.domain {
				t.Errorf("Expected domain %q, got %q", tt.domain, got.Domain)
			}
			if len(got.SiteData) != 1 || got.SiteDataError != "" {
				t.Errorf("Expected 1 site data entry and no error, got %v %q", got.SiteData, got.SiteDataError)
			}
			if len(got.RelatedLinks) != tt.wantLinks {
				t.Errorf("Expected %d related links, got %d", tt.wantLinks, len(got.RelatedLinks))
			}
			if (got.RelatedLinksError != "") != tt.wantLinksFail {
				t.Errorf("Unexpected related links error %q", got.RelatedLinksError)
			}
		})
	}
}
