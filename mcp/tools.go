package mcp

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/ka2n/sitelens/api"
	"github.com/ka2n/sitelens/api/site"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"
)

var validate = validator.New()

// ToolArguments are the arguments shared by every tool
type ToolArguments struct {
	Domain string `json:"domain" validate:"required"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

func InitTools(client *api.Client) []server.ServerTool {
	tools := []server.ServerTool{}

	tools = append(tools, newServerTool(FetchSiteData(client)))
	tools = append(tools, newServerTool(FetchRelatedLinks(client)))
	tools = append(tools, newServerTool(LookupSite(client)))

	return tools
}

func newTool(name, description string) mcp.Tool {
	return mcp.NewTool(
		name,
		mcp.WithDescription(description),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain name (e.g. example.com)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records (1-100, default 10)")),
	)
}

// decodeArguments validates the request and returns a client honoring its limit
func decodeArguments(ctx context.Context, req mcp.CallToolRequest, client *api.Client) (ToolArguments, *api.Client, error) {
	var args ToolArguments
	if err := mapstructure.Decode(req.Params.Arguments, &args); err != nil {
		return args, nil, err
	}
	if err := validate.StructCtx(ctx, args); err != nil {
		return args, nil, err
	}

	c := *client
	if args.Limit > 0 {
		c.Limit = args.Limit
	}
	return args, &c, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func FetchSiteData(client *api.Client) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return newTool("fetch_site_data", "Fetch ranking and metadata records for a domain"),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, c, err := decodeArguments(ctx, req, client)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			entries, err := c.FetchSiteData(ctx, args.Domain)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(entries)
		}
}

func FetchRelatedLinks(client *api.Client) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return newTool("fetch_related_links", "Fetch sites related to a domain"),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, c, err := decodeArguments(ctx, req, client)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			links, err := c.FetchRelatedLinks(ctx, args.Domain)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(links)
		}
}

// SiteInfo is the result of lookup_site. A failed half carries its error
// and leaves the other half intact.
type SiteInfo struct {
	Domain            string             `json:"domain"`
	SiteData          []site.DataEntry   `json:"site_data"`
	SiteDataError     string             `json:"site_data_error,omitempty"`
	RelatedLinks      []site.RelatedLink `json:"related_links"`
	RelatedLinksError string             `json:"related_links_error,omitempty"`
}

func LookupSite(client *api.Client) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return newTool("lookup_site", "Fetch site data and related sites for a domain"),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, c, err := decodeArguments(ctx, req, client)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			info := SiteInfo{
				Domain:       args.Domain,
				SiteData:     []site.DataEntry{},
				RelatedLinks: []site.RelatedLink{},
			}

			var g errgroup.Group
			g.Go(func() error {
				entries, err := c.FetchSiteData(ctx, args.Domain)
				if err != nil {
					info.SiteDataError = err.Error()
					return nil
				}
				info.SiteData = entries
				return nil
			})
			g.Go(func() error {
				links, err := c.FetchRelatedLinks(ctx, args.Domain)
				if err != nil {
					info.RelatedLinksError = err.Error()
					return nil
				}
				info.RelatedLinks = links
				return nil
			})
			_ = g.Wait()

			return jsonResult(info)
		}
}
