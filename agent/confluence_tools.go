package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BaSui01/wikiflow/confluence"
	"github.com/BaSui01/wikiflow/llm"
)

// RegisterConfluenceTools wires the Confluence toolset into a
// registry.
func RegisterConfluenceTools(r *Registry, client *confluence.Client) {
	r.Register(&searchTool{client: client})
	r.Register(&getPageTool{client: client})
	r.Register(&createPageTool{client: client})
}

// toolResult formats a client call outcome the way the model expects:
// a success payload, the auth-required answer, or an error envelope.
func toolResult(toolName string, payload any, err error) (string, error) {
	if err != nil {
		if errors.Is(err, confluence.ErrNotAuthenticated) {
			return authRequiredResponse(toolName), nil
		}
		return errorResponse(fmt.Sprintf("%s failed", toolName), err.Error()), nil
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// searchTool searches pages by text.
type searchTool struct {
	client *confluence.Client
}

func (t *searchTool) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "search_confluence_by_text",
		Description: "Search Confluence pages by text in title or content.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"search_text": {"type": "string", "description": "Text to search for"},
				"limit": {"type": "integer", "description": "Maximum number of results", "default": 10}
			},
			"required": ["search_text"]
		}`),
	}
}

func (t *searchTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		SearchText string `json:"search_text"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return errorResponse("invalid arguments", err.Error()), nil
	}

	result, err := t.client.SearchByText(ctx, params.SearchText, params.Limit)
	if err != nil {
		return toolResult("search_confluence_by_text", nil, err)
	}
	return toolResult("search_confluence_by_text", map[string]any{
		"success":     true,
		"search_text": result.SearchText,
		"total":       result.Total,
		"pages":       result.Pages,
	}, nil)
}

// getPageTool fetches one page.
type getPageTool struct {
	client *confluence.Client
}

func (t *getPageTool) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "get_confluence_page",
		Description: "Get the details and content of a Confluence page by its id.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"page_id": {"type": "string", "description": "Id of the page to fetch"}
			},
			"required": ["page_id"]
		}`),
	}
}

func (t *getPageTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		PageID string `json:"page_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return errorResponse("invalid arguments", err.Error()), nil
	}

	page, err := t.client.GetPage(ctx, params.PageID)
	if err != nil {
		return toolResult("get_confluence_page", nil, err)
	}
	return toolResult("get_confluence_page", map[string]any{
		"success": true,
		"page":    page,
	}, nil)
}

// createPageTool creates a page.
type createPageTool struct {
	client *confluence.Client
}

func (t *createPageTool) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "create_confluence_page",
		Description: "Create a new Confluence page in a space.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"space_key": {"type": "string", "description": "Key of the target space"},
				"title": {"type": "string", "description": "Page title"},
				"content": {"type": "string", "description": "Page content, plain text or storage-format HTML"},
				"parent_id": {"type": "string", "description": "Optional parent page id"}
			},
			"required": ["space_key", "title", "content"]
		}`),
	}
}

func (t *createPageTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		SpaceKey string `json:"space_key"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		ParentID string `json:"parent_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return errorResponse("invalid arguments", err.Error()), nil
	}

	created, err := t.client.CreatePage(ctx, confluence.CreatePageRequest{
		SpaceKey: params.SpaceKey,
		Title:    params.Title,
		Content:  params.Content,
		ParentID: params.ParentID,
	})
	if err != nil {
		return toolResult("create_confluence_page", nil, err)
	}
	return toolResult("create_confluence_page", map[string]any{
		"success":    true,
		"message":    fmt.Sprintf("Page created: %s", created.Title),
		"page_id":    created.ID,
		"page_title": created.Title,
		"space_id":   created.SpaceID,
	}, nil)
}
