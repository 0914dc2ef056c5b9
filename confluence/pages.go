package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/types"
)

// PageSummary is one search hit.
type PageSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Space   string `json:"space"`
	Excerpt string `json:"excerpt,omitempty"`
	URL     string `json:"url"`
}

// SearchResult is the outcome of a text search.
type SearchResult struct {
	SearchText string        `json:"search_text"`
	Total      int           `json:"total"`
	Pages      []PageSummary `json:"pages"`
}

// Page is a full page with storage-format content.
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	SpaceID string `json:"spaceId"`
	Version int    `json:"version"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// CreatePageRequest describes a page to create. ParentID is optional.
type CreatePageRequest struct {
	SpaceKey string
	Title    string
	Content  string
	ParentID string
}

// CreatedPage is the result of a page creation.
type CreatedPage struct {
	ID      string `json:"page_id"`
	Title   string `json:"page_title"`
	SpaceID string `json:"space_id"`
}

// searchResponse mirrors the v1 content search payload.
type searchResponse struct {
	TotalSize int `json:"totalSize"`
	Results   []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Space struct {
			Name string `json:"name"`
		} `json:"space"`
		Excerpt string `json:"excerpt"`
		Links   struct {
			WebUI string `json:"webui"`
		} `json:"_links"`
	} `json:"results"`
}

// SearchByText searches pages whose title or text matches searchText.
func (c *Client) SearchByText(ctx context.Context, searchText string, limit int) (*SearchResult, error) {
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}

	cql := fmt.Sprintf("type=page AND (title~'%s' OR text~'%s')", searchText, searchText)
	query := url.Values{}
	query.Set("cql", cql)
	query.Set("limit", limitOrDefault(limit))

	var resp searchResponse
	if err := c.get(ctx, cred, "search", "/wiki/rest/api/content/search", query, &resp); err != nil {
		return nil, err
	}

	result := &SearchResult{
		SearchText: searchText,
		Total:      resp.TotalSize,
		Pages:      make([]PageSummary, 0, len(resp.Results)),
	}
	for _, page := range resp.Results {
		space := page.Space.Name
		if space == "" {
			space = "N/A"
		}
		result.Pages = append(result.Pages, PageSummary{
			ID:      page.ID,
			Title:   page.Title,
			Space:   space,
			Excerpt: page.Excerpt,
			URL:     fmt.Sprintf("https://%s.atlassian.net/wiki%s", cred.CloudID, page.Links.WebUI),
		})
	}
	return result, nil
}

// pageResponse mirrors the v2 page payload.
type pageResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	SpaceID string `json:"spaceId"`
	Status  string `json:"status"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

// GetPage fetches a page by id with storage-format body.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	// v2 requires an explicit body-format.
	query.Set("body-format", "storage")

	var resp pageResponse
	path := fmt.Sprintf("/wiki/api/v2/pages/%s", pageID)
	if err := c.get(ctx, cred, "get_page", path, query, &resp); err != nil {
		return nil, err
	}

	version := resp.Version.Number
	if version == 0 {
		version = 1
	}
	return &Page{
		ID:      resp.ID,
		Title:   resp.Title,
		SpaceID: resp.SpaceID,
		Version: version,
		Content: resp.Body.Storage.Value,
		Status:  resp.Status,
	}, nil
}

// spacesResponse mirrors the v2 spaces payload.
type spacesResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// SpaceIDByKey resolves a space key to the space id required by the
// v2 API. An unknown key yields ErrSpaceNotFound.
func (c *Client) SpaceIDByKey(ctx context.Context, spaceKey string) (string, error) {
	cred, err := c.credential()
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("keys", spaceKey)
	query.Set("limit", "1")

	var resp spacesResponse
	if err := c.get(ctx, cred, "resolve_space", "/wiki/api/v2/spaces", query, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 || resp.Results[0].ID == "" {
		return "", types.NewError(types.ErrSpaceNotFound,
			fmt.Sprintf("space not found: %s", spaceKey)).WithHTTPStatus(404)
	}
	return resp.Results[0].ID, nil
}

// createPagePayload is the v2 page creation body.
type createPagePayload struct {
	SpaceID  string         `json:"spaceId"`
	Status   string         `json:"status"`
	Title    string         `json:"title"`
	ParentID string         `json:"parentId,omitempty"`
	Body     createPageBody `json:"body"`
}

type createPageBody struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// CreatePage creates a page in the space identified by key. Plain
// text content is wrapped in a paragraph tag for storage format.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*CreatedPage, error) {
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}

	spaceID, err := c.SpaceIDByKey(ctx, req.SpaceKey)
	if err != nil {
		return nil, err
	}

	content := req.Content
	if !strings.HasPrefix(content, "<") {
		content = "<p>" + content + "</p>"
	}

	payload := createPagePayload{
		SpaceID:  spaceID,
		Status:   "current",
		Title:    req.Title,
		ParentID: req.ParentID,
		Body: createPageBody{
			Representation: "storage",
			Value:          content,
		},
	}

	var resp pageResponse
	if err := c.post(ctx, cred, "create_page", "/wiki/api/v2/pages", payload, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("page created",
		zap.String("page_id", resp.ID),
		zap.String("title", resp.Title),
	)
	return &CreatedPage{ID: resp.ID, Title: resp.Title, SpaceID: spaceID}, nil
}
