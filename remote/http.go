// Copyright 2025 Docshelf Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docshelf/canopy/core"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 3 // requests per second
	defaultPageSize  = 100
)

// HTTPClient implements Client against a workspace content API over HTTP.
// Child listings are cursor-paginated; GetChildren follows cursors until
// the remote reports no more results.
type HTTPClient struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout.
// Default is 30 seconds.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithRateLimit sets the outbound request rate in requests per second.
// Default is 3.
func WithRateLimit(rps float64) HTTPOption {
	return func(c *HTTPClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithPageSize sets the page size requested from the children endpoint.
// Default is 100.
func WithPageSize(size int) HTTPOption {
	return func(c *HTTPClient) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithHTTPLogger sets a custom logger.
// Default is slog.Default().
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient creates a client for the content API at baseURL.
//
// Returns Client interface to enforce abstraction.
func NewHTTPClient(baseURL string, opts ...HTTPOption) (Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &HTTPClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		pageSize: defaultPageSize,
		client:   &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:   slog.Default().With("component", "remote-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// wireDocument is the document payload as the API sends it.
type wireDocument struct {
	Id           string            `json:"id"`
	Title        string            `json:"title"`
	ParentId     string            `json:"parent_id"`
	URL          string            `json:"url"`
	Archived     bool              `json:"archived"`
	CreatedAt    time.Time         `json:"created_at"`
	LastEditedAt time.Time         `json:"last_edited_at"`
	Properties   map[string]string `json:"properties"`
}

// wireNode is one block in a children listing.
type wireNode struct {
	Id           string    `json:"id"`
	Type         string    `json:"type"`
	Text         string    `json:"text"`
	HasChildren  bool      `json:"has_children"`
	CreatedAt    time.Time `json:"created_at"`
	LastEditedAt time.Time `json:"last_edited_at"`
}

// wireChildrenPage is one page of a cursor-paginated children listing.
type wireChildrenPage struct {
	Results    []wireNode `json:"results"`
	HasMore    bool       `json:"has_more"`
	NextCursor string     `json:"next_cursor"`
}

// GetDocument fetches one document's metadata by remote id.
func (c *HTTPClient) GetDocument(ctx context.Context, id string) (*core.RemoteDocument, error) {
	var doc wireDocument
	endpoint := fmt.Sprintf("%s/v1/documents/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, &doc); err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	return &core.RemoteDocument{
		Id:           doc.Id,
		Title:        doc.Title,
		ParentId:     doc.ParentId,
		URL:          doc.URL,
		Archived:     doc.Archived,
		CreatedAt:    doc.CreatedAt,
		LastEditedAt: doc.LastEditedAt,
		Properties:   doc.Properties,
	}, nil
}

// GetChildren fetches the immediate children of a node, following
// pagination cursors until the listing is exhausted.
func (c *HTTPClient) GetChildren(ctx context.Context, nodeId string) ([]*core.Node, error) {
	var nodes []*core.Node
	cursor := ""

	for {
		endpoint := fmt.Sprintf("%s/v1/nodes/%s/children?page_size=%d",
			c.baseURL, url.PathEscape(nodeId), c.pageSize)
		if cursor != "" {
			endpoint += "&start_cursor=" + url.QueryEscape(cursor)
		}

		var page wireChildrenPage
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("get children of %s: %w", nodeId, err)
		}

		for _, wire := range page.Results {
			nodes = append(nodes, &core.Node{
				Id:           wire.Id,
				Type:         nodeType(wire.Type),
				RawContent:   wire.Text,
				CreatedAt:    wire.CreatedAt,
				LastEditedAt: wire.LastEditedAt,
				HasChildren:  wire.HasChildren,
			})
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return nodes, nil
}

// getJSON performs one rate-limited GET and decodes the response body.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// nodeType maps a wire type string onto the known node types.
func nodeType(wire string) core.NodeType {
	switch t := core.NodeType(wire); t {
	case core.NodeTypeParagraph, core.NodeTypeHeading1, core.NodeTypeHeading2,
		core.NodeTypeHeading3, core.NodeTypeBulletedItem, core.NodeTypeNumberedItem,
		core.NodeTypeToDo, core.NodeTypeToggle, core.NodeTypeQuote,
		core.NodeTypeCallout, core.NodeTypeCode, core.NodeTypeDivider,
		core.NodeTypeImage, core.NodeTypeVideo, core.NodeTypeFile,
		core.NodeTypeEmbed, core.NodeTypeBookmark, core.NodeTypeTable,
		core.NodeTypeTableRow, core.NodeTypeChildPage:
		return t
	}
	return core.NodeTypeUnknown
}
