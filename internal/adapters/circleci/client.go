// Package circleci provides a domain.PipelineClient backed by the CircleCI v2 API.
package circleci

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
)

// Logger defines the logging interface for the CircleCI client.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// tokenHeader carries the personal API token.
const tokenHeader = "Circle-Token"

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Client reads pipelines and workflows for a single project.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default cleanhttp client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API root derived from the project.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a Client for the project. An empty token sends
// unauthenticated requests, which only succeed for public projects.
func NewClient(project domain.Project, token string, log Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    project.APIBaseURL(),
		token:      token,
		httpClient: cleanhttp.DefaultClient(),
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pipelineListResponse struct {
	Items []struct {
		ID     string `json:"id"`
		Number int    `json:"number"`
		Errors []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"errors"`
		VCS struct {
			Revision string `json:"revision"`
			Branch   string `json:"branch"`
		} `json:"vcs"`
	} `json:"items"`
	NextPageToken string `json:"next_page_token"`
}

type workflowListResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Status     string `json:"status"`
		PipelineID string `json:"pipeline_id"`
	} `json:"items"`
	NextPageToken string `json:"next_page_token"`
}

// ListPipelines returns one page of pipelines for the branch, newest first.
func (c *Client) ListPipelines(ctx context.Context, branch, pageToken string) (*domain.PipelinePage, error) {
	query := url.Values{}
	query.Set("branch", branch)
	if pageToken != "" {
		query.Set("page-token", pageToken)
	}

	var resp pipelineListResponse
	if err := c.getJSON(ctx, "/pipeline", query, &resp); err != nil {
		return nil, err
	}

	page := &domain.PipelinePage{
		Items:         make([]domain.Pipeline, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		p := domain.Pipeline{
			ID:       item.ID,
			Number:   item.Number,
			Revision: item.VCS.Revision,
			Branch:   item.VCS.Branch,
		}
		for _, e := range item.Errors {
			p.Errors = append(p.Errors, domain.PipelineError{Type: e.Type, Message: e.Message})
		}
		page.Items = append(page.Items, p)
	}

	c.logger.Debug(ctx, "fetched pipeline page", map[string]interface{}{
		"branch":     branch,
		"page_token": pageToken,
		"pipelines":  len(page.Items),
		"has_next":   page.NextPageToken != "",
	})

	return page, nil
}

// ListWorkflows returns every workflow run of the pipeline, following
// workflow pagination until exhausted.
func (c *Client) ListWorkflows(ctx context.Context, pipelineID string) ([]domain.WorkflowRun, error) {
	endpoint := "/pipeline/" + url.PathEscape(pipelineID) + "/workflow"

	var runs []domain.WorkflowRun
	token := ""
	for {
		query := url.Values{}
		if token != "" {
			query.Set("page-token", token)
		}

		var resp workflowListResponse
		if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			runs = append(runs, domain.WorkflowRun{
				ID:         item.ID,
				Name:       item.Name,
				Status:     domain.WorkflowStatus(item.Status),
				PipelineID: item.PipelineID,
			})
		}

		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}

	c.logger.Debug(ctx, "fetched pipeline workflows", map[string]interface{}{
		"pipeline_id": pipelineID,
		"workflows":   len(runs),
	})

	return runs, nil
}

// getJSON performs a GET against the project API and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return c.wrap(fmt.Errorf("failed to build request for %s: %w", endpoint, err))
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.wrap(fmt.Errorf("GET %s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.wrap(fmt.Errorf("GET %s: unexpected status %d: %s",
			endpoint, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.wrap(fmt.Errorf("GET %s: failed to decode response: %w", endpoint, err))
	}
	return nil
}

// wrap attaches domain.ErrAPIRequest and a hint that depends on whether a
// token was sent.
func (c *Client) wrap(err error) error {
	hint := "set CIRCLE_API_TOKEN if this is a private project"
	if c.token != "" {
		hint = "verify CIRCLE_API_TOKEN has access to this project"
	}
	return fmt.Errorf("%w (%s): %w", domain.ErrAPIRequest, hint, err)
}
