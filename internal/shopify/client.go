package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/shopfront/reviews/pkg/errors"
	"github.com/shopfront/reviews/pkg/httpclient"
)

// Doer abstracts the outbound HTTP client so the GraphQL transport works
// with both the plain retrying client and the circuit-breaker wrapper.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// GraphQLError is one entry of the "errors" array in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// Client executes GraphQL queries against one Shopify API endpoint.
type Client struct {
	doer        Doer
	url         string
	tokenHeader string
	token       string
	logger      *slog.Logger
}

// NewAdminClient returns a client for the Admin GraphQL API. The admin
// path carries review writes, so the underlying HTTP client runs with
// retries disabled: a retried metafield write after an ambiguous failure
// could double-apply a read-modify-write.
func NewAdminClient(url, accessToken string, logger *slog.Logger) *Client {
	hc := httpclient.New(httpclient.Config{
		Timeout:         15 * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 100,
	})
	return &Client{
		doer:        hc,
		url:         url,
		tokenHeader: "X-Shopify-Access-Token",
		token:       accessToken,
		logger:      logger,
	}
}

// NewStorefrontClient returns a client for the Storefront GraphQL API.
// Catalog reads are idempotent, so this path keeps the default retry
// policy and adds a circuit breaker against a degraded platform.
func NewStorefrontClient(url, accessToken string, logger *slog.Logger) *Client {
	hc := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(hc, httpclient.DefaultCircuitBreakerConfig("shopify-storefront"), logger)
	return &Client{
		doer:        cb,
		url:         url,
		tokenHeader: "X-Shopify-Storefront-Access-Token",
		token:       accessToken,
		logger:      logger,
	}
}

// NewClient builds a client over a caller-supplied transport. Used by
// tests and by callers that need a custom retry or breaker policy.
func NewClient(doer Doer, url, tokenHeader, token string, logger *slog.Logger) *Client {
	return &Client{doer: doer, url: url, tokenHeader: tokenHeader, token: token, logger: logger}
}

// Query posts a GraphQL query and decodes the "data" object into out.
// Transport failures, non-2xx statuses and GraphQL-level errors all
// surface as the same remote-store error kind; callers do not branch on
// the flavor of failure.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.tokenHeader, c.token)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return apperrors.Remote("shopify graphql request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.ErrorContext(ctx, "shopify graphql non-2xx response",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return apperrors.Remote("shopify graphql request", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apperrors.Remote("decode shopify graphql response", err)
	}

	if len(envelope.Errors) > 0 {
		c.logger.ErrorContext(ctx, "shopify graphql errors",
			slog.String("message", envelope.Errors[0].Message),
			slog.Int("count", len(envelope.Errors)),
		)
		return apperrors.Remote("shopify graphql query", fmt.Errorf("%s", envelope.Errors[0].Message))
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return apperrors.Remote("decode shopify graphql data", err)
		}
	}

	return nil
}
