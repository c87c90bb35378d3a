// Package catalog reads product attributes from the Storefront GraphQL
// API. Products are owned by the commerce platform; this service only
// queries them by handle.
package catalog

import (
	"context"
	"log/slog"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/shopify"
	apperrors "github.com/shopfront/reviews/pkg/errors"
)

const productQuery = `
query GetProduct($handle: String!) {
  product(handle: $handle) {
    id
    title
    description
    handle
    productType
    tags
    priceRange {
      minVariantPrice {
        amount
        currencyCode
      }
      maxVariantPrice {
        amount
        currencyCode
      }
    }
    images(first: 5) {
      edges {
        node {
          url
          altText
        }
      }
    }
  }
}`

// Client implements store.Catalog over the Storefront API.
type Client struct {
	storefront *shopify.Client
	logger     *slog.Logger
}

// New creates a catalog client.
func New(storefront *shopify.Client, logger *slog.Logger) *Client {
	return &Client{storefront: storefront, logger: logger}
}

type productResponse struct {
	Product *struct {
		ID          string            `json:"id"`
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Handle      string            `json:"handle"`
		ProductType string            `json:"productType"`
		Tags        []string          `json:"tags"`
		PriceRange  domain.PriceRange `json:"priceRange"`
		Images      struct {
			Edges []struct {
				Node struct {
					URL     string `json:"url"`
					AltText string `json:"altText"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"images"`
	} `json:"product"`
}

// ProductByHandle fetches one product. A null product in the response
// means the handle does not resolve and maps to ErrNotFound.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	var resp productResponse
	if err := c.storefront.Query(ctx, productQuery, map[string]any{"handle": handle}, &resp); err != nil {
		return nil, err
	}

	if resp.Product == nil {
		return nil, apperrors.NotFound("product", handle)
	}

	p := resp.Product
	product := &domain.Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Handle:      p.Handle,
		ProductType: p.ProductType,
		Tags:        p.Tags,
		PriceRange:  p.PriceRange,
	}
	for _, edge := range p.Images.Edges {
		product.Images = append(product.Images, domain.Image{
			URL:     edge.Node.URL,
			AltText: edge.Node.AltText,
		})
	}
	return product, nil
}
