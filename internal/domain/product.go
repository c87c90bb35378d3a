package domain

// Money is a decimal amount with its currency, kept as the platform's
// string representation to avoid float rounding on prices.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// PriceRange spans the cheapest and most expensive variant of a product.
type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}

// Image is a product image as served by the catalog.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

// Product represents a catalog product as read from the commerce
// platform. The catalog is an external collaborator; this service never
// writes product records.
type Product struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Handle      string     `json:"handle"`
	ProductType string     `json:"productType"`
	Tags        []string   `json:"tags"`
	PriceRange  PriceRange `json:"priceRange"`
	Images      []Image    `json:"images"`
}
