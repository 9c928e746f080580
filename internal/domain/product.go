package domain

import "time"

type Product struct {
	ID                 string                 `json:"id"`
	SKU                string                 `json:"sku"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	PriceCents         int64                  `json:"priceCents"`
	OriginalPriceCents int64                  `json:"originalPriceCents"`
	Currency           string                 `json:"currency"`
	InStock            bool                   `json:"inStock"`
	StockCount         int                    `json:"stockCount"`
	Attributes         map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
}

// ImageURL returns the first image from the attributes blob, if any.
func (p Product) ImageURL() string {
	raw, ok := p.Attributes["images"]
	if !ok {
		return ""
	}
	switch v := raw.(type) {
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}
