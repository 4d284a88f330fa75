// Package transport defines request and response DTOs for the orders module.
package transport

// LineRequest is a product line in a create or update payload.
type LineRequest struct {
	ProductID      string  `json:"productId" validate:"required,uuid"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64   `json:"unitPriceCents" validate:"gte=0"`
}

// CreateOrderRequest is the payload for registering a new service order.
type CreateOrderRequest struct {
	ClientID       string        `json:"clientId" validate:"required,uuid"`
	Description    string        `json:"description" validate:"required,max=2000"`
	SiteTag        *string       `json:"siteTag,omitempty" validate:"omitempty,max=200"`
	PredictedHours *float64      `json:"predictedHours,omitempty" validate:"omitempty,gte=0"`
	Lines          []LineRequest `json:"lines" validate:"omitempty,dive"`
}

// UpdateOrderRequest is the payload for editing an order. Omitted fields are
// left unchanged; providing lines replaces them wholesale.
type UpdateOrderRequest struct {
	ClientID       *string        `json:"clientId,omitempty" validate:"omitempty,uuid"`
	Description    *string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	SiteTag        *string        `json:"siteTag,omitempty" validate:"omitempty,max=200"`
	PredictedHours *float64       `json:"predictedHours,omitempty" validate:"omitempty,gte=0"`
	Lines          *[]LineRequest `json:"lines,omitempty" validate:"omitempty,dive"`
}

// ListOrdersRequest carries the query filters for listing orders.
type ListOrdersRequest struct {
	Status   string `form:"status"`
	ClientID string `form:"clientId"`
	Search   string `form:"search"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}
