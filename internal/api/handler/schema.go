package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// --- Request types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

// signupRequest leaves presence and format checks to the auth service so the
// rules are identical for every caller.
type signupRequest struct {
	FullName string `json:"fullName" validate:"max=120"`
	Email    string `json:"email"    validate:"max=254"`
	Password string `json:"password"`
}

type addressPayload struct {
	Street     string `json:"street"     validate:"max=200"`
	City       string `json:"city"       validate:"max=100"`
	State      string `json:"state"      validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"max=20"`
}

type updateProfileRequest struct {
	FullName        string         `json:"fullName"        validate:"required,max=120"`
	ShippingAddress addressPayload `json:"shippingAddress"`
}

type createUserRequest struct {
	FullName string `json:"fullName" validate:"max=120"`
	Email    string `json:"email"    validate:"max=254"`
	Password string `json:"password"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin customer"`
}

type lineItemRequest struct {
	ProductID string          `json:"productId" validate:"max=64"`
	Name      string          `json:"name"      validate:"max=200"`
	Category  string          `json:"category"  validate:"max=100"`
	UnitPrice decimal.Decimal `json:"unitPrice" swaggertype:"number"`
	Image     string          `json:"image"     validate:"max=2048"`
	Quantity  int             `json:"quantity"`
}

type createOrderRequest struct {
	UserID string            `json:"userId"`
	Items  []lineItemRequest `json:"items" validate:"dive"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Response types ---
// These are intentionally separate from domain types so the JSON contract is
// not coupled to internal changes.

type userResponse struct {
	ID              string         `json:"id"`
	FullName        string         `json:"fullName"`
	Email           string         `json:"email"`
	Role            string         `json:"role"`
	MemberSince     time.Time      `json:"memberSince"`
	ShippingAddress addressPayload `json:"shippingAddress"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type lineItemResponse struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Category  string      `json:"category,omitempty"`
	UnitPrice json.Number `json:"unitPrice" swaggertype:"number"`
	Image     string      `json:"image,omitempty"`
	Quantity  int         `json:"quantity"`
	LineTotal json.Number `json:"lineTotal" swaggertype:"number"`
}

type statusChangeResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy string    `json:"changedBy,omitempty"`
}

type orderResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	CustomerName  string                 `json:"customerName"`
	Status        string                 `json:"status"`
	Items         []lineItemResponse     `json:"items"`
	Subtotal      json.Number            `json:"subtotal" swaggertype:"number"`
	Shipping      json.Number            `json:"shipping" swaggertype:"number"`
	Taxes         json.Number            `json:"taxes"    swaggertype:"number"`
	Total         json.Number            `json:"total"    swaggertype:"number"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	StatusHistory []statusChangeResponse `json:"statusHistory"`
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
