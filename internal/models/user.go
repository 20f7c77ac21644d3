package models

// Claims is the verified identity attached to a request. AccountID scopes
// every driver, customer and trip the caller can see.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email,omitempty"`
	Exp       int64  `json:"exp"`
}
