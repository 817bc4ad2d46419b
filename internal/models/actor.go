package models

// Actor is the authenticated caller as supplied by the identity provider.
type Actor struct {
	UserID int64 `json:"user_id"`
	Admin  bool  `json:"admin"`
}
