package models

// User is an entry of the user directory. The pipeline only reads it.
type User struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
