package models

import "time"

// ItemRequest is a user's wish for an item nobody has listed yet. Items listed
// in response reference it through Item.RequestID.
type ItemRequest struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
	Items       []*Item   `json:"items"`
}
