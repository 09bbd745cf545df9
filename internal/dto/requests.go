package dto

import (
	"strings"
	"time"

	"shareit/internal/models"
)

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=512"`
}

func (r *CreateUserRequest) Validate(_ time.Time) Violations {
	out := checkStruct(r)
	if r.Name != "" {
		checkNotBlank(&out, "name", &r.Name)
	}
	return out
}

func (r *CreateUserRequest) Model() *models.User {
	return &models.User{Name: strings.TrimSpace(r.Name), Email: strings.TrimSpace(r.Email)}
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitnil,max=255"`
	Email *string `json:"email" validate:"omitnil,email,max=512"`
}

func (r *UpdateUserRequest) Validate(_ time.Time) Violations {
	out := checkStruct(r)
	checkNotBlank(&out, "name", r.Name)
	return out
}

func (r *UpdateUserRequest) Patch() models.UserPatch {
	return models.UserPatch{Name: r.Name, Email: r.Email}
}

type CreateItemRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=1000"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId" validate:"omitnil,gt=0"`
}

func (r *CreateItemRequest) Validate(_ time.Time) Violations {
	out := checkStruct(r)
	if r.Name != "" {
		checkNotBlank(&out, "name", &r.Name)
	}
	if r.Description != "" {
		checkNotBlank(&out, "description", &r.Description)
	}
	return out
}

func (r *CreateItemRequest) Model() *models.Item {
	item := &models.Item{Name: r.Name, Description: r.Description, RequestID: r.RequestID}
	if r.Available != nil {
		item.Available = *r.Available
	}
	return item
}

type UpdateItemRequest struct {
	Name        *string `json:"name" validate:"omitnil,max=255"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Available   *bool   `json:"available"`
}

func (r *UpdateItemRequest) Validate(_ time.Time) Violations {
	out := checkStruct(r)
	checkNotBlank(&out, "name", r.Name)
	checkNotBlank(&out, "description", r.Description)
	return out
}

func (r *UpdateItemRequest) Patch() models.ItemPatch {
	return models.ItemPatch{Name: r.Name, Description: r.Description, Available: r.Available}
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (r *CreateCommentRequest) Validate(_ time.Time) Violations {
	out := checkStruct(r)
	if r.Text != "" {
		checkNotBlank(&out, "text", &r.Text)
	}
	return out
}

type CreateItemRequestRequest struct {
	Description string `json:"description" validate:"required,max=1000"`
}

func (r *CreateItemRequestRequest) Validate(_ time.Time) Violations {
	out := checkStruct(r)
	if r.Description != "" {
		checkNotBlank(&out, "description", &r.Description)
	}
	return out
}

type CreateBookingRequest struct {
	ItemID int64     `json:"itemId" validate:"required,gt=0"`
	Start  *DateTime `json:"start" validate:"required"`
	End    *DateTime `json:"end" validate:"required"`
}

// Validate checks field presence with tags, then the window rules relative
// to now: start before end, start not in the past, end in the future.
func (r *CreateBookingRequest) Validate(now time.Time) Violations {
	out := checkStruct(r)
	if r.Start == nil || r.End == nil {
		return out
	}
	if !r.Start.Before(r.End.Time) {
		out.add("start", "must be before end")
	}
	if r.Start.Before(now) {
		out.add("start", "must not be in the past")
	}
	if !r.End.After(now) {
		out.add("end", "must be in the future")
	}
	return out
}

func (r *CreateBookingRequest) Window() (start, end *time.Time) {
	return timePtr(r.Start), timePtr(r.End)
}

// ValidatePage checks list paging parameters.
func ValidatePage(from, size int) Violations {
	var out Violations
	if from < 0 {
		out.add("from", "must be at least 0")
	}
	if size <= 0 {
		out.add("size", "must be greater than 0")
	}
	return out
}
