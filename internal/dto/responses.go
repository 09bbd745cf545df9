package dto

import "shareit/internal/models"

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CommentResponse struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName"`
	Created    DateTime `json:"created"`
}

type ItemResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Available   bool              `json:"available"`
	RequestID   *int64            `json:"requestId"`
	Comments    []CommentResponse `json:"comments,omitempty"`
	LastBooking *BookingResponse  `json:"lastBooking,omitempty"`
	NextBooking *BookingResponse  `json:"nextBooking,omitempty"`
}

// ItemDetailsResponse always carries comments and both booking slots, null
// when hidden or absent.
type ItemDetailsResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Available   bool              `json:"available"`
	RequestID   *int64            `json:"requestId"`
	Comments    []CommentResponse `json:"comments"`
	LastBooking *BookingResponse  `json:"lastBooking"`
	NextBooking *BookingResponse  `json:"nextBooking"`
}

type BookingResponse struct {
	ID       int64         `json:"id"`
	ItemID   int64         `json:"itemId"`
	BookerID int64         `json:"bookerId"`
	Start    DateTime      `json:"start"`
	End      DateTime      `json:"end"`
	Status   string        `json:"status"`
	Item     *ItemResponse `json:"item,omitempty"`
	Booker   *UserResponse `json:"booker,omitempty"`
}

type RequestItemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RequestID   *int64 `json:"requestId"`
	Available   bool   `json:"available"`
}

type ItemRequestResponse struct {
	ID          int64                 `json:"id"`
	Description string                `json:"description"`
	Created     DateTime              `json:"created"`
	Items       []RequestItemResponse `json:"items"`
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func ToUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

func ToItemResponse(i *models.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
	}
}

func ToItemResponses(items []*models.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, ToItemResponse(i))
	}
	return out
}

func ToItemDetailsResponse(d *models.ItemDetails) ItemDetailsResponse {
	comments := make([]CommentResponse, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, ToCommentResponse(c))
	}
	return ItemDetailsResponse{
		ID:          d.Item.ID,
		Name:        d.Item.Name,
		Description: d.Item.Description,
		Available:   d.Item.Available,
		RequestID:   d.Item.RequestID,
		Comments:    comments,
		LastBooking: toShortBooking(d.LastBooking),
		NextBooking: toShortBooking(d.NextBooking),
	}
}

func ToItemDetailsResponses(details []*models.ItemDetails) []ItemDetailsResponse {
	out := make([]ItemDetailsResponse, 0, len(details))
	for _, d := range details {
		out = append(out, ToItemDetailsResponse(d))
	}
	return out
}

func ToCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		Created:    NewDateTime(c.Created),
	}
}

// ToBookingResponse includes the nested item and booker when loaded.
func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:       b.ID,
		ItemID:   b.ItemID,
		BookerID: b.BookerID,
		Start:    NewDateTime(b.Start),
		End:      NewDateTime(b.End),
		Status:   string(b.Status),
	}
	if b.Item != nil {
		item := ToItemResponse(b.Item)
		resp.Item = &item
	}
	if b.Booker != nil {
		booker := ToUserResponse(b.Booker)
		resp.Booker = &booker
	}
	return resp
}

func ToBookingResponses(bookings []*models.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ToBookingResponse(b))
	}
	return out
}

func toShortBooking(b *models.Booking) *BookingResponse {
	if b == nil {
		return nil
	}
	return &BookingResponse{
		ID:       b.ID,
		ItemID:   b.ItemID,
		BookerID: b.BookerID,
		Start:    NewDateTime(b.Start),
		End:      NewDateTime(b.End),
		Status:   string(b.Status),
	}
}

func ToItemRequestResponse(r *models.ItemRequest) ItemRequestResponse {
	items := make([]RequestItemResponse, 0, len(r.Items))
	for _, i := range r.Items {
		items = append(items, RequestItemResponse{
			ID:          i.ID,
			Name:        i.Name,
			Description: i.Description,
			RequestID:   i.RequestID,
			Available:   i.Available,
		})
	}
	return ItemRequestResponse{
		ID:          r.ID,
		Description: r.Description,
		Created:     NewDateTime(r.Created),
		Items:       items,
	}
}

func ToItemRequestResponses(requests []*models.ItemRequest) []ItemRequestResponse {
	out := make([]ItemRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, ToItemRequestResponse(r))
	}
	return out
}
