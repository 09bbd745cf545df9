package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	clock  domain.Clock
	logger *zerolog.Logger
}

func NewItemService(repo domain.Repository, clock domain.Clock, logger *zerolog.Logger) *ItemService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ItemService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// AddItem lists a new item for ownerID. A set RequestID must name an
// existing request.
func (s *ItemService) AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if err := requireUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Description) == "" {
		return nil, fmt.Errorf("%w: name and description are required", domain.ErrInvalidEntity)
	}
	if item.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *item.RequestID); err != nil {
			return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("request %d", *item.RequestID))
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, translate(err, domain.ErrNotFound, "item")
	}
	s.logger.Debug().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	if err := requireUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", itemID))
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: user %d does not own item %d", domain.ErrOwnerMismatch, ownerID, itemID)
	}
	if (patch.Name != nil && strings.TrimSpace(*patch.Name) == "") ||
		(patch.Description != nil && strings.TrimSpace(*patch.Description) == "") {
		return nil, fmt.Errorf("%w: name and description must not be blank", domain.ErrInvalidEntity)
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", itemID))
	}
	return item, nil
}

// GetItem returns the item with its comments. Adjacent bookings are attached
// only for the owner.
func (s *ItemService) GetItem(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", itemID))
	}
	return s.details(ctx, item, item.OwnerID == userID)
}

func (s *ItemService) GetOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemDetails, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByOwner(ctx, ownerID, models.NewPage(from, size))
	if err != nil {
		return nil, err
	}

	result := make([]*models.ItemDetails, 0, len(items))
	for _, item := range items {
		details, err := s.details(ctx, item, true)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, nil
}

// Search finds available items mentioning text; blank text matches nothing.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, models.NewPage(from, size))
}

// AddComment lets a user who finished a booking of the item leave a comment.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", itemID))
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrInvalidEntity)
	}

	now := s.clock.Now()
	finished, err := s.repo.HasFinishedBooking(ctx, userID, itemID, now)
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, fmt.Errorf("%w: user %d has no finished booking of item %d",
			domain.ErrInvalidCommentAuthor, userID, itemID)
	}

	comment := &models.Comment{
		ItemID:     itemID,
		AuthorID:   userID,
		AuthorName: user.Name,
		Text:       text,
		Created:    now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, translate(err, domain.ErrNotFound, "comment")
	}
	return comment, nil
}

func (s *ItemService) details(ctx context.Context, item *models.Item, owner bool) (*models.ItemDetails, error) {
	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	details := &models.ItemDetails{Item: item, Comments: comments}
	if !owner {
		return details, nil
	}

	bookings, err := s.repo.GetBookingsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	details.LastBooking, details.NextBooking = AdjacentBookings(bookings, s.clock.Now())
	return details, nil
}
