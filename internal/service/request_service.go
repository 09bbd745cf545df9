package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	clock  domain.Clock
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, clock domain.Clock, logger *zerolog.Logger) *RequestService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &RequestService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

func (s *RequestService) AddRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidEntity)
	}

	request := &models.ItemRequest{
		RequesterID: userID,
		Description: description,
		Created:     s.clock.Now(),
		Items:       []*models.Item{},
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, translate(err, domain.ErrNotFound, "request")
	}
	return request, nil
}

func (s *RequestService) GetOwnRequests(ctx context.Context, userID int64) ([]*models.ItemRequest, error) {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsExcept(ctx, userID, models.NewPage(from, size))
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequest, error) {
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("request %d", requestID))
	}
	if err := s.attachItems(ctx, []*models.ItemRequest{request}); err != nil {
		return nil, err
	}
	return request, nil
}

// attachItems fills Items of each request with the items listed in reply,
// using one query for the whole batch.
func (s *RequestService) attachItems(ctx context.Context, requests []*models.ItemRequest) error {
	if len(requests) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(requests))
	byID := make(map[int64]*models.ItemRequest, len(requests))
	for _, r := range requests {
		r.Items = []*models.Item{}
		ids = append(ids, r.ID)
		byID[r.ID] = r
	}

	items, err := s.repo.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.RequestID == nil {
			continue
		}
		if r, ok := byID[*item.RequestID]; ok {
			r.Items = append(r.Items, item)
		}
	}
	return nil
}
