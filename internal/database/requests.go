package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

const requestColumns = `id, requester_id, description, created`

// CreateRequest stores an item request; Created must already be set.
func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	query := `INSERT INTO requests (requester_id, description, created) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, query, request.RequesterID, request.Description, formatTime(request.Created))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	request.Created = request.Created.UTC()
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	request, err := scanRequest(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", id, translateError(err))
	}
	return request, nil
}

// GetRequestsByRequester lists a user's own requests, newest first.
func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE requester_id = ? ORDER BY created DESC, id DESC`
	return db.queryRequests(ctx, query, requesterID)
}

// GetRequestsExcept lists one page of other users' requests, newest first.
func (db *DB) GetRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE requester_id != ?
              ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`
	return db.queryRequests(ctx, query, userID, page.Limit, page.Offset)
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func scanRequest(row scanner) (*models.ItemRequest, error) {
	var r models.ItemRequest
	var created string
	if err := row.Scan(&r.ID, &r.RequesterID, &r.Description, &created); err != nil {
		return nil, err
	}
	var err error
	if r.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	return &r, nil
}
