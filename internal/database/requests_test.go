package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestOperations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ann := createTestUser(t, db, "ann")
	bob := createTestUser(t, db, "bob")

	older := &models.ItemRequest{RequesterID: ann.ID, Description: "need a ladder", Created: testNow.Add(-time.Hour)}
	newer := &models.ItemRequest{RequesterID: ann.ID, Description: "need a tent", Created: testNow}
	bobs := &models.ItemRequest{RequesterID: bob.ID, Description: "need a saw", Created: testNow.Add(-time.Minute)}
	for _, r := range []*models.ItemRequest{older, newer, bobs} {
		require.NoError(t, db.CreateRequest(ctx, r))
	}

	t.Run("GetRequestByID", func(t *testing.T) {
		got, err := db.GetRequestByID(ctx, newer.ID)
		require.NoError(t, err)
		assert.Equal(t, "need a tent", got.Description)
		assert.True(t, got.Created.Equal(testNow))
	})

	t.Run("GetRequestByID_NotFound", func(t *testing.T) {
		_, err := db.GetRequestByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OwnNewestFirst", func(t *testing.T) {
		got, err := db.GetRequestsByRequester(ctx, ann.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
	})

	t.Run("OthersPaged", func(t *testing.T) {
		got, err := db.GetRequestsExcept(ctx, bob.ID, models.NewPage(0, 1))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, newer.ID, got[0].ID)

		got, err = db.GetRequestsExcept(ctx, ann.ID, models.NewPage(0, 10))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, bobs.ID, got[0].ID)
	})

	t.Run("UnknownRequester", func(t *testing.T) {
		err := db.CreateRequest(ctx, &models.ItemRequest{RequesterID: 999, Description: "x", Created: testNow})
		assert.ErrorIs(t, err, ErrConstraint)
	})
}

func TestCommentOperations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	author := createTestUser(t, db, "author")
	item := createTestItem(t, db, owner.ID, "drill", true)

	second := &models.Comment{ItemID: item.ID, AuthorID: author.ID, Text: "still great", Created: testNow}
	first := &models.Comment{ItemID: item.ID, AuthorID: author.ID, Text: "great drill", Created: testNow.Add(-time.Hour)}
	require.NoError(t, db.CreateComment(ctx, second))
	require.NoError(t, db.CreateComment(ctx, first))
	assert.Equal(t, "author", first.AuthorName)

	comments, err := db.GetCommentsByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, "author", comments[0].AuthorName)
	assert.Equal(t, "still great", comments[1].Text)

	err = db.CreateComment(ctx, &models.Comment{ItemID: 999, AuthorID: author.ID, Text: "x", Created: testNow})
	assert.ErrorIs(t, err, ErrConstraint)
}
