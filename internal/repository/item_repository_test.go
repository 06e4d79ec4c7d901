package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

func TestItemRepo_List(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM service_items WHERE service_id = \? AND kind = \?`).
		WithArgs(10, model.ItemSession).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_id", "kind", "title", "body", "url", "starts_at", "position", "created_at"}).
			AddRow(1, 10, "session", "Week 1", "", "", start, 0, start).
			AddRow(2, 10, "session", "Week 2", "", "", nil, 1, start))

	items, err := NewItemRepo(db).List(context.Background(), 10, model.ItemSession)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].StartsAt)
	assert.Equal(t, start, *items[0].StartsAt)
	assert.Nil(t, items[1].StartsAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC().Truncate(time.Second)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM services WHERE id = \?`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), -1\) \+ 1 FROM service_items`).
		WithArgs(10, model.ItemBenefit).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO service_items`).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery(`SELECT created_at FROM service_items WHERE id = \?`).
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	it := &model.ServiceItem{ServiceID: 10, Kind: model.ItemBenefit, Title: "Calmer mind"}
	require.NoError(t, NewItemRepo(db).Create(context.Background(), 1, it))
	assert.Equal(t, uint64(77), it.ID)
	assert.Equal(t, 3, it.Position)
	assert.Equal(t, now, it.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_CreateForbidden(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM services WHERE id = \?`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(2))
	mock.ExpectRollback()

	err := NewItemRepo(db).Create(context.Background(), 1, &model.ServiceItem{ServiceID: 10, Kind: model.ItemBenefit})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM services WHERE id = \?`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM service_items WHERE id = \? AND service_id = \? AND kind = \?`).
		WithArgs(5, 10, model.ItemResource).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewItemRepo(db).Delete(context.Background(), 1, 10, model.ItemResource, 5)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_DeleteUnknownService(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM services WHERE id = \?`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))
	mock.ExpectRollback()

	err := NewItemRepo(db).Delete(context.Background(), 1, 10, model.ItemResource, 5)
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
