package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepo_ListLocationsByCity(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, name, address, city FROM locations WHERE city = \? ORDER BY name`).
		WithArgs("Lisbon").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "city"}).
			AddRow(2, "Studio Alfama", "Rua A 1", "Lisbon"))

	got, err := NewCatalogRepo(db).ListLocations(context.Background(), "Lisbon")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Studio Alfama", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_ListCategoriesEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, name, slug FROM categories`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}))

	got, err := NewCatalogRepo(db).ListCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got, "empty lists encode as [] rather than null")
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
