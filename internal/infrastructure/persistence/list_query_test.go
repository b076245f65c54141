package persistence

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%shirt%", containsPattern("Shirt"))
	assert.Equal(t, "%50!%%", containsPattern("50%"))
	assert.Equal(t, "%a!_b%", containsPattern("a_b"))
	assert.Equal(t, "%wow!!%", containsPattern("wow!"))
}

func TestListPage_WildcardsMatchLiterally(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	for _, email := range []string{"sale_50%@shop.test", "sale500@shop.test", "saleX50@shop.test"} {
		row := models.CustomerModel{Email: email}
		row.ID = uuid.New()
		require.NoError(t, db.Create(&row).Error)
	}
	spec := ListSpec{
		SearchColumns: []string{"email"},
		FilterColumns: map[string]string{"email": "email"},
		DefaultOrder:  "email ASC",
	}

	t.Run("search", func(t *testing.T) {
		q := shared.NewListQuery()
		q.Search = "50%"
		rows, total, err := listPage[models.CustomerModel](ctx, db, q, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "sale_50%@shop.test", rows[0].Email)
	})

	t.Run("like filter", func(t *testing.T) {
		rows, total, err := listPage[models.CustomerModel](ctx, db,
			shared.NewListQuery().WithFilter("email__like", "sale_"), spec)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "sale_50%@shop.test", rows[0].Email)
	})

	t.Run("plain terms still match", func(t *testing.T) {
		q := shared.NewListQuery()
		q.Search = "SALE"
		_, total, err := listPage[models.CustomerModel](ctx, db, q, spec)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}
