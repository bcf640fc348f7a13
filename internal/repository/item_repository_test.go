package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newItemRepo(t *testing.T) (*ItemRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewItemRepo(db), mock
}

// Every query word must match independently, and the full description
// counts: "red bike" has to find an item named "Bike (red)" whose
// colour only appears in parentheses and in the description text.
func TestItemRepo_SearchMatchesEveryWordAcrossDescriptions(t *testing.T) {
    repo, mock := newItemRepo(t)

    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM items i WHERE \(LOWER\(i\.name\) LIKE \? OR LOWER\(i\.short_description\) LIKE \? OR LOWER\(i\.description\) LIKE \?\) AND \(LOWER\(i\.name\) LIKE \? OR LOWER\(i\.short_description\) LIKE \? OR LOWER\(i\.description\) LIKE \?\)`).
        WithArgs("%red%", "%red%", "%red%", "%bike%", "%bike%", "%bike%").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

    now := time.Now()
    rows := sqlmock.NewRows([]string{
        "id", "name", "price_per_hour", "price_per_3_hours", "price_per_day", "price_per_week",
        "short_description", "description", "category_id", "created_at", "updated_at", "cover",
    }).AddRow(4, "Bike (red)", 100, 250, 600, 3000, "city bike", "A red city bike.", 2, now, now, "/img/bike.jpg")

    mock.ExpectQuery(`FROM items i WHERE .+ ORDER BY i\.name ASC LIMIT \? OFFSET \?`).
        WithArgs("%red%", "%red%", "%red%", "%bike%", "%bike%", "%bike%", 20, 0).
        WillReturnRows(rows)

    items, total, err := repo.Search(context.Background(), ItemSearchQuery{Text: "Red BIKE"})
    require.NoError(t, err)
    assert.Equal(t, int64(1), total)
    require.Len(t, items, 1)
    assert.Equal(t, "Bike (red)", items[0].Name)
    assert.Equal(t, []string{"/img/bike.jpg"}, items[0].Images)
    assert.NoError(t, mock.ExpectationsWereMet())
}
