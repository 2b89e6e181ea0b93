package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/scoresheet/internal/models"
)

func TestTransactionManager_Begin(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	tx, err := manager.Begin(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tx.GetDB())
	assert.Equal(t, ctx, tx.Context())

	require.NoError(t, tx.Commit())
	assert.Error(t, tx.Commit())
	assert.Error(t, tx.Rollback())
}

func TestTransactionManager_BeginWithOptions(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	manager := NewTransactionManager(db)

	tx, err := manager.BeginWithOptions(context.Background(), &TxOptions{ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.Error(t, tx.Rollback())
}

func TestTransactionManager_WithTransactionCommit(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	id := uuid.NewString()
	err := manager.WithTransaction(ctx, func(tx *Transaction) error {
		if err := tx.Games().Create(ctx, &models.Game{ID: id, Name: "tx", Source: models.SourcePGN}); err != nil {
			return err
		}
		return tx.Moves().SaveSequence(ctx, id, []models.Move{
			{Ply: 1, SAN: "e4", FENAfter: "p1", Legal: true},
			{Ply: 2, SAN: "e5", FENAfter: "p2", Legal: true},
		})
	})
	require.NoError(t, err)

	repos := NewManager(db)
	ok, err := repos.Games().Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := repos.Moves().Count(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransactionManager_WithTransactionRollback(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	game := CreateTestGame(t, db, "rollback")
	CreateTestMoves(t, db, game.ID, "e4", "e5")

	err := manager.WithTransaction(ctx, func(tx *Transaction) error {
		if err := tx.Moves().SaveSequence(ctx, game.ID, nil); err != nil {
			return err
		}
		return fmt.Errorf("中途失败")
	})
	require.Error(t, err)

	count, err := NewMoveRepository(db).Count(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransactionManager_WithTransactionPanic(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	manager := NewTransactionManager(db)
	ctx := context.Background()

	id := uuid.NewString()
	assert.Panics(t, func() {
		_ = manager.WithTransaction(ctx, func(tx *Transaction) error {
			if err := tx.Games().Create(ctx, &models.Game{ID: id, Name: "panic", Source: models.SourcePGN}); err != nil {
				return err
			}
			panic("boom")
		})
	})

	ok, err := NewGameRepository(db).Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_LazyRepositories(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repos := NewManager(db)

	assert.Same(t, repos.Games(), repos.Games())
	assert.Same(t, repos.Moves(), repos.Moves())
	assert.Equal(t, db, repos.DB())
	assert.NotNil(t, repos.TxManager())
}
