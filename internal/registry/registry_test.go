package registry

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/greeter/internal/models"
)

func TestSequentialInsertsAllocateConsecutiveIDs(t *testing.T) {
	theRegistry := New()
	ctx := context.Background()

	for k := 1; k <= 10; k++ {
		id, err := theRegistry.Insert(ctx, models.User{Name: "user"})
		require.NoError(t, err)
		assert.Equal(t, models.UserID(k), id)
	}

	size, err := theRegistry.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, size)
}

func TestGetReturnsInsertedRecord(t *testing.T) {
	theRegistry := New()
	ctx := context.Background()

	adaID, err := theRegistry.Insert(ctx, models.User{Name: "Ada"})
	require.NoError(t, err)
	linusID, err := theRegistry.Insert(ctx, models.User{Name: "Linus"})
	require.NoError(t, err)

	assert.Equal(t, models.UserID(1), adaID)
	assert.Equal(t, models.UserID(2), linusID)

	usr, found, err := theRegistry.Get(ctx, adaID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.User{Name: "Ada"}, usr)

	usr, found, err = theRegistry.Get(ctx, linusID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.User{Name: "Linus"}, usr)
}

func TestGetUnknownID(t *testing.T) {
	theRegistry := New()
	ctx := context.Background()

	_, err := theRegistry.Insert(ctx, models.User{Name: "Ada"})
	require.NoError(t, err)

	for _, id := range []models.UserID{0, 2, 42, math.MaxUint32} {
		usr, found, err := theRegistry.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, found, "id %d should not be found", id)
		assert.Equal(t, models.User{}, usr)
	}
}

func TestRepeatedGetIsStable(t *testing.T) {
	theRegistry := New()
	ctx := context.Background()

	id, err := theRegistry.Insert(ctx, models.User{Name: "Grace"})
	require.NoError(t, err)

	first, firstFound, err := theRegistry.Get(ctx, id)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		usr, found, err := theRegistry.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, firstFound, found)
		assert.Equal(t, first, usr)
	}
}

func TestEmptyNameIsStored(t *testing.T) {
	theRegistry := New()
	ctx := context.Background()

	id, err := theRegistry.Insert(ctx, models.User{Name: ""})
	require.NoError(t, err)

	usr, found, err := theRegistry.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", usr.Name)
}

func TestConcurrentInsertsProduceDenseUniqueIDs(t *testing.T) {
	const amountOfInserts = 500

	theRegistry := New()
	ctx := context.Background()

	ids := make([]models.UserID, amountOfInserts)
	var wg sync.WaitGroup
	for i := 0; i < amountOfInserts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := theRegistry.Insert(ctx, models.User{Name: "concurrent"})
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	unique := funk.Uniq(ids).([]models.UserID)
	assert.Len(t, unique, amountOfInserts, "identifiers must not repeat")

	for k := 1; k <= amountOfInserts; k++ {
		assert.True(t, funk.Contains(ids, models.UserID(k)), "identifier %d is missing", k)
	}
}

func TestConcurrentGetsAndInserts(t *testing.T) {
	theRegistry := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := theRegistry.Insert(ctx, models.User{Name: "writer"})
			assert.NoError(t, err)
		}()
		go func(id models.UserID) {
			defer wg.Done()
			usr, found, err := theRegistry.Get(ctx, id)
			assert.NoError(t, err)
			if found {
				assert.Equal(t, "writer", usr.Name)
			}
		}(models.UserID(i + 1))
	}
	wg.Wait()

	size, err := theRegistry.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, size)
}

func TestInsertFollowsCurrentMaximum(t *testing.T) {
	theRegistry := New()
	theRegistry.entries[7] = models.User{Name: "seeded"}

	id, err := theRegistry.Insert(context.Background(), models.User{Name: "next"})
	require.NoError(t, err)
	assert.Equal(t, models.UserID(8), id)
}

func TestInsertReportsExhaustedIDSpace(t *testing.T) {
	theRegistry := New()
	theRegistry.entries[math.MaxUint32] = models.User{Name: "last"}

	_, err := theRegistry.Insert(context.Background(), models.User{Name: "overflow"})
	require.ErrorIs(t, err, ErrIDSpaceExhausted)

	size, err := theRegistry.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, size, "a failed insert must not store anything")
}
