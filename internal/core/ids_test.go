package core

import (
	"context"
	"strings"
	"sync"
	"testing"

	"foodbike/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantIDsAreRegionScopedAndSequential(t *testing.T) {
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	want := []string{"SY001", "SY002", "SY003"}
	for _, id := range want {
		r := createKitchen(t, svc, "Sylhet", "Moulvibazar", 100)
		assert.Equal(t, id, r.ID)
	}
	r := createKitchen(t, svc, "Mymensingh", "Sherpur", 100)
	assert.Equal(t, "MY001", r.ID)
}

func TestRestaurantIDAllocationProbesPastDeletedSequence(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	for i := 0; i < 3; i++ {
		createKitchen(t, svc, "Barisal", "Bhola", 100)
	}
	existed, err := svc.DeleteRestaurant(ctx, adminActor, "BA001")
	require.NoError(t, err)
	require.True(t, existed)

	// count+1 is BA003, which is still live.
	r := createKitchen(t, svc, "Barisal", "Bhola", 100)
	assert.Equal(t, "BA004", r.ID)
}

func TestConcurrentRestaurantCreationYieldsUniqueIDs(t *testing.T) {
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	const workers = 24

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]int)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.CreateRestaurant(context.Background(), adminActor, RestaurantInput{
				Name:      "Concurrent Kitchen",
				Region:    "Rangpur",
				Subregion: "Dinajpur",
				Address:   "Bypass Road, Dinajpur",
			})
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			mu.Lock()
			ids[r.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, ids, workers)
	for id, n := range ids {
		assert.Equal(t, 1, n, id)
		assert.True(t, strings.HasPrefix(id, "RP"), id)
	}
}

func TestOpaqueIDSources(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := UUIDSource(OrderIDPrefix)
		require.True(t, strings.HasPrefix(id, OrderIDPrefix))
		_, dup := seen[id]
		require.False(t, dup, id)
		seen[id] = struct{}{}
	}

	seq := SequenceSource()
	assert.Equal(t, "ORD_000001", seq(OrderIDPrefix))
	assert.Equal(t, "ORD_000002", seq(OrderIDPrefix))
	assert.Equal(t, "REV_000001", seq(ReviewIDPrefix))
}

func TestConcurrentOrdersGetDistinctIDs(t *testing.T) {
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Khulna", "Narail", 60)

	const workers = 32
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := svc.PlaceOrder(context.Background(), customerActor, OrderRequest{RestaurantID: r.ID, ItemIDs: []string{r.Menu[0].ID}})
			if err != nil {
				t.Errorf("place: %v", err)
				return
			}
			mu.Lock()
			ids[o.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, ids, workers)
}
