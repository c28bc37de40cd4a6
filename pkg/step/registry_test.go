package step

import (
	"sync"
	"testing"
)

func TestRegistryConcurrentOpenAssignsDistinctHandles(t *testing.T) {
	const n = 50
	ids := make([]ModelID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := CreateModel(DefaultLoaderSettings())
			if err != nil {
				t.Errorf("CreateModel: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[ModelID]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate model handle %d assigned", id)
		}
		seen[id] = true
	}
	for _, id := range ids {
		CloseModel(id)
	}
}

func TestRegistryReusesHandleAfterClose(t *testing.T) {
	id1, err := CreateModel(DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	if err := CloseModel(id1); err != nil {
		t.Fatalf("CloseModel: %v", err)
	}

	id2, err := CreateModel(DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	defer CloseModel(id2)

	if id2 != id1 {
		t.Fatalf("CreateModel after close = %d, want reused handle %d", id2, id1)
	}
	if !IsModelOpen(id2) {
		t.Fatal("IsModelOpen(id2) = false, want true")
	}
}
