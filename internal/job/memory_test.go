package job

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryRepository_Save(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("p", 7, "cinematic")

	if err := repo.Save(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := repo.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, saved.ID)
	}
}

func TestMemoryRepository_Save_Replaces(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("p", 7, "cinematic")

	_ = repo.Save(ctx, job)

	_ = job.Start()
	job.UpdateProgress(50)
	_ = repo.Save(ctx, job)

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusProcessing {
		t.Errorf("expected status %s, got %s", StatusProcessing, saved.Status)
	}
	if saved.Progress != 50 {
		t.Errorf("expected progress 50, got %d", saved.Progress)
	}
}

func TestMemoryRepository_Save_StoresSnapshot(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("p", 7, "cinematic")

	_ = repo.Save(ctx, job)
	_ = job.Start()

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusQueued {
		t.Errorf("expected stored snapshot to stay %s, got %s", StatusQueued, saved.Status)
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindByID_ReturnsClone(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("p", 7, "cinematic")
	_ = repo.Save(ctx, job)

	found, _ := repo.FindByID(ctx, job.ID)
	found.Status = StatusFailed
	found.Error = "mutated"

	again, _ := repo.FindByID(ctx, job.ID)
	if again.Status != StatusQueued || again.Error != "" {
		t.Error("expected repository record to be unaffected by caller mutation")
	}
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected empty list, got %d jobs", len(jobs))
	}

	_ = repo.Save(ctx, New("a", 7, "cinematic"))
	_ = repo.Save(ctx, New("b", 5, "animated"))
	_ = repo.Save(ctx, New("c", 10, "realistic"))

	jobs, _ = repo.List(ctx)
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(jobs))
	}
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := New("p", 7, "cinematic")
			_ = repo.Save(ctx, job)
			_ = job.Start()
			job.UpdateProgress(40)
			_ = repo.Save(ctx, job)
			_, _ = repo.FindByID(ctx, job.ID)
			_, _ = repo.List(ctx)
		}()
	}
	wg.Wait()

	jobs, _ := repo.List(ctx)
	if len(jobs) != 50 {
		t.Errorf("expected 50 jobs, got %d", len(jobs))
	}
	for _, j := range jobs {
		if j.Status != StatusProcessing || j.Progress != 40 {
			t.Errorf("job %s: expected processing at 40, got %s at %d", j.ID, j.Status, j.Progress)
		}
	}
}
