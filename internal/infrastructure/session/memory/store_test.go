package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

func TestCreateViewUpdateRoundtrip(t *testing.T) {
	store := New(Options{})
	ctx := context.Background()

	created, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || created.Cursor != -1 {
		t.Fatalf("fresh session = %+v", created)
	}

	err = store.Update(ctx, created.ID, func(s *domain.Session) error {
		s.Append(domain.RoleUser, "สวัสดี")
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.View(ctx, created.ID)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "สวัสดี" {
		t.Fatalf("update not visible: %+v", got.Messages)
	}
	if !got.UpdatedAt.After(created.UpdatedAt) && !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("updated_at went backwards")
	}
}

func TestViewUnknownSession(t *testing.T) {
	store := New(Options{})
	_, err := store.View(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	err = store.Update(context.Background(), "missing", func(*domain.Session) error { return nil })
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found on update, got %v", err)
	}
}

func TestViewReturnsIsolatedClone(t *testing.T) {
	store := New(Options{})
	ctx := context.Background()

	created, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	view, err := store.View(ctx, created.ID)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	view.Append(domain.RoleUser, "leaked")

	again, err := store.View(ctx, created.ID)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(again.Messages) != 0 {
		t.Fatalf("view mutation leaked into the store")
	}
}

func TestUpdateSerializesPerSession(t *testing.T) {
	store := New(Options{})
	ctx := context.Background()

	created, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, created.ID, func(s *domain.Session) error {
				s.Append(domain.RoleUser, "msg")
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := store.View(ctx, created.ID)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(got.Messages) != writers {
		t.Fatalf("messages = %d, want %d", len(got.Messages), writers)
	}
}

func TestCancelledContext(t *testing.T) {
	store := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Create(ctx); err == nil {
		t.Fatalf("cancelled create must error")
	}
	if _, err := store.View(ctx, "any"); err == nil {
		t.Fatalf("cancelled view must error")
	}
}
