package predictions

import (
	"context"
	"errors"
	"testing"

	"github.com/cropsense/cropsense-backend/internal/domain"
)

func TestKeyHelpers(t *testing.T) {
	id := Key("user-a", 1234)
	if id != "prediction_user-a_1234" {
		t.Fatalf("unexpected key: %q", id)
	}
	if !OwnedBy(id, "user-a") {
		t.Fatalf("OwnedBy should accept the owner")
	}
	if OwnedBy(id, "user-b") {
		t.Fatalf("OwnedBy should reject another user")
	}
	// A user id that happens to be a prefix of another must not match.
	other := Key("user-ab", 1234)
	if OwnedBy(other, "user-a") {
		t.Fatalf("prefix user id must not own %q", other)
	}
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := &domain.Prediction{UserID: "u1", Label: domain.LabelWeed, Confidence: 0.9}
	id, err := store.Save(ctx, p)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.Timestamp == 0 {
		t.Fatalf("Save should assign a timestamp")
	}
	if id != Key("u1", p.Timestamp) {
		t.Fatalf("id = %q, want %q", id, Key("u1", p.Timestamp))
	}
	if p.ID != id {
		t.Fatalf("prediction id not set: %q", p.ID)
	}
}

func TestListByUserSortsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, ts := range []int64{100, 300, 200} {
		p := &domain.Prediction{UserID: "u1", Label: domain.LabelCrop, Confidence: 0.9, Timestamp: ts}
		if _, err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save(%d): %v", ts, err)
		}
	}

	preds, err := store.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(preds))
	}
	want := []int64{300, 200, 100}
	for i, p := range preds {
		if p.Timestamp != want[i] {
			t.Fatalf("position %d: timestamp %d, want %d", i, p.Timestamp, want[i])
		}
	}
}

func TestListByUserHonorsLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for ts := int64(1); ts <= 10; ts++ {
		p := &domain.Prediction{UserID: "u1", Label: domain.LabelWeed, Confidence: 0.9, Timestamp: ts}
		if _, err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	preds, err := store.ListByUser(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(preds) != 4 {
		t.Fatalf("expected 4 predictions, got %d", len(preds))
	}
	if preds[0].Timestamp != 10 {
		t.Fatalf("limit must keep the newest records, got first ts %d", preds[0].Timestamp)
	}
}

func TestListByUserIsolatesUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, uid := range []string{"u1", "u2"} {
		p := &domain.Prediction{UserID: uid, Label: domain.LabelWeed, Confidence: 0.9}
		if _, err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	preds, err := store.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(preds) != 1 || preds[0].UserID != "u1" {
		t.Fatalf("expected only u1's records, got %+v", preds)
	}
}

func TestGetByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := &domain.Prediction{UserID: "owner", Label: domain.LabelCrop, Confidence: 0.8, Timestamp: 42, FilePath: "owner/42_a.jpg"}
	id, err := store.Save(ctx, p)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByID(ctx, "owner", id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.FilePath != "owner/42_a.jpg" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := store.GetByID(ctx, "intruder", id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign read, got %v", err)
	}

	missing, err := store.GetByID(ctx, "owner", Key("owner", 999))
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing id should yield nil, got %+v", missing)
	}
}

func TestDeleteByIDOwnership(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := &domain.Prediction{UserID: "owner", Label: domain.LabelWeed, Confidence: 0.9, Timestamp: 50}
	id, err := store.Save(ctx, p)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Foreign delete fails regardless of whether the id exists.
	if err := store.DeleteByID(ctx, "intruder", id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := store.DeleteByID(ctx, "intruder", Key("owner", 999)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for missing foreign id, got %v", err)
	}

	if err := store.DeleteByID(ctx, "owner", id); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	// Idempotent: deleting again is not an error.
	if err := store.DeleteByID(ctx, "owner", id); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}

	preds, err := store.ListByUser(ctx, "owner", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(preds) != 0 {
		t.Fatalf("record still present after delete: %+v", preds)
	}
}
