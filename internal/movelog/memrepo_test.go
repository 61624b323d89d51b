package movelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/whales/internal/domain"
)

func TestMemoryRepositoryOrdering(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []*domain.MoveRecord{
		{RequestUUID: "a", Model: "random", MoveUCI: "e2e4", CreatedAt: base},
		{RequestUUID: "b", Model: "material-depth2", MoveUCI: "d2d4", CreatedAt: base.Add(time.Minute)},
		{RequestUUID: "c", Model: "random", MoveUCI: "g1f3", CreatedAt: base.Add(time.Minute)},
	}
	for _, rec := range records {
		if _, err := repo.InsertMove(ctx, rec); err != nil {
			t.Fatalf("InsertMove %s: %v", rec.RequestUUID, err)
		}
	}

	all, err := repo.RecentMoves(ctx, "", 0)
	if err != nil {
		t.Fatalf("RecentMoves: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	// same timestamp falls back to id
	if all[0].RequestUUID != "c" || all[1].RequestUUID != "b" || all[2].RequestUUID != "a" {
		t.Fatalf("unexpected order: %s %s %s", all[0].RequestUUID, all[1].RequestUUID, all[2].RequestUUID)
	}

	random, err := repo.RecentMoves(ctx, "random", 1)
	if err != nil {
		t.Fatalf("RecentMoves random: %v", err)
	}
	if len(random) != 1 || random[0].RequestUUID != "c" {
		t.Fatalf("expected newest random record, got %+v", random)
	}
}

func TestMemoryRepositoryDuplicateAndCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, err := repo.InsertMove(ctx, &domain.MoveRecord{RequestUUID: "req-1", Model: "random", MovesUCI: []string{"e2e4"}})
	if err != nil || id != 1 {
		t.Fatalf("InsertMove: id=%d err=%v", id, err)
	}
	if _, err := repo.InsertMove(ctx, &domain.MoveRecord{RequestUUID: "req-1"}); !errors.Is(err, ErrDuplicateMove) {
		t.Fatalf("expected ErrDuplicateMove, got %v", err)
	}

	got, err := repo.RecentMoves(ctx, "random", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("RecentMoves: %+v err=%v", got, err)
	}
	got[0].MovesUCI[0] = "changed"
	again, _ := repo.RecentMoves(ctx, "random", 1)
	if again[0].MovesUCI[0] != "e2e4" {
		t.Fatalf("stored record was mutated through a returned copy")
	}
}
