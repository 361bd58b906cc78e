package repository

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/smart-seats/internal/model"
)

func TestHistoryRepoInsertList(t *testing.T) {
	db := openTestDB(t)
	repo := NewHistoryRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	recs := []model.OccupancyRecord{
		{ID: "h1", LocationName: "Library", RecordedAt: base, OccupancyCount: 10, TotalCapacity: 40, HourOfDay: 9},
		{ID: "h2", LocationName: "Annex", RecordedAt: base.Add(time.Hour), OccupancyCount: 1, TotalCapacity: 8, HourOfDay: 10},
		{ID: "h3", LocationName: "Library", RecordedAt: base.Add(2 * time.Hour), OccupancyCount: 30, TotalCapacity: 40, HourOfDay: 11},
	}
	if err := repo.Insert(ctx, recs); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	all, err := repo.List(ctx, "", 100)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "h3" || all[2].ID != "h1" {
		t.Fatalf("order = %+v", all)
	}
	if !all[0].RecordedAt.Equal(base.Add(2*time.Hour)) || all[0].Percentage() != 75 {
		t.Fatalf("h3 = %+v", all[0])
	}

	lib, err := repo.List(ctx, "Library", 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lib) != 1 || lib[0].ID != "h3" {
		t.Fatalf("library = %+v", lib)
	}
}

func TestHistoryRepoInsertIsAtomic(t *testing.T) {
	db := openTestDB(t)
	repo := NewHistoryRepo(db)
	ctx := context.Background()

	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	dup := []model.OccupancyRecord{
		{ID: "h1", LocationName: "Library", RecordedAt: at},
		{ID: "h1", LocationName: "Library", RecordedAt: at},
	}
	if err := repo.Insert(ctx, dup); err == nil {
		t.Fatal("duplicate id accepted")
	}
	got, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("partial insert kept %d rows", len(got))
	}
}
