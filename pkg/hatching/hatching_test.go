package hatching

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/quidome/ecoquest-go/pkg/profile"
)

func TestTables(t *testing.T) {
	testCases := []struct {
		rarity string
		size   int
	}{
		{Common, 6},
		{Rare, 5},
		{Epic, 6},
		{Legendary, 6},
	}
	for _, tc := range testCases {
		table := tableFor(tc.rarity)
		if len(table) != tc.size {
			t.Fatalf("%s: expected %d species, got %d", tc.rarity, tc.size, len(table))
		}
		for _, s := range table {
			if s.Rarity != tc.rarity {
				t.Fatalf("%s table contains %#v", tc.rarity, s)
			}
		}
	}

	if got := tableFor("mythic"); got[0].Rarity != Common {
		t.Fatalf("unknown rarity should fall back to common, got %#v", got[0])
	}
	if got := tableFor(Legendary)[2]; got.Name != "Phoenix" || got.Weight != 0.3 || got.ID != "animal_legendary_3" {
		t.Fatalf("unexpected legendary entry %#v", got)
	}
}

func TestRandomAnimal_StaysInTable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		if s := RandomAnimal(Epic, rng); s.Rarity != Epic {
			t.Fatalf("drew %#v from epic table", s)
		}
	}
	if s := RandomAnimal("", rng); s.Rarity != Common {
		t.Fatalf("empty rarity should draw from common, got %#v", s)
	}
}

func TestRandomAnimal_RespectsWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	counts := map[string]int{}
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[RandomAnimal(Legendary, rng).Name]++
	}
	// Phoenix has weight 0.3 against 1 for Tiger.
	if counts["Phoenix"]*2 > counts["Tiger"] {
		t.Fatalf("expected Phoenix to be rarer than Tiger, got %v", counts)
	}
}

func TestEmoji(t *testing.T) {
	if Emoji("Dragon") != "🐉" || Emoji("Worm") != "🪱" {
		t.Fatalf("unexpected emoji")
	}
	if Emoji("Unicorn") != "🐾" {
		t.Fatalf("expected fallback paw print")
	}
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	store := profile.NewMemoryStore()
	p := profile.New("u1", "a@b.ee", "Anna", now.Add(-48*time.Hour))
	if err := store.Create(ctx, p, "h"); err != nil {
		t.Fatalf("create: %v", err)
	}
	hatchings := []profile.Hatching{
		{EggID: "egg-done", Rarity: Rare, EndTime: now.Add(-time.Minute)},
		{EggID: "egg-exact", Rarity: Common, EndTime: now},
		{EggID: "egg-later", Rarity: Epic, EndTime: now.Add(time.Hour)},
	}
	existing := []profile.Animal{{ID: "animal_common_2", Name: "Dog", Rarity: Common}}
	if err := store.Update(ctx, "u1", profile.Patch{Hatchings: &hatchings, Animals: &existing}); err != nil {
		t.Fatalf("update: %v", err)
	}

	res, err := Process(ctx, store, "u1", now, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(res.NewAnimals) != 2 || len(res.Pending) != 1 || res.Pending[0].EggID != "egg-later" {
		t.Fatalf("unexpected result %#v", res)
	}
	if res.NewAnimals[0].FromEgg != "egg-done" || res.NewAnimals[0].Rarity != Rare || !res.NewAnimals[0].HatchedAt.Equal(now) {
		t.Fatalf("unexpected animal %#v", res.NewAnimals[0])
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Animals) != 3 || got.Animals[0].Name != "Dog" {
		t.Fatalf("expected existing animal kept and two appended, got %#v", got.Animals)
	}
	if len(got.Hatchings) != 1 {
		t.Fatalf("expected one pending hatching, got %#v", got.Hatchings)
	}
}

func TestProcess_NothingReady(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store := profile.NewMemoryStore()
	if err := store.Create(ctx, profile.New("u1", "a@b.ee", "Anna", now), "h"); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := Process(ctx, store, "u1", now, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(res.NewAnimals) != 0 {
		t.Fatalf("expected nothing hatched, got %#v", res.NewAnimals)
	}

	if _, err := Process(ctx, store, "missing", now, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}
