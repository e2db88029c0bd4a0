// Package hatching turns finished eggs into animals.
package hatching

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/quidome/ecoquest-go/pkg/profile"
)

const (
	Common    = "common"
	Rare      = "rare"
	Epic      = "epic"
	Legendary = "legendary"
)

// Species is one entry of a rarity table.
type Species struct {
	ID     string
	Name   string
	Image  string
	Rarity string
	Weight float64
}

func species(rarity string, weights map[string]float64, names ...string) []Species {
	out := make([]Species, 0, len(names))
	for i, name := range names {
		w, ok := weights[name]
		if !ok {
			w = 1
		}
		out = append(out, Species{
			ID:     fmt.Sprintf("animal_%s_%d", rarity, i+1),
			Name:   name,
			Image:  "../images/pets/" + strings.ToLower(name) + ".png",
			Rarity: rarity,
			Weight: w,
		})
	}
	return out
}

var tables = map[string][]Species{
	Common:    species(Common, nil, "Cat", "Dog", "Rabbit", "Bee", "Mouse", "Worm"),
	Rare:      species(Rare, nil, "Deer", "Owl", "Panda", "Cobra", "Jaguar"),
	Epic:      species(Epic, nil, "Wolf", "Bear", "Eagle", "Lynx", "Shark", "Whale"),
	Legendary: species(Legendary, map[string]float64{"Phoenix": 0.3, "Dragon": 0.3}, "Tiger", "Lion", "Phoenix", "Dragon", "Kraken", "Octapus"),
}

// tableFor returns the species of rarity; unknown rarities use the common table.
func tableFor(rarity string) []Species {
	t, ok := tables[rarity]
	if !ok {
		t = tables[Common]
	}
	return t
}

// RandomAnimal draws a species from the rarity table, weighted.
func RandomAnimal(rarity string, rng *rand.Rand) Species {
	table := tableFor(rarity)

	var total float64
	for _, s := range table {
		total += s.Weight
	}
	r := rng.Float64() * total
	for _, s := range table {
		r -= s.Weight
		if r <= 0 {
			return s
		}
	}
	return table[0]
}

var emoji = map[string]string{
	"Cat": "🐱", "Dog": "🐶", "Rabbit": "🐰", "Bee": "🐝", "Mouse": "🐭", "Worm": "🪱",
	"Deer": "🦌", "Owl": "🦉", "Panda": "🐼", "Cobra": "🐍", "Jaguar": "🐆",
	"Wolf": "🐺", "Bear": "🐻", "Eagle": "🦅", "Lynx": "🐱", "Shark": "🦈", "Whale": "🐋",
	"Tiger": "🐯", "Lion": "🦁", "Phoenix": "🔥", "Dragon": "🐉", "Kraken": "🐙", "Octapus": "🐙",
}

// Emoji returns a glyph for the species name, or a paw print.
func Emoji(name string) string {
	if e, ok := emoji[name]; ok {
		return e
	}
	return "🐾"
}

// Result lists what Process hatched.
type Result struct {
	NewAnimals []profile.Animal
	Pending    []profile.Hatching
}

// Process hatches every egg of userID whose end time is not after now,
// appending the new animals to the profile. Unfinished eggs stay pending.
func Process(ctx context.Context, store profile.Store, userID string, now time.Time, rng *rand.Rand) (Result, error) {
	p, err := store.Get(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load profile: %w", err)
	}

	var res Result
	res.Pending = []profile.Hatching{}
	for _, h := range p.Hatchings {
		if h.EndTime.After(now) {
			res.Pending = append(res.Pending, h)
			continue
		}
		s := RandomAnimal(h.Rarity, rng)
		res.NewAnimals = append(res.NewAnimals, profile.Animal{
			ID:        s.ID,
			Name:      s.Name,
			Image:     s.Image,
			Rarity:    s.Rarity,
			HatchedAt: now.UTC(),
			FromEgg:   h.EggID,
		})
	}

	if len(res.NewAnimals) == 0 {
		return res, nil
	}

	animals := append(append([]profile.Animal{}, p.Animals...), res.NewAnimals...)
	if err := store.Update(ctx, userID, profile.Patch{Hatchings: &res.Pending, Animals: &animals}); err != nil {
		return Result{}, fmt.Errorf("failed to save hatchings: %w", err)
	}
	return res, nil
}
