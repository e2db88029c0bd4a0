// Package profile stores player profiles: progress counters, completed quests,
// eggs that are hatching and the animals already hatched.
package profile

import (
	"context"
	"errors"
	"sort"
	"time"
)

var (
	ErrNotFound       = errors.New("profile not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidSortKey = errors.New("invalid sort key")
	ErrInvalidID      = errors.New("profile id is required")
)

const (
	InitialXP        = 0
	InitialEcoPoints = 0
	InitialLevel     = 1
)

// Hatching is an egg that becomes an animal once EndTime has passed.
type Hatching struct {
	EggID   string    `json:"eggId"`
	Rarity  string    `json:"rarity"`
	EndTime time.Time `json:"endTime"`
}

// Animal is a hatched pet.
type Animal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Rarity    string    `json:"rarity"`
	HatchedAt time.Time `json:"hatchedAt"`
	FromEgg   string    `json:"fromEgg"`
}

type Profile struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	DisplayName       string     `json:"displayName"`
	XP                int        `json:"xp"`
	EcoPoints         int        `json:"ecoPoints"`
	Level             int        `json:"level"`
	Badges            []string   `json:"badges"`
	MissionsCompleted int        `json:"missionsCompleted"`
	CompletedQuests   []string   `json:"completedQuests"`
	Hatchings         []Hatching `json:"hatchings"`
	Animals           []Animal   `json:"animals"`
	ActivePet         string     `json:"activePet,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// New returns a profile with starting values and empty collections.
func New(id, email, displayName string, createdAt time.Time) Profile {
	return Profile{
		ID:              id,
		Email:           email,
		DisplayName:     displayName,
		XP:              InitialXP,
		EcoPoints:       InitialEcoPoints,
		Level:           InitialLevel,
		Badges:          []string{},
		CompletedQuests: []string{},
		Hatchings:       []Hatching{},
		Animals:         []Animal{},
		CreatedAt:       createdAt.UTC(),
	}
}

// Patch holds a partial update. Nil fields are left unchanged.
type Patch struct {
	DisplayName       *string
	XP                *int
	EcoPoints         *int
	Level             *int
	Badges            *[]string
	MissionsCompleted *int
	CompletedQuests   *[]string
	Hatchings         *[]Hatching
	Animals           *[]Animal
	ActivePet         *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

func (p Patch) apply(dst *Profile) {
	if p.DisplayName != nil {
		dst.DisplayName = *p.DisplayName
	}
	if p.XP != nil {
		dst.XP = *p.XP
	}
	if p.EcoPoints != nil {
		dst.EcoPoints = *p.EcoPoints
	}
	if p.Level != nil {
		dst.Level = *p.Level
	}
	if p.Badges != nil {
		dst.Badges = append([]string(nil), *p.Badges...)
	}
	if p.MissionsCompleted != nil {
		dst.MissionsCompleted = *p.MissionsCompleted
	}
	if p.CompletedQuests != nil {
		dst.CompletedQuests = append([]string(nil), *p.CompletedQuests...)
	}
	if p.Hatchings != nil {
		dst.Hatchings = append([]Hatching(nil), *p.Hatchings...)
	}
	if p.Animals != nil {
		dst.Animals = append([]Animal(nil), *p.Animals...)
	}
	if p.ActivePet != nil {
		dst.ActivePet = *p.ActivePet
	}
}

// Store persists profiles together with the password hash of their account.
type Store interface {
	Create(ctx context.Context, p Profile, passwordHash string) error
	Get(ctx context.Context, id string) (Profile, error)
	FindByEmail(ctx context.Context, email string) (Profile, string, error)
	Update(ctx context.Context, id string, patch Patch) error
	ListAll(ctx context.Context, sortKey string) ([]Profile, error)
}

var sortKeys = map[string]func(Profile) int{
	"xp":                func(p Profile) int { return p.XP },
	"ecoPoints":         func(p Profile) int { return p.EcoPoints },
	"level":             func(p Profile) int { return p.Level },
	"missionsCompleted": func(p Profile) int { return p.MissionsCompleted },
}

// SortKeys lists the fields ListAll accepts.
func SortKeys() []string {
	out := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortProfiles orders profiles descending by key, ties broken by id.
func sortProfiles(profiles []Profile, sortKey string) error {
	if sortKey == "" {
		sortKey = "xp"
	}
	value, ok := sortKeys[sortKey]
	if !ok {
		return ErrInvalidSortKey
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		vi, vj := value(profiles[i]), value(profiles[j])
		if vi != vj {
			return vi > vj
		}
		return profiles[i].ID < profiles[j].ID
	})
	return nil
}

func clone(p Profile) Profile {
	p.Badges = append([]string{}, p.Badges...)
	p.CompletedQuests = append([]string{}, p.CompletedQuests...)
	p.Hatchings = append([]Hatching{}, p.Hatchings...)
	p.Animals = append([]Animal{}, p.Animals...)
	return p
}
