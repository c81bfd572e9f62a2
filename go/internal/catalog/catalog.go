package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type fileConfig struct {
	MaxPurse string     `yaml:"max_purse"`
	Teams    []teamYAML `yaml:"teams"`
	Lots     []lotYAML  `yaml:"lots"`
}

type teamYAML struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Short    string         `yaml:"short_name"`
	Color    string         `yaml:"color"`
	LogoURL  string         `yaml:"logo_url"`
	RTMCards int            `yaml:"rtm_cards"`
	Retained []retainedYAML `yaml:"retained"`
}

type retainedYAML struct {
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Country  string `yaml:"country"`
	Overseas bool   `yaml:"overseas"`
	Price    string `yaml:"price"`
}

type lotYAML struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Country    string `yaml:"country"`
	Overseas   bool   `yaml:"overseas"`
	BasePrice  string `yaml:"base_price"`
	Set        int    `yaml:"set"`
	Slab       string `yaml:"slab"`
	Capped     bool   `yaml:"capped"`
	Age        int    `yaml:"age"`
	FormerTeam string `yaml:"former_team"`
}

// Retention is a squad member a franchise keeps before the auction.
type Retention struct {
	Lot   models.Lot
	Price decimal.Decimal
}

// Franchise is a team plus its pre-auction allocation.
type Franchise struct {
	models.Team
	RTMCards int
	Retained []Retention
}

// Catalog is the read-only lot and franchise listing shared by every room.
type Catalog struct {
	maxPurse   decimal.Decimal
	franchises []Franchise
	lots       map[string]models.Lot
	lotOrder   []string
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	maxPurse, err := decimal.NewFromString(cfg.MaxPurse)
	if err != nil {
		return nil, fmt.Errorf("invalid max_purse %q: %w", cfg.MaxPurse, err)
	}

	c := &Catalog{
		maxPurse: maxPurse,
		lots:     make(map[string]models.Lot, len(cfg.Lots)),
	}

	teamIDs := make(map[string]bool, len(cfg.Teams))
	for _, t := range cfg.Teams {
		if t.ID == "" {
			return nil, fmt.Errorf("team %q has no id", t.Name)
		}
		if teamIDs[t.ID] {
			return nil, fmt.Errorf("duplicate team id %s", t.ID)
		}
		teamIDs[t.ID] = true

		f := Franchise{
			Team: models.Team{
				ID:        t.ID,
				Name:      t.Name,
				ShortName: t.Short,
				Color:     t.Color,
				LogoURL:   t.LogoURL,
			},
			RTMCards: t.RTMCards,
		}
		for i, r := range t.Retained {
			price, err := decimal.NewFromString(r.Price)
			if err != nil {
				return nil, fmt.Errorf("team %s retention %q: invalid price: %w", t.ID, r.Name, err)
			}
			f.Retained = append(f.Retained, Retention{
				Lot: models.Lot{
					ID:         fmt.Sprintf("%s-r%d", t.ID, i+1),
					Name:       r.Name,
					Role:       models.Role(r.Role),
					Country:    r.Country,
					IsOverseas: r.Overseas,
					BasePrice:  price,
					Capped:     true,
				},
				Price: price,
			})
		}
		c.franchises = append(c.franchises, f)
	}

	for _, l := range cfg.Lots {
		if _, dup := c.lots[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lot id %s", l.ID)
		}
		base, err := decimal.NewFromString(l.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("lot %s: invalid base price: %w", l.ID, err)
		}
		if !base.IsPositive() {
			return nil, fmt.Errorf("lot %s: base price must be positive", l.ID)
		}
		if l.FormerTeam != "" && !teamIDs[l.FormerTeam] {
			return nil, fmt.Errorf("lot %s: unknown former team %s", l.ID, l.FormerTeam)
		}
		c.lots[l.ID] = models.Lot{
			ID:           l.ID,
			Name:         l.Name,
			Role:         models.Role(l.Role),
			Country:      l.Country,
			IsOverseas:   l.Overseas,
			BasePrice:    base,
			SetNumber:    l.Set,
			Slab:         l.Slab,
			Capped:       l.Capped,
			Age:          l.Age,
			FormerTeamID: l.FormerTeam,
		}
		c.lotOrder = append(c.lotOrder, l.ID)
	}

	return c, nil
}

// New builds a catalog directly, mostly for tests.
func New(maxPurse decimal.Decimal, franchises []Franchise, lots []models.Lot) *Catalog {
	c := &Catalog{
		maxPurse:   maxPurse,
		franchises: franchises,
		lots:       make(map[string]models.Lot, len(lots)),
	}
	for _, l := range lots {
		c.lots[l.ID] = l
		c.lotOrder = append(c.lotOrder, l.ID)
	}
	return c
}

// Lot looks up a lot by id.
func (c *Catalog) Lot(id string) (models.Lot, bool) {
	l, ok := c.lots[id]
	return l, ok
}

// LotIDs returns every lot id in file order.
func (c *Catalog) LotIDs() []string {
	out := make([]string, len(c.lotOrder))
	copy(out, c.lotOrder)
	return out
}

// Franchises returns the franchises in file order.
func (c *Catalog) Franchises() []Franchise {
	out := make([]Franchise, len(c.franchises))
	copy(out, c.franchises)
	return out
}

// MaxPurse is the starting purse before retentions are deducted.
func (c *Catalog) MaxPurse() decimal.Decimal {
	return c.maxPurse
}

// Sets returns the distinct set numbers in ascending order.
func (c *Catalog) Sets() []int {
	seen := make(map[int]bool)
	var sets []int
	for _, l := range c.lots {
		if !seen[l.SetNumber] {
			seen[l.SetNumber] = true
			sets = append(sets, l.SetNumber)
		}
	}
	sort.Ints(sets)
	return sets
}
