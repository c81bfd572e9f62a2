package models

import "github.com/shopspring/decimal"

// Role is the playing role of a lot.
type Role string

const (
	RoleBatter       Role = "BAT"
	RoleBowler       Role = "BOWL"
	RoleAllRounder   Role = "AR"
	RoleWicketKeeper Role = "WK"
)

// Lot is the static catalog description of an item up for bid.
type Lot struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Role         Role            `json:"role"`
	Country      string          `json:"country"`
	IsOverseas   bool            `json:"is_overseas"`
	BasePrice    decimal.Decimal `json:"base_price"`
	SetNumber    int             `json:"set_number"`
	Slab         string          `json:"slab,omitempty"`
	Capped       bool            `json:"capped"`
	Age          int             `json:"age,omitempty"`
	FormerTeamID string          `json:"former_team_id,omitempty"`
}

// Team is the static catalog description of a franchise.
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Color     string `json:"color,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
}

// LotStatus is the pool status of a lot within one room.
type LotStatus string

const (
	LotStatusPending LotStatus = "PENDING"
	LotStatusLive    LotStatus = "LIVE"
	LotStatusSold    LotStatus = "SOLD"
	LotStatusUnsold  LotStatus = "UNSOLD"
)

// Terminal reports whether no further transition is allowed for the lot.
func (s LotStatus) Terminal() bool {
	return s == LotStatusSold || s == LotStatusUnsold
}

// PoolEntry tracks one lot's outcome within a room.
type PoolEntry struct {
	Status        LotStatus        `json:"status"`
	WinningTeamID string           `json:"winning_team_id,omitempty"`
	FinalPrice    *decimal.Decimal `json:"final_price,omitempty"`
}
