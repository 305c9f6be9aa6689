// Package social provides countries: their relations and opinion, government
// and characters, scripted modifiers, journal, units and research.
package social

import (
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/world"
)

// GovernanceType represents how a country is governed.
type GovernanceType uint8

const (
	GovMonarchy         GovernanceType = iota // One ruler, succession by eldest
	GovCouncil                                // Elected representatives
	GovMerchantRepublic                       // Wealthiest citizens govern
	GovCommune                                // Direct democracy
)

func (g GovernanceType) String() string {
	switch g {
	case GovMonarchy:
		return "monarchy"
	case GovCouncil:
		return "council"
	case GovMerchantRepublic:
		return "merchant_republic"
	case GovCommune:
		return "commune"
	}
	return "unknown"
}

// TradePolicy posts offers and bids before trade clearing. Reserve is kept
// back from sale; Target is the stock the country bids up to.
type TradePolicy struct {
	Reserve map[string]int64 `json:"reserve"`
	Target  map[string]int64 `json:"target"`
}

// Country is a playable polity.
type Country struct {
	ID         world.CountryID    `json:"id"`
	Name       string             `json:"name"`
	Economy    *economy.Ledger    `json:"-"`
	Relations  *Relations         `json:"relations"`
	Anarchy    bool               `json:"anarchy"`
	Government GovernanceType     `json:"government"`
	Provinces  []world.ProvinceID `json:"provinces"`

	PrimaryCulture    string `json:"primary_culture"`
	GrowthAccumulator int64  `json:"growth_accumulator"`

	Modifiers  []*Modifier     `json:"modifiers,omitempty"`
	Journal    []*JournalEntry `json:"journal,omitempty"`
	Characters []*Character    `json:"characters,omitempty"`
	Ruler      CharacterID     `json:"ruler"` // zero when vacant

	Military     []*Unit `json:"military,omitempty"`
	Civilians    []*Unit `json:"civilians,omitempty"`
	Transporters []*Unit `json:"transporters,omitempty"`

	MilitaryQueue    Queue `json:"military_queue"`
	CivilianQueue    Queue `json:"civilian_queue"`
	TransporterQueue Queue `json:"transporter_queue"`

	Research Research     `json:"research"`
	Trade    *TradePolicy `json:"trade,omitempty"`
}

// NewCountry creates a country with an empty relation set bounded by
// [opinionMin, opinionMax].
func NewCountry(id world.CountryID, name string, ledger *economy.Ledger, opinionMin, opinionMax int64) *Country {
	return &Country{
		ID:        id,
		Name:      name,
		Economy:   ledger,
		Relations: NewRelations(id, opinionMin, opinionMax),
	}
}

// OwnsProvince reports whether p belongs to the country.
func (c *Country) OwnsProvince(p world.ProvinceID) bool {
	for _, id := range c.Provinces {
		if id == p {
			return true
		}
	}
	return false
}

// AllUnits returns transporters, civilians and military units in that order.
func (c *Country) AllUnits() []*Unit {
	out := make([]*Unit, 0, len(c.Transporters)+len(c.Civilians)+len(c.Military))
	out = append(out, c.Transporters...)
	out = append(out, c.Civilians...)
	return append(out, c.Military...)
}
