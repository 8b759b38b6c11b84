package tool

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// Multiplier is one earn-rate category on a card.
type Multiplier struct {
	Category    string  `json:"category"`
	Multiplier  float64 `json:"multiplier"`
	Description string  `json:"description"`
}

// Perk is a non-earn benefit attached to a card.
type Perk struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Value       *float64 `json:"value"`
}

// CardBenefits is the full benefit sheet for one card.
type CardBenefits struct {
	CardID      string       `json:"card_id"`
	CardName    string       `json:"card_name"`
	AnnualFee   float64      `json:"annual_fee"`
	Multipliers []Multiplier `json:"multipliers"`
	Perks       []Perk       `json:"perks"`
	PointValue  float64      `json:"point_value"`
}

func ptr(v float64) *float64 { return &v }

var cardBenefitSheets = map[string]CardBenefits{
	"freedom": {
		CardID:    "freedom",
		CardName:  "Chase Freedom",
		AnnualFee: 0.0,
		Multipliers: []Multiplier{
			{Category: "rotating_categories", Multiplier: 5.0, Description: "5% cash back on up to $1,500 in combined purchases in rotating categories each quarter"},
			{Category: "all_other_purchases", Multiplier: 1.0, Description: "1% cash back on all other purchases"},
		},
		Perks: []Perk{
			{Name: "No Annual Fee", Description: "No annual fee", Value: ptr(0.0)},
		},
		PointValue: 1.0,
	},
	"freedom_unlimited": {
		CardID:    "freedom_unlimited",
		CardName:  "Chase Freedom Unlimited",
		AnnualFee: 0.0,
		Multipliers: []Multiplier{
			{Category: "all_purchases", Multiplier: 1.5, Description: "1.5% cash back on all purchases"},
		},
		Perks: []Perk{
			{Name: "No Annual Fee", Description: "No annual fee", Value: ptr(0.0)},
		},
		PointValue: 1.0,
	},
	"sapphire_preferred": {
		CardID:    "sapphire_preferred",
		CardName:  "Chase Sapphire Preferred",
		AnnualFee: 95.0,
		Multipliers: []Multiplier{
			{Category: "travel_dining", Multiplier: 2.0, Description: "2X points on travel and dining at restaurants"},
			{Category: "all_other_purchases", Multiplier: 1.0, Description: "1X points on all other purchases"},
		},
		Perks: []Perk{
			{Name: "Annual Fee", Description: "$95 annual fee", Value: ptr(95.0)},
			{Name: "Transfer Partners", Description: "Transfer points to airline and hotel partners", Value: nil},
		},
		PointValue: 1.25,
	},
	"sapphire_reserve": {
		CardID:    "sapphire_reserve",
		CardName:  "Chase Sapphire Reserve",
		AnnualFee: 550.0,
		Multipliers: []Multiplier{
			{Category: "travel_dining", Multiplier: 3.0, Description: "3X points on travel and dining at restaurants"},
			{Category: "all_other_purchases", Multiplier: 1.0, Description: "1X points on all other purchases"},
		},
		Perks: []Perk{
			{Name: "Annual Fee", Description: "$550 annual fee", Value: ptr(550.0)},
			{Name: "Travel Credit", Description: "$300 annual travel credit", Value: ptr(300.0)},
			{Name: "Priority Pass", Description: "Airport lounge access", Value: nil},
		},
		PointValue: 1.5,
	},
}

func cardBenefitsInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGetCardBenefits,
		Desc: "Look up benefit sheets (earn multipliers, perks, point value) for one or more cards.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"cardIds": {
				Type:     schema.Array,
				Desc:     "Card ids to fetch benefits for, e.g. ['sapphire_preferred']",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
				Required: true,
			},
		}),
	}
}

func handleGetCardBenefits(_ context.Context, args map[string]any) (map[string]any, *contractx.Error) {
	r := newArgReader(args)
	cardIDs := r.StringSlice("cardIds")
	if err := r.Err(); err != nil {
		return nil, err
	}

	if len(cardIDs) == 0 {
		return nil, contractx.NewErrorWithDetails(contractx.KindInvalidCardIDs,
			map[string]any{"valid_card_ids": knownCardIDs()},
			"no card ids provided")
	}

	cards := make([]CardBenefits, 0, len(cardIDs))
	var invalid []string
	for _, id := range cardIDs {
		sheet, ok := cardBenefitSheets[id]
		if !ok {
			invalid = append(invalid, id)
			continue
		}
		cards = append(cards, sheet)
	}
	if len(invalid) > 0 {
		return nil, contractx.NewErrorWithDetails(contractx.KindInvalidCardIDs,
			map[string]any{"invalid_card_ids": invalid, "valid_card_ids": knownCardIDs()},
			"unknown card ids")
	}

	return map[string]any{"cards": cards}, nil
}

func knownCardIDs() []string {
	ids := make([]string, 0, len(cardBenefitSheets))
	for id := range cardBenefitSheets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
