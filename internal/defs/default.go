package defs

// Default returns the built-in content set used when no definition file is
// configured. It panics if the built-in content does not validate.
func Default() *Database {
	db := &Database{
		Commodities: []Commodity{
			{ID: "grain", Name: "Grain", Price: 2, Storable: true, Tradeable: true, Food: true, Enabled: true},
			{ID: "fish", Name: "Fish", Price: 3, Storable: true, Tradeable: true, Food: true, Enabled: true},
			{ID: "timber", Name: "Timber", Price: 4, Storable: true, Tradeable: true, Enabled: true},
			{ID: "iron", Name: "Iron", Price: 8, Storable: true, Tradeable: true, Enabled: true},
			{ID: "tools", Name: "Tools", Price: 12, Storable: true, Tradeable: true, Enabled: true},
			{ID: "gold", Name: "Gold", Price: 20, Storable: true, ConvertibleToWealth: true, WealthRate: 20, Enabled: true},
			{ID: "labor", Name: "Labor", Abstract: true, Enabled: true},
			{ID: "research", Name: "Research", Abstract: true, Enabled: true},
			{ID: "prestige", Name: "Prestige", Storable: true, Abstract: true, NegativeAllowed: true, Enabled: true},
		},
		PopTypes: []PopType{
			{ID: "farmer", Class: "peasant", Output: "grain", OutputAmount: 6, FoodConsumption: 1},
			{ID: "fisher", Class: "coastal", Output: "fish", OutputAmount: 5, FoodConsumption: 1},
			{ID: "woodcutter", Class: "laborer", Output: "timber", OutputAmount: 3, FoodConsumption: 1},
			{ID: "miner", Class: "miner", Output: "iron", OutputAmount: 2, FoodConsumption: 1},
			{ID: "artisan", Class: "artisan", Output: "tools", OutputAmount: 1, FoodConsumption: 1},
			{ID: "worker", Class: "worker", Output: "labor", OutputAmount: 4, Labor: true, FoodConsumption: 1},
			{ID: "scholar", Class: "scholar", Output: "research", OutputAmount: 2, Labor: true, FoodConsumption: 1},
			{ID: "nomad_herder", Class: "peasant", Output: "grain", OutputAmount: 5, FoodConsumption: 1},
		},
		Cultures: []Culture{
			{
				ID: "lowlander", Name: "Lowlander",
				PopTypes: map[string]string{"peasant": "farmer", "coastal": "fisher", "laborer": "woodcutter", "miner": "miner", "artisan": "artisan", "worker": "worker", "scholar": "scholar"},
				Derivations: []Derivation{
					{Target: "coaster", Condition: `pop.type == "fisher"`},
					{Target: "highlander", Condition: `pop.type == "miner" and pop.size >= 2`},
				},
			},
			{
				ID: "highlander", Name: "Highlander",
				PopTypes: map[string]string{"peasant": "farmer", "laborer": "woodcutter", "miner": "miner", "artisan": "artisan", "worker": "worker", "scholar": "scholar"},
				Derivations: []Derivation{
					{Target: "lowlander", Condition: `pop.type == "farmer"`},
				},
			},
			{
				ID: "coaster", Name: "Coaster",
				PopTypes: map[string]string{"peasant": "farmer", "coastal": "fisher", "laborer": "woodcutter", "artisan": "artisan", "worker": "worker", "scholar": "scholar"},
				Derivations: []Derivation{
					{Target: "lowlander", Condition: ""},
				},
			},
			{
				ID: "steppe", Name: "Steppe",
				PopTypes: map[string]string{"peasant": "nomad_herder", "laborer": "woodcutter", "worker": "worker"},
			},
		},
		Religions:  []string{"old_ways", "sun_temple", "river_cult"},
		Phenotypes: []string{"fair", "olive", "dark"},
		UnitTypes: []UnitType{
			{ID: "levy", Kind: UnitMilitary, Upkeep: 2, Cost: map[string]int64{"iron": 2, "grain": 5}, Speed: 1},
			{ID: "settler", Kind: UnitCivilian, Upkeep: 1, Cost: map[string]int64{"grain": 20, "tools": 1}, Speed: 1},
			{ID: "cart", Kind: UnitTransporter, Upkeep: 1, Cost: map[string]int64{"timber": 4}, Speed: 2},
		},
		Technologies: []Technology{
			{ID: "irrigation", Name: "Irrigation", Cost: 30},
			{ID: "bronze_working", Name: "Bronze Working", Cost: 60},
			{ID: "sailing", Name: "Sailing", Cost: 90},
		},
		Rules: Rules{
			VassalTaxRate:     25,
			GrowthThreshold:   100,
			SpawnSize:         1,
			OpinionMin:        -100,
			OpinionMax:        100,
			PrestigeCommodity: "prestige",
			ResearchCommodity: "research",
			ProvinceTaxRate:   50,
			MortalityAge:      60,
			DefaultCapacity:   1000,
		},
	}
	if err := db.Prepare(); err != nil {
		panic(err)
	}
	return db
}
