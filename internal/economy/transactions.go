package economy

import (
	"github.com/talgya/mini-realm/internal/world"
)

// Category classifies a transaction.
type Category string

const (
	CategoryTariff        Category = "tariff"         // trade sale income
	CategoryTreasureFleet Category = "treasure_fleet" // convertible commodity income
	CategoryVassalTax     Category = "vassal_tax"
	CategoryStatePurchase Category = "state_purchase"
	CategoryMarketSale    Category = "market_sale"
	CategoryProvinceTax   Category = "province_tax"
	CategoryMaintenance   Category = "maintenance"
	CategoryRecruitment   Category = "recruitment"
)

// Taxable reports whether c may enter the taxation cascade.
func (c Category) Taxable() bool {
	return c == CategoryTariff || c == CategoryTreasureFleet
}

// Direction of a transaction relative to the country it is logged against.
type Direction string

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

// Transaction is one append-only record in a country's turn data.
type Transaction struct {
	Turn         int             `json:"turn" db:"turn"`
	Direction    Direction       `json:"direction" db:"direction"`
	Category     Category        `json:"category" db:"category"`
	Amount       int64           `json:"amount" db:"amount"`
	Commodity    string          `json:"commodity,omitempty" db:"commodity"`
	Quantity     int64           `json:"quantity,omitempty" db:"quantity"`
	Counterparty world.CountryID `json:"counterparty,omitempty" db:"counterparty"`
}

// TurnData accumulates one country's transactions for one turn.
type TurnData struct {
	Turn         int           `json:"turn"`
	Transactions []Transaction `json:"transactions"`
}

func (t *TurnData) log(tx Transaction) {
	tx.Turn = t.Turn
	t.Transactions = append(t.Transactions, tx)
}

// Total sums the amounts of one direction and category. An empty category
// matches every category.
func (t *TurnData) Total(dir Direction, cat Category) int64 {
	var n int64
	for _, tx := range t.Transactions {
		if tx.Direction == dir && (cat == "" || tx.Category == cat) {
			n += tx.Amount
		}
	}
	return n
}

// Balance is total income minus total expense.
func (t *TurnData) Balance() int64 {
	return t.Total(Income, "") - t.Total(Expense, "")
}
