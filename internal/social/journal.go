package social

// CountryCondition is a predicate over a country.
type CountryCondition interface {
	Check(c *Country) (bool, error)
}

// JournalEntry is an objective that completes once its condition holds.
type JournalEntry struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Condition string           `json:"condition"`
	Done      bool             `json:"done"`
	Check     CountryCondition `json:"-"`
}
