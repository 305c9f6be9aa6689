package social

// Effect changes a country. Multiplier scales the effect's amounts.
type Effect interface {
	Apply(c *Country, multiplier int64) error
}

// Modifier is a scripted country modifier. It applies its effect once per
// turn while active. A negative TurnsLeft never expires.
type Modifier struct {
	ID         string `json:"id"`
	Source     string `json:"source"` // effect script
	Multiplier int64  `json:"multiplier"`
	TurnsLeft  int    `json:"turns_left"`
	Effect     Effect `json:"-"`
}

// DecrementModifiers ages the country's scripted modifiers and returns the
// IDs of the ones that expired.
func (c *Country) DecrementModifiers() []string {
	var expired []string
	kept := c.Modifiers[:0]
	for _, m := range c.Modifiers {
		if m.TurnsLeft < 0 {
			kept = append(kept, m)
			continue
		}
		m.TurnsLeft--
		if m.TurnsLeft <= 0 {
			expired = append(expired, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	c.Modifiers = kept
	return expired
}
