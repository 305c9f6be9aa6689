package social

// CharacterID identifies a character within its country.
type CharacterID uint32

// Character is a member of a country's court.
type Character struct {
	ID   CharacterID `json:"id"`
	Name string      `json:"name"`
	Age  int         `json:"age"`
}

// Character returns the living character with the given ID.
func (c *Country) Character(id CharacterID) (*Character, bool) {
	for _, ch := range c.Characters {
		if ch.ID == id {
			return ch, true
		}
	}
	return nil, false
}

// RemoveCharacter drops a dead character from the court.
func (c *Country) RemoveCharacter(id CharacterID) {
	for i, ch := range c.Characters {
		if ch.ID == id {
			c.Characters = append(c.Characters[:i], c.Characters[i+1:]...)
			return
		}
	}
}

// Eldest returns the oldest living character; ties go to the lower ID.
func (c *Country) Eldest() (*Character, bool) {
	var best *Character
	for _, ch := range c.Characters {
		if best == nil || ch.Age > best.Age || (ch.Age == best.Age && ch.ID < best.ID) {
			best = ch
		}
	}
	return best, best != nil
}
