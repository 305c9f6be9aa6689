package social

// Research tracks progress toward the current technology.
type Research struct {
	Current   string   `json:"current"`
	Progress  int64    `json:"progress"`
	Completed []string `json:"completed,omitempty"`
}

// Add puts points into the current technology and reports whether it reached
// cost. Completion moves Current into Completed and carries the overflow.
func (r *Research) Add(points, cost int64) bool {
	if r.Current == "" {
		return false
	}
	r.Progress += points
	if r.Progress < cost {
		return false
	}
	r.Completed = append(r.Completed, r.Current)
	r.Current = ""
	r.Progress -= cost
	return true
}

func (r *Research) Has(tech string) bool {
	for _, t := range r.Completed {
		if t == tech {
			return true
		}
	}
	return false
}
