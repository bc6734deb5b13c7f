package roadmap

// Merge overlays the candidate's per-item annotations onto a copy of canonical.
// The output always has canonical's exact shape: candidate ids that do not occur
// in canonical are ignored and every canonical item gets Check plus a complete
// Personalization. canonical is not modified; cand may be nil.
func Merge(canonical *Roadmap, cand *Candidate) *Roadmap {
	out := canonical.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Stages {
		areas := out.Stages[i].Areas
		for j := range areas {
			items := areas[j].Items
			for k := range items {
				annotate(&items[k], cand)
			}
		}
	}
	return out
}

// DefaultPersonalized returns canonical with every item unchecked and not_assigned.
func DefaultPersonalized(canonical *Roadmap) *Roadmap {
	return Merge(canonical, nil)
}

func annotate(it *Item, cand *Candidate) {
	var (
		c  CandidateItem
		ok bool
	)
	if cand != nil && it.ID != "" {
		c, ok = cand.Items[it.ID]
	}
	if !ok {
		it.Check = false
		p := DefaultPersonalization()
		it.Personalization = &p
		return
	}

	if c.Check != nil {
		it.Check = *c.Check
	}
	p := DefaultPersonalization()
	if cp := c.Personalization; cp != nil {
		if cp.Status != nil {
			p.Status = *cp.Status
		}
		if cp.Priority != nil {
			p.Priority = *cp.Priority
		}
		if cp.PersonalizedDescription != nil {
			p.PersonalizedDescription = *cp.PersonalizedDescription
		}
		if cp.Reason != nil {
			p.Reason = *cp.Reason
		}
	}
	it.Personalization = &p
}
