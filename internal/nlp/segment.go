package nlp

import "strings"

// Segment is the slice of text believed to describe one contact.
type Segment struct {
	Start      int
	End        int
	Candidates []Candidate
}

// Best returns the highest-confidence candidate of kind (and label, for CUSTOM),
// preferring the earliest on ties.
func (s Segment) Best(kind Kind, label string) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range s.Candidates {
		if c.Kind != kind || (label != "" && c.Label != label) {
			continue
		}
		if !found || c.Confidence > best.Confidence {
			best, found = c, true
		}
	}
	return best, found
}

// BestAbove is Best restricted to candidates at or above min.
func (s Segment) BestAbove(kind Kind, label string, min float64) (Candidate, bool) {
	c, ok := s.Best(kind, label)
	if !ok || c.Confidence < min {
		return Candidate{}, false
	}
	return c, true
}

// Has reports whether the segment holds a candidate with value v of kind.
func (s Segment) Has(kind Kind, v string) bool {
	for _, c := range s.Candidates {
		if c.Kind == kind && strings.EqualFold(c.Value, v) {
			return true
		}
	}
	return false
}

func (s Segment) hasAny(kinds ...Kind) bool {
	for _, c := range s.Candidates {
		for _, k := range kinds {
			if c.Kind == k {
				return true
			}
		}
	}
	return false
}

// Split groups candidates into per-contact segments in source order. People anchor the
// segments, or emails when no person was recognized. Text ahead of the first anchor
// belongs to the first segment. A segment is folded into its predecessor when the
// predecessor has neither email nor phone.
func Split(text string, es Entities) []Segment {
	all := es.All()
	if len(all) == 0 {
		return nil
	}
	anchors := es[Person]
	if len(anchors) == 0 {
		anchors = es[Email]
	}
	if len(anchors) == 0 {
		return []Segment{{Start: 0, End: len(text), Candidates: all}}
	}

	bounds := make([]int, 0, len(anchors))
	for i, a := range anchors {
		start := a.Start
		if i == 0 {
			start = 0
		}
		if len(bounds) > 0 && start == bounds[len(bounds)-1] {
			continue
		}
		bounds = append(bounds, start)
	}

	segs := make([]Segment, len(bounds))
	for i := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}
		segs[i] = Segment{Start: bounds[i], End: end}
	}
	for _, c := range all {
		for i := len(segs) - 1; i >= 0; i-- {
			if c.Start >= segs[i].Start {
				segs[i].Candidates = append(segs[i].Candidates, c)
				break
			}
		}
	}

	merged := []Segment{segs[0]}
	for _, s := range segs[1:] {
		prev := &merged[len(merged)-1]
		if !prev.hasAny(Email, Phone) {
			prev.End = s.End
			prev.Candidates = append(prev.Candidates, s.Candidates...)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
