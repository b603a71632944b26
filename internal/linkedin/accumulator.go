// File: internal/linkedin/accumulator.go

package linkedin

// candidate is the raw shape the in-page extraction script emits for one
// feed node. Counts arrive as display text and are parsed during merge.
type candidate struct {
	URN          string   `json:"urn"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	LikesText    string   `json:"likesText"`
	CommentsText string   `json:"commentsText"`
}

// accumulator deduplicates feed posts by URN across pagination passes while
// preserving first-seen order. It never grows past max entries; repeat
// observations of a known URN still refresh its mutable fields.
type accumulator struct {
	max     int
	order   []string
	records map[string]PostRecord
}

func newAccumulator(max int) *accumulator {
	return &accumulator{
		max:     max,
		records: make(map[string]PostRecord),
	}
}

// merge folds one extracted candidate into the set. Candidates without a
// URN are dropped. For a known URN the description and image list keep the
// richer value, preferring the fresh observation on conflict, while the
// counters always take the latest reading since they only move as the real
// numbers change.
func (a *accumulator) merge(c candidate) {
	if c.URN == "" {
		return
	}
	existing, known := a.records[c.URN]
	if !known {
		if a.full() {
			return
		}
		a.order = append(a.order, c.URN)
		a.records[c.URN] = PostRecord{
			URN:           c.URN,
			Description:   c.Description,
			Images:        dedupImages(c.Images),
			LikesCount:    ParseLikeCount(c.LikesText),
			CommentsCount: ParseCount(c.CommentsText),
		}
		return
	}
	if c.Description != "" {
		existing.Description = c.Description
	}
	if imgs := dedupImages(c.Images); len(imgs) > 0 {
		existing.Images = imgs
	}
	existing.LikesCount = ParseLikeCount(c.LikesText)
	existing.CommentsCount = ParseCount(c.CommentsText)
	a.records[c.URN] = existing
}

// full reports whether the accumulator has reached its record cap.
func (a *accumulator) full() bool {
	return a.max > 0 && len(a.order) >= a.max
}

// posts returns the merged records in first-seen order.
func (a *accumulator) posts() []PostRecord {
	out := make([]PostRecord, 0, len(a.order))
	for _, urn := range a.order {
		out = append(out, a.records[urn])
	}
	return out
}

// dedupImages removes repeat URLs while keeping first-occurrence order.
func dedupImages(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
