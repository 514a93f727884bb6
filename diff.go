package hfit

// DiffResult compares the segments of two versions of a document.
type DiffResult struct {
	// Added holds segments whose text is new.
	Added []Segment

	// Removed holds segments whose text no longer appears.
	Removed []Segment

	// Unchanged holds segments present in both versions.
	Unchanged []Segment

	// Modified pairs a removed and an added segment at the same block
	// position or with the same context.
	Modified []ModifiedSegment
}

// ModifiedSegment is a segment whose text changed in place.
type ModifiedSegment struct {
	Old Segment
	New Segment
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Modified  int `json:"modified"`
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the segments a cache cannot serve: new and
// modified ones.
func (d *DiffResult) NeedsTranslation() []Segment {
	out := make([]Segment, 0, len(d.Added)+len(d.Modified))
	out = append(out, d.Added...)
	for _, m := range d.Modified {
		out = append(out, m.New)
	}
	return out
}

// DiffSegments compares segments by hash. Each list keeps document order
// and duplicates collapse to their first occurrence.
func DiffSegments(oldSegs, newSegs []Segment) *DiffResult {
	result := &DiffResult{}
	oldByHash := firstByHash(oldSegs)
	newByHash := firstByHash(newSegs)

	for _, s := range unique(oldSegs) {
		if _, ok := newByHash[s.Hash]; ok {
			result.Unchanged = append(result.Unchanged, s)
		} else {
			result.Removed = append(result.Removed, s)
		}
	}
	for _, s := range unique(newSegs) {
		if _, ok := oldByHash[s.Hash]; !ok {
			result.Added = append(result.Added, s)
		}
	}
	return result
}

// DiffSegmentsWithContext is DiffSegments plus pairing of removed and added
// segments that sit at the same paragraph and block, or share a non-empty
// context.
func DiffSegmentsWithContext(oldSegs, newSegs []Segment) *DiffResult {
	result := DiffSegments(oldSegs, newSegs)
	if len(result.Added) == 0 || len(result.Removed) == 0 {
		return result
	}

	addedUsed := make(map[int]bool)
	var removed []Segment
	for _, r := range result.Removed {
		match := -1
		for ai, a := range result.Added {
			if addedUsed[ai] {
				continue
			}
			samePos := r.Paragraph == a.Paragraph && r.Block == a.Block
			if samePos || (r.Context != "" && r.Context == a.Context) {
				match = ai
				break
			}
		}
		if match < 0 {
			removed = append(removed, r)
			continue
		}
		addedUsed[match] = true
		result.Modified = append(result.Modified, ModifiedSegment{Old: r, New: result.Added[match]})
	}

	var added []Segment
	for i, a := range result.Added {
		if !addedUsed[i] {
			added = append(added, a)
		}
	}
	result.Added = added
	result.Removed = removed
	return result
}

func firstByHash(segs []Segment) map[string]Segment {
	m := make(map[string]Segment, len(segs))
	for _, s := range segs {
		if _, ok := m[s.Hash]; !ok {
			m[s.Hash] = s
		}
	}
	return m
}

func unique(segs []Segment) []Segment {
	seen := make(map[string]bool, len(segs))
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if seen[s.Hash] {
			continue
		}
		seen[s.Hash] = true
		out = append(out, s)
	}
	return out
}
