package search

import "github.com/Morris88826/YouClipAI/internal/types"

// MergeGapSeconds is the largest silence between two ranges that still
// counts them as one continuous section.
const MergeGapSeconds = 5

// MergeRanges fuses ranges that overlap or sit within gap seconds of an
// earlier range. The ranker is asked to do this merge itself, but its output
// is not trusted to honor the rule; this pass enforces it. Order is
// preserved: a fused range keeps the position of its first member, so the
// most-relevant-first ordering survives.
func MergeRanges(ranges []types.TimeRange, gap float64) []types.TimeRange {
	out := make([]types.TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if r.End <= r.Start {
			continue
		}
		merged := false
		for i := range out {
			if r.Start <= out[i].End+gap && out[i].Start <= r.End+gap {
				if r.Start < out[i].Start {
					out[i].Start = r.Start
				}
				if r.End > out[i].End {
					out[i].End = r.End
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, r)
		}
	}
	return out
}
