package main

import "sort"

// ScoredCandidate is one ranked entry of a candidate listing.
type ScoredCandidate struct {
	Profile         UserProfile
	Score           int
	CommonInterests []string
}

// rankCandidates filters a fetched candidate pool against the viewer's
// exclusion set and sorts the rest by descending score under the given
// policy. The sort is stable: candidates with equal scores keep their fetch
// order, which carries the store's own ordering hints. An empty pool, or a
// viewer without interests (every score 0, original order), are both valid
// outcomes rather than errors.
func rankCandidates(viewer UserProfile, pool []UserProfile, excludeIDs []string, score scoringPolicy) []ScoredCandidate {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	ranked := make([]ScoredCandidate, 0, len(pool))
	for _, candidate := range pool {
		if excluded[candidate.ID] || candidate.ID == viewer.ID {
			continue
		}
		ranked = append(ranked, ScoredCandidate{
			Profile:         candidate,
			Score:           score(viewer, candidate),
			CommonInterests: commonStrings(viewer.Interests, candidate.Interests),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// exclusionSet is the union of the ids a viewer has already liked, disliked
// or matched with. Users in this set are never shown again.
func exclusionSet(p UserProfile) []string {
	exclude := make([]string, 0, len(p.LikedUsers)+len(p.DislikedUsers)+len(p.Matches))
	exclude = append(exclude, p.LikedUsers...)
	exclude = append(exclude, p.DislikedUsers...)
	exclude = append(exclude, p.Matches...)
	return exclude
}
