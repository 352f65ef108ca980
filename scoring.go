package main

// Two scoring policies rank candidates, one per call site. Explore uses the
// weighted score (interests plus preferred destinations, capped); the
// potential-matches pool counts shared interests only, uncapped. They look
// similar but are deliberately separate policies; do not unify them.

const (
	interestWeight        = 10
	destinationWeight     = 15
	maxCompatibilityScore = 100
)

// scoringPolicy computes a compatibility score for a candidate as seen by a
// viewer. Policies are pure: no store access, no side effects.
type scoringPolicy func(viewer, candidate UserProfile) int

// weightedCompatibility scores 10 points per shared interest and 15 per
// shared preferred destination, saturating at 100. Either side lacking
// interests means there is no compatibility signal and the score is 0. An
// absent field and an empty one are the same thing.
func weightedCompatibility(viewer, candidate UserProfile) int {
	if len(viewer.Interests) == 0 || len(candidate.Interests) == 0 {
		return 0
	}

	score := interestWeight * len(commonStrings(viewer.Interests, candidate.Interests))
	score += destinationWeight * len(commonStrings(viewer.PreferredDestinations, candidate.PreferredDestinations))

	if score > maxCompatibilityScore {
		return maxCompatibilityScore
	}
	return score
}

// simpleOverlapCount is the raw number of shared interests, unbounded.
func simpleOverlapCount(viewer, candidate UserProfile) int {
	if len(viewer.Interests) == 0 || len(candidate.Interests) == 0 {
		return 0
	}
	return len(commonStrings(viewer.Interests, candidate.Interests))
}

// commonStrings returns the elements of a that also appear in b, keeping
// a's order. Duplicates within a are counted once.
func commonStrings(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	seen := make(map[string]bool, len(a))
	var common []string
	for _, s := range a {
		if inB[s] && !seen[s] {
			seen[s] = true
			common = append(common, s)
		}
	}
	return common
}
