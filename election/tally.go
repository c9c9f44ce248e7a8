// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Outcome is the winning slate and its total approval score.
type Outcome struct {
	Score float64     `json:"score"`
	Slate []Candidate `json:"slate"`
}

func (o Outcome) clone() Outcome {
	return Outcome{Score: o.Score, Slate: append([]Candidate(nil), o.Slate...)}
}

// CalculateResults scores every slate of size seats and returns the best
// one. Slate members keep candidate list order. Ties go to the slate
// enumerated first. Approvals naming a candidate outside the list are
// ignored; a seat count outside [1, len(candidates)] yields a zero Outcome.
func CalculateResults(candidates []Candidate, ballots []Ballot, seats int) Outcome {
	n := len(candidates)
	if seats < 1 || seats > n {
		return Outcome{}
	}

	position := make(map[string]int, n)
	for i, c := range candidates {
		position[c.UserID] = i
	}
	indexed := make([][]int, len(ballots))
	for i, b := range ballots {
		approvals := make([]int, 0, len(b.Approvals))
		for _, c := range b.Approvals {
			if pos, ok := position[c.UserID]; ok {
				approvals = append(approvals, pos)
			}
		}
		indexed[i] = approvals
	}

	var (
		best      []int
		bestScore float64
		member    = make([]bool, n)
	)
	forEachCombination(n, seats, func(slate []int) {
		for _, c := range slate {
			member[c] = true
		}
		score := scoreSlate(indexed, member)
		for _, c := range slate {
			member[c] = false
		}

		if best == nil || score > bestScore {
			best = append(best[:0], slate...)
			bestScore = score
		}
	})

	out := Outcome{Score: bestScore, Slate: make([]Candidate, len(best))}
	for i, c := range best {
		out.Slate[i] = candidates[c]
	}
	return out
}

// scoreSlate sums the ballot contributions for one slate. Within a ballot
// the weight starts at 1 and halves after each approved slate member.
func scoreSlate(ballots [][]int, member []bool) float64 {
	var total float64
	for _, approvals := range ballots {
		var contribution float64
		weight := 1.0
		for _, c := range approvals {
			if member[c] {
				contribution += weight
				weight /= 2
			}
		}
		total += contribution
	}
	return total
}

// forEachCombination calls visit with every k-subset of [0, n) as ascending
// indices, in lexicographic order. visit must not retain the slice.
func forEachCombination(n, k int, visit func([]int)) {
	if k < 1 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		visit(idx)

		// Rightmost index that can still advance.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
