package main

import "slices"

// RoundResults is the outcome of one round, computed exactly once when
// the room enters the results phase and cached verbatim after that.
type RoundResults struct {
	Round       int              `json:"round"`
	WolfSlot    int              `json:"wolf_slot"`
	TopVoted    []int            `json:"top_voted"`
	WolfCaught  bool             `json:"wolf_caught"`
	VoteCounts  map[int]int      `json:"vote_counts"`
	RoundDeltas map[int]int      `json:"round_deltas"`
	Scores      map[int]int      `json:"scores"`
	AllHands    map[int][]string `json:"all_hands"`
	NormalAxis  AxisPayload      `json:"normal_axis"`
	WolfAxis    AxisPayload      `json:"wolf_axis"`
}

// ComputeOutcome tallies the round's votes and derives the win condition
// and per-slot deltas.
//
// The wolf counts as caught only when it is the unique top-voted slot; a
// tie at the maximum always lets the wolf escape, even when the wolf is
// part of the tie. Every voter who targeted the wolf earns +1. On a
// catch every non-wolf participant earns +1; on an escape the wolf
// earns +3.
func ComputeOutcome(wolfSlot int, votes []Vote, slots []int) (topVoted []int, caught bool, deltas map[int]int) {
	counts := make(map[int]int, len(votes))
	for _, v := range votes {
		counts[v.TargetSlot]++
	}

	maxTally := 0
	for _, n := range counts {
		if n > maxTally {
			maxTally = n
		}
	}
	for target, n := range counts {
		if n == maxTally && maxTally > 0 {
			topVoted = append(topVoted, target)
		}
	}
	slices.Sort(topVoted)

	caught = len(topVoted) == 1 && topVoted[0] == wolfSlot

	deltas = make(map[int]int, len(slots))
	for _, slot := range slots {
		deltas[slot] = 0
	}
	for _, v := range votes {
		if v.TargetSlot == wolfSlot {
			deltas[v.VoterSlot]++
		}
	}
	if caught {
		for _, slot := range slots {
			if slot != wolfSlot {
				deltas[slot]++
			}
		}
	} else {
		deltas[wolfSlot] += 3
	}
	return topVoted, caught, deltas
}

// VoteCounts returns the per-target tally for the given votes.
func VoteCounts(votes []Vote) map[int]int {
	counts := make(map[int]int, len(votes))
	for _, v := range votes {
		counts[v.TargetSlot]++
	}
	return counts
}
