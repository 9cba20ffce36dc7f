package main

import (
	"math/rand/v2"
	"slices"
)

// Round content is derived from the round seed alone. Theme resolution,
// axis drawing, and the wolf-slot pick consume one shared PCG stream;
// hand dealing runs on a second stream seeded from the same value, so
// a client holding only the seed can rebuild any piece independently.
//
// PCG is used deliberately instead of the default rand source: its output
// for a given (seed, stream) pair is a stable contract across releases.
const (
	streamAxes  = 0x9e3779b97f4a7c15
	streamHands = 0xbf58476d1ce4e5b9
)

func contentRNG(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// AxisPayload is a generated axis pair, already flipped, in wire form.
type AxisPayload struct {
	HorizontalID string `json:"horizontal_id"`
	Left         string `json:"left"`
	Right        string `json:"right"`
	VerticalID   string `json:"vertical_id"`
	Top          string `json:"top"`
	Bottom       string `json:"bottom"`
}

// RoundContent is everything a round needs, derived from one seed.
type RoundContent struct {
	Seed     int64
	Theme    string
	Axis     AxisPayload
	WolfAxis AxisPayload
	WolfSlot int
	Hands    map[int][]string
}

// ResolveTheme picks the round's theme from the configured list. The
// choice is the first draw on the axis stream, so it matches what
// GenerateRoundContent resolves for the same seed.
func ResolveTheme(seed int64, themes []string) string {
	return resolveTheme(contentRNG(seed, streamAxes), themes)
}

func resolveTheme(rng *rand.Rand, themes []string) string {
	if len(themes) == 0 || slices.Contains(themes, ThemeAll) {
		return ThemeAll
	}
	if len(themes) == 1 {
		return themes[0]
	}
	return themes[rng.IntN(len(themes))]
}

// GenerateRoundContent derives the full per-round secret content for the
// given seed, theme list, and participating slots.
func GenerateRoundContent(seed int64, themes []string, slots []int, handSize int) (*RoundContent, error) {
	if len(slots) == 0 {
		return nil, errPrecondition("cannot generate a round with no participating slots")
	}

	rng := contentRNG(seed, streamAxes)
	theme := resolveTheme(rng, themes)

	axis, usedH, usedV, err := drawAxisPair(rng, theme)
	if err != nil {
		return nil, err
	}

	wolfAxis, err := mutateAxisPair(rng, theme, axis, usedH, usedV)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(slots)
	slices.Sort(sorted)
	wolfSlot := sorted[rng.IntN(len(sorted))]

	hands := dealHands(contentRNG(seed, streamHands), theme, sorted, handSize)

	return &RoundContent{
		Seed:     seed,
		Theme:    theme,
		Axis:     axis,
		WolfAxis: wolfAxis,
		WolfSlot: wolfSlot,
		Hands:    hands,
	}, nil
}

// drawAxisPair samples two distinct catalog entries for the theme and
// applies an independent 50% pole flip to each.
func drawAxisPair(rng *rand.Rand, theme string) (AxisPayload, AxisLabel, AxisLabel, error) {
	eligible := axesForTheme(theme)
	if len(eligible) < 2 {
		return AxisPayload{}, AxisLabel{}, AxisLabel{},
			errGeneration("theme %q has %d eligible axes, need 2", theme, len(eligible))
	}

	i := rng.IntN(len(eligible))
	j := rng.IntN(len(eligible) - 1)
	if j >= i {
		j++
	}
	h, v := eligible[i], eligible[j]

	payload := AxisPayload{}
	applyHorizontal(&payload, h, rng.Float64() < 0.5)
	applyVertical(&payload, v, rng.Float64() < 0.5)
	return payload, h, v, nil
}

// mutateAxisPair builds the wolf's variant of the normal pair: one of
// three seeded patterns replaces the vertical axis (40%), the horizontal
// axis (40%), or both (20%), drawing replacements from the catalog with
// the in-use axes excluded.
func mutateAxisPair(rng *rand.Rand, theme string, normal AxisPayload, usedH, usedV AxisLabel) (AxisPayload, error) {
	eligible := make([]AxisLabel, 0, len(axisCatalog))
	for _, a := range axesForTheme(theme) {
		if a.ID == usedH.ID || a.ID == usedV.ID {
			continue
		}
		eligible = append(eligible, a)
	}

	wolf := normal
	roll := rng.Float64()
	switch {
	case roll < 0.4:
		if len(eligible) < 1 {
			return AxisPayload{}, errGeneration("theme %q has no spare axis for the wolf pair", theme)
		}
		repl := eligible[rng.IntN(len(eligible))]
		applyVertical(&wolf, repl, rng.Float64() < 0.5)
	case roll < 0.8:
		if len(eligible) < 1 {
			return AxisPayload{}, errGeneration("theme %q has no spare axis for the wolf pair", theme)
		}
		repl := eligible[rng.IntN(len(eligible))]
		applyHorizontal(&wolf, repl, rng.Float64() < 0.5)
	default:
		if len(eligible) < 2 {
			return AxisPayload{}, errGeneration("theme %q has %d spare axes, need 2 for the wolf pair", theme, len(eligible))
		}
		i := rng.IntN(len(eligible))
		j := rng.IntN(len(eligible) - 1)
		if j >= i {
			j++
		}
		applyHorizontal(&wolf, eligible[i], rng.Float64() < 0.5)
		applyVertical(&wolf, eligible[j], rng.Float64() < 0.5)
	}
	return wolf, nil
}

func applyHorizontal(p *AxisPayload, label AxisLabel, flip bool) {
	p.HorizontalID = label.ID
	p.Left, p.Right = label.Positive, label.Negative
	if flip {
		p.Left, p.Right = p.Right, p.Left
	}
}

func applyVertical(p *AxisPayload, label AxisLabel, flip bool) {
	p.VerticalID = label.ID
	p.Top, p.Bottom = label.Positive, label.Negative
	if flip {
		p.Top, p.Bottom = p.Bottom, p.Top
	}
}

// dealHands shuffles the theme's card pool once and hands out contiguous
// chunks in ascending slot order. A pool smaller than players*handSize
// wraps back to the start of the shuffled sequence, so repeats only
// appear under pool exhaustion.
func dealHands(rng *rand.Rand, theme string, sortedSlots []int, handSize int) map[int][]string {
	pool := cardsForTheme(theme)
	if len(pool) == 0 {
		return map[int][]string{}
	}

	shuffled := make([]string, len(pool))
	for i, c := range pool {
		shuffled[i] = c.ID
	}
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	hands := make(map[int][]string, len(sortedSlots))
	next := 0
	for _, slot := range sortedSlots {
		hand := make([]string, 0, handSize)
		for range handSize {
			hand = append(hand, shuffled[next%len(shuffled)])
			next++
		}
		hands[slot] = hand
	}
	return hands
}
