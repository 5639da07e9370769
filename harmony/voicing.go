package harmony

import (
	"math"
	"sort"
)

// voicings gravitate toward G4
const voicingCenter = 67

// Range bounds the notes of a voicing, inclusive
type Range struct {
	MinMidi int `yaml:"min"`
	MaxMidi int `yaml:"max"`
}

// DefaultRange is the piano comping register
var DefaultRange = Range{MinMidi: 55, MaxMidi: 79}

// Normalize fills zero bounds from DefaultRange and keeps the range playable.
// MinMidi stays in 36..96 and MaxMidi at least six semitones above it.
func (r Range) Normalize() Range {
	if r.MinMidi == 0 {
		r.MinMidi = DefaultRange.MinMidi
	}
	if r.MaxMidi == 0 {
		r.MaxMidi = DefaultRange.MaxMidi
	}
	r.MinMidi = clampInt(r.MinMidi, 36, 96)
	r.MaxMidi = clampInt(r.MaxMidi, r.MinMidi+6, 108)
	return r
}

// ChooseVoicing picks the inversion and octave of chord that best fits r.
// With a previous voicing it minimises voice movement; without one it stays
// near the centre of the piano register. A slash bass becomes the lowest note
// whenever some candidate leaves room for it under its second-lowest note.
// The result is ascending, unique and inside r, or empty when nothing fits.
func ChooseVoicing(chord Chord, previous []int, r Range) []int {
	chord = chord.Normalize()
	r = r.Normalize()
	intervals := qualityIntervals[chord.Quality]
	rootPC := PitchClass(chord.Root)
	bassPC := -1
	if chord.Bass != "" {
		bassPC = PitchClass(chord.Bass)
	}

	prev := uniqueSorted(previous)

	var best, plain []int
	bestScore, plainScore := math.Inf(1), math.Inf(1)
	for octave := 3; octave <= 6; octave++ {
		rootMidi := 12 + octave*12 + rootPC
		for inv := range intervals {
			notes := make([]int, len(intervals))
			for i, v := range rotateIntervals(intervals, inv) {
				notes[i] = rootMidi + v
			}
			cand := shiftIntoRange(notes, r)
			if cand == nil {
				continue
			}
			score := scoreVoicing(cand, prev)
			if score < plainScore {
				plain, plainScore = cand, score
			}
			if bassPC >= 0 {
				var ok bool
				if cand, ok = placeBass(cand, bassPC, r); !ok {
					continue
				}
				score = scoreVoicing(cand, prev)
			}
			if score < bestScore {
				best, bestScore = cand, score
			}
		}
	}

	if plain == nil {
		if p, ok := findPitchInRange(rootPC, r, nil); ok {
			return []int{p}
		}
		return []int{}
	}
	if best == nil {
		// no candidate has room below it: add the bass near the second voice
		return addBass(plain, bassPC, r)
	}
	return best
}

// rotateIntervals returns the inv-th inversion: wrapped tones move up an octave
func rotateIntervals(intervals []int, inv int) []int {
	n := len(intervals)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx := (inv + i) % n
		v := intervals[idx]
		if inv+i >= n {
			v += 12
		}
		out = append(out, v)
	}
	return out
}

// shiftIntoRange moves notes by octaves until they all fit, or returns nil
func shiftIntoRange(notes []int, r Range) []int {
	out := uniqueSorted(notes)
	if len(out) == 0 {
		return nil
	}
	if out[len(out)-1]-out[0] > r.MaxMidi-r.MinMidi {
		return nil
	}
	for guard := 0; guard < 10; guard++ {
		lo, hi := out[0], out[len(out)-1]
		switch {
		case lo < r.MinMidi:
			addAll(out, 12)
		case hi > r.MaxMidi:
			addAll(out, -12)
		default:
			return out
		}
	}
	return nil
}

// scoreVoicing pairs voices by sorted position; the shorter voicing repeats
// its top voice so every voice of both is counted.
func scoreVoicing(notes, prev []int) float64 {
	if len(prev) == 0 {
		var d float64
		for _, n := range notes {
			d += math.Abs(float64(n - voicingCenter))
		}
		return d
	}
	var movement, sum float64
	for i := 0; i < max(len(notes), len(prev)); i++ {
		n := notes[min(i, len(notes)-1)]
		p := prev[min(i, len(prev)-1)]
		movement += math.Abs(float64(n - p))
	}
	for _, n := range notes {
		sum += float64(n)
	}
	center := sum / float64(len(notes))
	return movement + 0.2*math.Abs(center-voicingCenter)
}

// findPitchInRange returns an instance of pc inside r. With a target it picks
// the instance nearest to *target, otherwise the lowest.
func findPitchInRange(pc int, r Range, target *int) (int, bool) {
	var matches []int
	for m := r.MinMidi; m <= r.MaxMidi; m++ {
		if ((m%12)+12)%12 == pc {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return 0, false
	}
	if target == nil {
		return matches[0], true
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if abs(m-*target) < abs(best-*target) {
			best = m
		}
	}
	return best, true
}

// placeBass puts the slash bass under the voicing. The bass is the highest
// instance of pc below the second-lowest note; it replaces the lowest note
// when above it and is added underneath otherwise. It fails when no instance
// of pc fits between r.MinMidi and the second-lowest note.
func placeBass(voiced []int, pc int, r Range) ([]int, bool) {
	ceiling := voiced[0] + 1
	if len(voiced) > 1 {
		ceiling = voiced[1]
	}
	bass := -1
	for m := ceiling - 1; m >= r.MinMidi; m-- {
		if ((m%12)+12)%12 == pc {
			bass = m
			break
		}
	}
	switch {
	case bass < 0:
		return nil, false
	case bass == voiced[0]:
		return voiced, true
	case bass > voiced[0]:
		return uniqueSorted(append([]int{bass}, voiced[1:]...)), true
	default:
		return uniqueSorted(append([]int{bass}, voiced...)), true
	}
}

// addBass adds the in-range instance of pc nearest the second-lowest note
func addBass(voiced []int, pc int, r Range) []int {
	target := voiced[0] + 2
	if len(voiced) > 1 {
		target = voiced[1]
	}
	bass, ok := findPitchInRange(pc, r, &target)
	if !ok {
		return voiced
	}
	return uniqueSorted(append([]int{bass}, voiced...))
}

func uniqueSorted(notes []int) []int {
	if len(notes) == 0 {
		return nil
	}
	out := append([]int(nil), notes...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func addAll(notes []int, delta int) {
	for i := range notes {
		notes[i] += delta
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
