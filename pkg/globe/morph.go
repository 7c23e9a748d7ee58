package globe

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	morphPaddingPrefix = "morphPadding"
	minMorphTargets    = 8
)

// padMorphTargets returns g with copies of its base positions appended until
// it has minMorphTargets targets. g itself is not modified.
func padMorphTargets(g *Geometry) *Geometry {
	padded := g
	for i := 0; len(padded.MorphTargets) < minMorphTargets; i++ {
		padded = padded.withMorphTarget(MorphTarget{
			Name:      fmt.Sprintf("%s%d", morphPaddingPrefix, i),
			Positions: g.Vertices,
		})
	}
	return padded
}

// blendInfluences recomputes influences for time t. Padding targets are
// skipped. t is not clamped: values outside [0, 1] extrapolate.
func blendInfluences(dict map[string]int, influences []float64, t float64) {
	var valid []int
	for name, idx := range dict {
		if !strings.Contains(name, morphPaddingPrefix) {
			valid = append(valid, idx)
		}
	}
	if len(valid) == 0 {
		return
	}
	sort.Ints(valid)

	l := float64(len(valid) - 1)
	scaled := t*l + 1
	index := int(math.Floor(scaled))

	for _, i := range valid {
		if i < len(influences) {
			influences[i] = 0
		}
	}

	leftover := scaled - float64(index)
	if last := index - 1; last >= 0 && last < len(influences) {
		influences[last] = 1 - leftover
	}
	if index >= 0 && index < len(influences) {
		influences[index] = leftover
	}
}
