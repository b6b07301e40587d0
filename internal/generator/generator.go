// Package generator builds text for scripted typing runs.
package generator

import (
	"math/rand"
	"strings"
	"unicode"
)

const defaultPunctSet = ".,!?;:"

// Generator produces randomized typing text.
type Generator struct {
	rnd      *rand.Rand
	punctSet []rune
}

// New returns a Generator with a fixed seed, so runs are reproducible.
func New(seed int64) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		punctSet: []rune(defaultPunctSet),
	}
}

// Generate selects count words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, capsPct, punctPct float64) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, g.punctSet)
		result = append(result, word)
	}
	return result
}

// Text joins generated words with single spaces and a trailing space, so
// every word ends on a boundary.
func (g *Generator) Text(words []string, count int, capsPct, punctPct float64) string {
	out := g.Generate(words, count, capsPct, punctPct)
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, " ") + " "
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
