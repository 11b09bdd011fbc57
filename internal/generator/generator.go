// Package generator supplies passages and word streams for typing sessions.
package generator

import (
	_ "embed"
	"fmt"
	"math/rand"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keyrush/internal/model"
)

//go:embed passages.toml
var catalogTOML string

type tier struct {
	Passages []string `toml:"passages"`
	Words    []string `toml:"words"`
}

type catalog struct {
	Easy   tier `toml:"easy"`
	Medium tier `toml:"medium"`
	Hard   tier `toml:"hard"`
}

// Word decoration per tier. Easy words are left untouched.
type tierStyle struct {
	capsPct  float64
	punctPct float64
	punctSet []rune
}

var styles = map[model.Difficulty]tierStyle{
	model.Easy:   {},
	model.Medium: {capsPct: 0.15, punctPct: 0.1, punctSet: []rune(".,")},
	model.Hard:   {capsPct: 0.3, punctPct: 0.3, punctSet: []rune(".,!?;:\"'()-")},
}

// Generator produces randomized passages and word batches.
type Generator struct {
	rnd    *rand.Rand
	tiers  map[model.Difficulty]tier
	custom []string
}

// New returns a Generator seeded with the current time.
func New() (*Generator, error) {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) (*Generator, error) {
	var cat catalog
	if _, err := toml.Decode(catalogTOML, &cat); err != nil {
		return nil, fmt.Errorf("failed to decode passage catalog: %w", err)
	}
	tiers := map[model.Difficulty]tier{
		model.Easy:   cat.Easy,
		model.Medium: cat.Medium,
		model.Hard:   cat.Hard,
	}
	for d, t := range tiers {
		if len(t.Passages) == 0 || len(t.Words) == 0 {
			return nil, fmt.Errorf("passage catalog has no %s texts", d)
		}
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), tiers: tiers}, nil
}

// UseWords replaces the built-in word pools with a custom list for every tier.
func (g *Generator) UseWords(words []string) {
	g.custom = words
}

// SampleText picks a passage for the tier, falling back to Easy for unknown tiers.
func (g *Generator) SampleText(d model.Difficulty) string {
	passages := g.tier(d).Passages
	return passages[g.rnd.Intn(len(passages))]
}

// WordBatch returns count words for the tier with the tier's capitalization and punctuation.
func (g *Generator) WordBatch(d model.Difficulty, count int) []string {
	words := g.custom
	if len(words) == 0 {
		words = g.tier(d).Words
	}
	style, ok := styles[d]
	if !ok {
		style = styles[model.Easy]
	}
	return g.generate(words, count, style)
}

func (g *Generator) tier(d model.Difficulty) tier {
	if t, ok := g.tiers[d]; ok {
		return t
	}
	return g.tiers[model.Easy]
}

func (g *Generator) generate(words []string, count int, style tierStyle) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, style.capsPct)
		word = applyPunct(g.rnd, word, style.punctPct, style.punctSet)
		result = append(result, word)
	}
	return result
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
