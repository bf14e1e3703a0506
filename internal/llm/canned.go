package llm

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// CannedRule answers any message that contains one of its keywords as whole
// words. A keyword may span several words ("water cycle").
type CannedRule struct {
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// CannedProvider returns hand-written answers and never calls out. It is the
// last resort of a chain and the fallback of the chat features.
type CannedProvider struct {
	name     string
	rules    []CannedRule
	defaults []string
}

var _ Provider = (*CannedProvider)(nil)

// NewCannedProvider builds a provider from keyword rules and default answers.
// When no rule matches, a default is picked by hashing the message.
func NewCannedProvider(name string, rules []CannedRule, defaults []string) *CannedProvider {
	if name == "" {
		name = "canned"
	}
	if len(defaults) == 0 {
		defaults = scienceDefaults
	}
	return &CannedProvider{name: name, rules: rules, defaults: defaults}
}

// NewScienceCanned returns the science-tutor answer set.
func NewScienceCanned() *CannedProvider {
	return NewCannedProvider("canned", scienceRules, scienceDefaults)
}

func (p *CannedProvider) Name() string { return p.name }

func (p *CannedProvider) Generate(_ context.Context, req Request) (*Response, error) {
	if req.JSON {
		return nil, &ProviderError{Provider: p.name, Err: ErrUnsupported}
	}
	return &Response{Text: p.Answer(req.LastUserMessage()), Provider: p.name, Model: "canned"}, nil
}

// Answer selects the canned reply for a message.
func (p *CannedProvider) Answer(message string) string {
	lower := strings.ToLower(message)
	words := tokenize(lower)
	for _, rule := range p.rules {
		for _, kw := range rule.Keywords {
			if containsPhrase(words, tokenize(strings.ToLower(kw))) {
				return rule.Answer
			}
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	return p.defaults[h.Sum32()%uint32(len(p.defaults))]
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether phrase occurs as consecutive words. The last
// word also matches its plural ("atoms", "genes").
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			w := words[i+j]
			if w == p {
				continue
			}
			if j == len(phrase)-1 && (w == p+"s" || w == p+"es") {
				continue
			}
			match = false
			break
		}
		if match {
			return true
		}
	}
	return false
}

var scienceRules = []CannedRule{
	{
		Keywords: []string{"photosynthesis", "chlorophyll"},
		Answer:   "Photosynthesis is how plants, algae and some bacteria turn light into chemical energy. Chlorophyll absorbs sunlight, and the plant uses that energy to combine carbon dioxide and water into glucose, releasing oxygen as a by-product.",
	},
	{
		Keywords: []string{"gravity", "gravitation"},
		Answer:   "Gravity is the attraction between masses. On Earth it accelerates falling objects at about 9.8 m/s². Newton described it as a force proportional to both masses, and Einstein later explained it as the curvature of spacetime.",
	},
	{
		Keywords: []string{"atom", "proton", "neutron", "electron"},
		Answer:   "An atom has a dense nucleus of protons and neutrons surrounded by electrons. The number of protons sets the element, neutrons change the isotope, and the electrons decide how the atom bonds with others.",
	},
	{
		Keywords: []string{"dna", "gene", "chromosome"},
		Answer:   "DNA is the molecule that stores genetic instructions. It is a double helix of nucleotides (A, T, C, G); sequences of these bases form genes, which are packed into chromosomes inside the cell nucleus.",
	},
	{
		Keywords: []string{"cell", "mitochondria", "nucleus"},
		Answer:   "Cells are the basic units of life. A typical animal cell has a membrane, a nucleus holding DNA, and organelles such as mitochondria, which produce the energy the cell needs.",
	},
	{
		Keywords: []string{"water cycle", "evaporation", "condensation", "precipitation"},
		Answer:   "In the water cycle, the sun evaporates water, the vapour cools and condenses into clouds, and it falls back as precipitation. Water then collects in oceans, lakes and groundwater before evaporating again.",
	},
	{
		Keywords: []string{"energy", "kinetic", "potential"},
		Answer:   "Energy is the ability to do work. Kinetic energy belongs to moving objects, potential energy is stored by position or configuration, and energy is never created or destroyed, only transformed.",
	},
	{
		Keywords: []string{"planet", "solar system", "sun", "orbit"},
		Answer:   "Our solar system has eight planets orbiting the Sun. The inner four (Mercury, Venus, Earth, Mars) are rocky; the outer four (Jupiter, Saturn, Uranus, Neptune) are giants made mostly of gas and ice.",
	},
}

var scienceDefaults = []string{
	"That's a great science question! I can't reach my knowledge service right now, but try breaking the problem into what you observe, what you expect, and how you could test it.",
	"Science is all about asking questions like this one. I'm having trouble answering in detail at the moment, so please try again shortly.",
	"Interesting question! While I reconnect, think about which scientific principle might explain it: energy, forces, matter or living systems.",
}
