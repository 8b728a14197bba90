// Package narrative turns scored dimensions into report text. All text selection is
// deterministic: identical inputs always produce identical narrative.
package narrative

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed phrases.yaml
var defaultPhrases []byte

// Preset is domain phrasing selected by keyword match on a dimension name and description.
type Preset struct {
	Pattern       string `yaml:"pattern"`
	Trait         string `yaml:"trait"`
	Communication string `yaml:"communication"`
	Risk          string `yaml:"risk"`
	Exploration   string `yaml:"exploration"`

	re *regexp.Regexp
}

// BandPhrases holds the variants for one band. Each list is indexed by seed.
type BandPhrases struct {
	Summary       []string `yaml:"summary"`
	Style         []string `yaml:"style"`
	Communication []string `yaml:"communication"`
	Risk          []string `yaml:"risk"`
	Development   []string `yaml:"development"`
}

// PhraseBank is the full set of narrative content.
type PhraseBank struct {
	Fallback Preset               `yaml:"fallback"`
	Presets  []Preset             `yaml:"presets"`
	Bands    map[Band]BandPhrases `yaml:"bands"`
}

// LoadPhraseBank parses a YAML phrase bank and compiles its preset patterns.
func LoadPhraseBank(data []byte) (*PhraseBank, error) {
	var bank PhraseBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse phrase bank: %w", err)
	}
	for i := range bank.Presets {
		re, err := regexp.Compile("(?i)" + bank.Presets[i].Pattern)
		if err != nil {
			return nil, fmt.Errorf("preset %d pattern %q: %w", i, bank.Presets[i].Pattern, err)
		}
		bank.Presets[i].re = re
	}
	for _, band := range []Band{BandLow, BandMidLow, BandMidHigh, BandHigh} {
		if _, ok := bank.Bands[band]; !ok {
			return nil, fmt.Errorf("phrase bank missing band %q", band)
		}
	}
	return &bank, nil
}

var (
	defaultBankOnce sync.Once
	defaultBank     *PhraseBank
)

// DefaultPhraseBank returns the embedded phrase bank. It panics if the embedded file is
// broken, which is a build defect.
func DefaultPhraseBank() *PhraseBank {
	defaultBankOnce.Do(func() {
		bank, err := LoadPhraseBank(defaultPhrases)
		if err != nil {
			panic(err)
		}
		defaultBank = bank
	})
	return defaultBank
}

// PresetFor returns the first preset whose pattern matches "name description", or the
// fallback preset.
func (b *PhraseBank) PresetFor(name, description string) Preset {
	text := name + " " + description
	for _, p := range b.Presets {
		if p.re != nil && p.re.MatchString(text) {
			return p
		}
	}
	return b.Fallback
}

// pick selects a band variant for field by seed. The midLow list's first entry is the
// fallback for an empty list.
func (b *PhraseBank) pick(band Band, field, seed string) string {
	list := b.Bands[band].field(field)
	if len(list) == 0 {
		fallback := b.Bands[BandMidLow].field(field)
		if len(fallback) == 0 {
			return ""
		}
		return fallback[0]
	}
	return list[SeedIndex(seed, len(list))]
}

func (p BandPhrases) field(name string) []string {
	switch name {
	case "summary":
		return p.Summary
	case "style":
		return p.Style
	case "communication":
		return p.Communication
	case "risk":
		return p.Risk
	case "development":
		return p.Development
	}
	return nil
}
