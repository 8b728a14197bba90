package analysis

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ZanzyTHEbar/elkquiz/internal/narrative"
	"gopkg.in/yaml.v3"
)

//go:embed association_rules.yaml
var defaultRules []byte

const (
	// neutralPercentage is assumed for dimensions absent from a result.
	neutralPercentage = 50
	// minRecordedContribution is the smallest |contribution| kept as an insight candidate.
	minRecordedContribution = 1.0
	maxInsights             = 4
)

// Rule is an undirected weighted relationship between two dimensions.
type Rule struct {
	A          string  `yaml:"a"`
	B          string  `yaml:"b"`
	Weight     float64 `yaml:"weight"`
	Sign       int     `yaml:"sign"`
	Relation   string  `yaml:"relation"`
	Insight    string  `yaml:"insight"`
	Suggestion string  `yaml:"suggestion"`
}

// Edge is one direction of a rule: From influences To.
type Edge struct {
	From string
	To   string
	Rule *Rule
}

// Contribution is the signed effect one edge had on its target.
type Contribution struct {
	Edge
	Value float64
}

// Graph indexes rules by the dimension they influence.
type Graph struct {
	rules    []Rule
	incoming map[string][]Edge
}

// LoadRules parses a YAML rule table.
func LoadRules(data []byte) ([]Rule, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse association rules: %w", err)
	}
	for i, r := range doc.Rules {
		if r.A == "" || r.B == "" || r.A == r.B {
			return nil, fmt.Errorf("association rule %d: endpoints %q and %q are invalid", i, r.A, r.B)
		}
		if r.Sign != 1 && r.Sign != -1 {
			return nil, fmt.Errorf("association rule %d: sign must be 1 or -1, got %d", i, r.Sign)
		}
		if !(r.Weight > 0 && r.Weight < 1) {
			return nil, fmt.Errorf("association rule %d: weight must be in (0,1), got %g", i, r.Weight)
		}
	}
	return doc.Rules, nil
}

// NewGraph adds every rule in both directions, preserving rule order per target.
func NewGraph(rules []Rule) *Graph {
	g := &Graph{
		rules:    append([]Rule(nil), rules...),
		incoming: make(map[string][]Edge),
	}
	for i := range g.rules {
		r := &g.rules[i]
		g.incoming[r.B] = append(g.incoming[r.B], Edge{From: r.A, To: r.B, Rule: r})
		g.incoming[r.A] = append(g.incoming[r.A], Edge{From: r.B, To: r.A, Rule: r})
	}
	return g
}

var (
	defaultGraphOnce sync.Once
	defaultGraph     *Graph
)

// DefaultGraph returns the graph built from the embedded rule table.
func DefaultGraph() *Graph {
	defaultGraphOnce.Do(func() {
		rules, err := LoadRules(defaultRules)
		if err != nil {
			panic(err)
		}
		defaultGraph = NewGraph(rules)
	})
	return defaultGraph
}

// Rules returns the rule table.
func (g *Graph) Rules() []Rule { return g.rules }

// Incoming returns the edges that influence key.
func (g *Graph) Incoming(key string) []Edge { return g.incoming[key] }

// Apply adjusts each key in keys from one snapshot of base percentages. Adjustments never
// feed into each other within a pass.
func (g *Graph) Apply(base map[string]int, keys []string) (map[string]int, []Contribution) {
	adjusted := make(map[string]int, len(keys))
	var contributions []Contribution

	for _, key := range keys {
		own, ok := base[key]
		if !ok {
			own = neutralPercentage
		}
		delta := 0.0
		for _, edge := range g.incoming[key] {
			source, ok := base[edge.From]
			if !ok {
				source = neutralPercentage
			}
			value := float64(source-neutralPercentage) * edge.Rule.Weight * float64(edge.Rule.Sign)
			delta += value
			if math.Abs(value) >= minRecordedContribution {
				contributions = append(contributions, Contribution{Edge: edge, Value: value})
			}
		}
		adjusted[key] = clampInt(roundHalfUp(float64(own)+delta), 0, 100)
	}
	return adjusted, contributions
}

// Insights keeps the strongest contribution per unordered pair, at most four, ordered by
// magnitude with discovery order breaking ties.
func Insights(contributions []Contribution, adjusted map[string]int, names map[string]string) []AssociationInsight {
	sorted := append([]Contribution(nil), contributions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Value) > math.Abs(sorted[j].Value)
	})

	seen := make(map[string]bool)
	insights := make([]AssociationInsight, 0, maxInsights)
	for _, c := range sorted {
		pair := pairKey(c.From, c.To)
		if seen[pair] {
			continue
		}
		seen[pair] = true
		insights = append(insights, describe(c, adjusted, names))
		if len(insights) >= maxInsights {
			break
		}
	}
	return insights
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

func describe(c Contribution, adjusted map[string]int, names map[string]string) AssociationInsight {
	nameOf := func(key string) string {
		if n := names[key]; n != "" {
			return n
		}
		return key
	}
	bandOf := func(key string) string {
		p, ok := adjusted[key]
		if !ok {
			p = neutralPercentage
		}
		return narrative.ActivationLabel(p)
	}
	effect := "增强"
	if c.Value < 0 {
		effect = "抑制"
	}

	return AssociationInsight{
		Pair:     c.From + "-" + c.To,
		Relation: c.Rule.Relation,
		Impact: fmt.Sprintf("%s（%s）对%s（%s）呈%s效应，估计影响约 %.1f 分。",
			nameOf(c.From), bandOf(c.From), nameOf(c.To), bandOf(c.To), effect, math.Abs(c.Value)),
		Interpretation: narrative.Normalize(c.Rule.Insight),
		Suggestion:     narrative.Normalize(c.Rule.Suggestion),
	}
}
