package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	"github.com/ZanzyTHEbar/elkquiz/internal/narrative"
	"github.com/google/uuid"
)

const topDimensionCount = 5

// IDSource mints result ids.
type IDSource func(suiteID string, now time.Time) string

// Analyzer orchestrates the scoring pipeline: aggregate, calibrate, associate, narrate.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	graph    *Graph
	composer *narrative.Composer
	now      func() time.Time
	newID    IDSource
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithIDSource replaces MakeResultID.
func WithIDSource(src IDSource) Option {
	return func(a *Analyzer) { a.newID = src }
}

// WithGraph replaces the embedded association graph.
func WithGraph(g *Graph) Option {
	return func(a *Analyzer) { a.graph = g }
}

// WithComposer replaces the composer over the embedded phrase bank.
func WithComposer(c *narrative.Composer) Option {
	return func(a *Analyzer) { a.composer = c }
}

// NewAnalyzer creates an analyzer with the embedded rule table and phrase bank.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		now:   time.Now,
		newID: MakeResultID,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.graph == nil {
		a.graph = DefaultGraph()
	}
	if a.composer == nil {
		a.composer = narrative.NewComposer(nil)
	}
	return a
}

// Score validates answers and builds the full result record. Validation failures return
// an AppError of category validation and no record.
func (a *Analyzer) Score(suite *catalog.Suite, answers []Answer) (*ResultRecord, error) {
	tallies, err := Aggregate(suite, answers)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(tallies))
	base := make(map[string]int, len(tallies))
	names := make(map[string]string, len(tallies))
	for i, t := range tallies {
		keys[i] = t.Key
		base[t.Key] = Calibrate(t.LinearPercentage)
		names[t.Key] = t.Name
	}

	adjusted, contributions := a.graph.Apply(base, keys)
	insights := Insights(contributions, adjusted, names)

	dims := make([]DimensionScore, len(tallies))
	ranked := make([]narrative.Ranked, len(tallies))
	total := 0
	for i, t := range tallies {
		pct := adjusted[t.Key]
		analysis := a.composer.Compose(narrative.DimensionInput{
			Key:         t.Key,
			Name:        t.Name,
			Description: t.Description,
			Percentage:  pct,
			Base:        base[t.Key],
		})
		dims[i] = DimensionScore{
			Key:                 t.Key,
			Name:                t.Name,
			Score:               t.Score,
			MaxScore:            t.MaxScore,
			MinScore:            t.MinScore,
			QuestionCount:       t.QuestionCount,
			LinearPercentage:    t.LinearPercentage,
			BasePercentage:      base[t.Key],
			AssociationDelta:    pct - base[t.Key],
			Percentage:          pct,
			Level:               narrative.Level(pct),
			Description:         analysis.Summary,
			BaselineDescription: t.Description,
			Analysis:            analysis,
		}
		ranked[i] = narrative.Ranked{Key: t.Key, Name: t.Name, Percentage: pct}
		total += pct
	}

	strongestRelation, strongestImpact := "", ""
	if len(insights) > 0 {
		strongestRelation, strongestImpact = insights[0].Relation, insights[0].Impact
	}
	chart := narrative.ChartSeries(ranked)

	now := a.now().UTC().Truncate(time.Millisecond)
	return &ResultRecord{
		ID:                  a.newID(suite.ID, now),
		Timestamp:           now,
		Suite:               suite.Summary(),
		IsPremium:           true,
		TotalScore:          meanPercentage(total, len(dims)),
		Dimensions:          dims,
		TopDimensions:       TopDimensions(dims, topDimensionCount),
		AssociationInsights: insights,
		TypicalPersona:      a.composer.BuildPersona(ranked, strongestImpact),
		ScoringStandard:     StandardFor(suite),
		Chart:               chart,
		Overview:            narrative.Summarize(chart),
		InsightLines:        narrative.InsightLines(chart, strongestRelation, strongestImpact),
	}, nil
}

func meanPercentage(total, n int) int {
	if n == 0 {
		return 0
	}
	return roundHalfUp(float64(total) / float64(n))
}

// TopDimensions returns up to n dimensions by percentage descending, ties broken by key.
func TopDimensions(dims []DimensionScore, n int) []DimensionScore {
	sorted := append([]DimensionScore(nil), dims...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Percentage != sorted[j].Percentage {
			return sorted[i].Percentage > sorted[j].Percentage
		}
		return sorted[i].Key < sorted[j].Key
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// MakeResultID returns LOCAL_<suite>_<unix ms base36>_<6 hex>. The suite part is the
// first 8 alphanumerics of suiteID, or SUITE.
func MakeResultID(suiteID string, now time.Time) string {
	compact := nonAlnum.ReplaceAllString(suiteID, "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	if compact == "" {
		compact = "SUITE"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "LOCAL_" + compact + "_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + random
}

// StandardFor describes the scoring transforms used for suite.
func StandardFor(suite *catalog.Suite) ScoringStandard {
	return ScoringStandard{
		Scale:         scaleText(suite),
		Normalization: "百分比 = (维度总分 - 维度最小分) / (维度最大分 - 维度最小分) * 100",
		NonlinearScoring: NonlinearScoring{
			Model:   "sigmoid",
			Slope:   SigmoidSlope,
			Formula: "最终分 = round(100 * (sigmoid(k*(x-50)) - sigmoid(-50k)) / (sigmoid(50k) - sigmoid(-50k)))",
			Note:    "x 为线性归一化分，k 为斜率参数；该变换用于提升中段分辨率并保留 0-100 边界。",
		},
		AssociationModel: "百分比会根据关联维度进行协同修正，模拟单题对多维的间接影响。",
		LevelBands: []LevelBand{
			{Label: "低偏好", Min: 0, Max: 24},
			{Label: "中低偏好", Min: 25, Max: 49},
			{Label: "中高偏好", Min: 50, Max: 74},
			{Label: "高偏好", Min: 75, Max: 100},
		},
	}
}

func scaleText(suite *catalog.Suite) string {
	for _, q := range suite.Questions {
		lo, hi := q.ScoreBounds()
		if lo != 1 || hi != 5 || len(q.Options) != 5 {
			return "每题按选项分值计分"
		}
	}
	return "每题1-5分"
}
