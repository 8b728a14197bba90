package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	"github.com/ZanzyTHEbar/elkquiz/internal/narrative"
)

// Answer is one selected option.
type Answer struct {
	QuestionID int `json:"subject_id"`
	Score      int `json:"select_score"`
}

// DimensionScore is the full scoring trail of one dimension.
type DimensionScore struct {
	Key                 string             `json:"key"`
	Name                string             `json:"name"`
	Score               int                `json:"score"`
	MaxScore            int                `json:"maxScore"`
	MinScore            int                `json:"minScore"`
	QuestionCount       int                `json:"questionCount"`
	LinearPercentage    int                `json:"linearPercentage"`
	BasePercentage      int                `json:"basePercentage"`
	AssociationDelta    int                `json:"associationDelta"`
	Percentage          int                `json:"percentage"`
	Level               string             `json:"level"`
	Description         string             `json:"description"`
	BaselineDescription string             `json:"baselineDescription"`
	Analysis            narrative.Analysis `json:"analysis"`
}

// AssociationInsight explains one of the strongest cross-dimension effects.
type AssociationInsight struct {
	Pair           string `json:"pair"`
	Relation       string `json:"relation"`
	Impact         string `json:"impact"`
	Interpretation string `json:"interpretation"`
	Suggestion     string `json:"suggestion"`
}

type NonlinearScoring struct {
	Model   string  `json:"model"`
	Slope   float64 `json:"slope"`
	Formula string  `json:"formula"`
	Note    string  `json:"note"`
}

type LevelBand struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// ScoringStandard documents the transforms applied to every result.
type ScoringStandard struct {
	Scale            string           `json:"scale"`
	Normalization    string           `json:"normalization"`
	NonlinearScoring NonlinearScoring `json:"nonlinearScoring"`
	AssociationModel string           `json:"associationModel"`
	LevelBands       []LevelBand      `json:"levelBands"`
}

// ResultRecord is a finished, immutable report.
type ResultRecord struct {
	ID                  string                 `json:"id"`
	Timestamp           time.Time              `json:"timestamp"`
	Suite               catalog.Summary        `json:"suite"`
	IsPremium           bool                   `json:"isPremium"`
	TotalScore          int                    `json:"totalScore"`
	Dimensions          []DimensionScore       `json:"dimensions"`
	TopDimensions       []DimensionScore       `json:"topDimensions"`
	AssociationInsights []AssociationInsight   `json:"associationInsights"`
	TypicalPersona      narrative.Persona      `json:"typicalPersona"`
	ScoringStandard     ScoringStandard        `json:"scoringStandard"`
	Chart               []narrative.ChartPoint `json:"chart"`
	Overview            narrative.Overview     `json:"overview"`
	InsightLines        []string               `json:"insightLines"`
}

// SuiteID is the id of the suite the record was scored against.
func (r *ResultRecord) SuiteID() string { return r.Suite.ID }
