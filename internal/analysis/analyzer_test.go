package analysis

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/narrative"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSuite creates perDim standard-scale questions for each key, ids numbered from 1.
func buildSuite(t testing.TB, id string, perDim int, keys ...string) *catalog.Suite {
	t.Helper()
	var questions []catalog.Question
	var details []catalog.DimensionDetail
	next := 1
	for _, key := range keys {
		for i := 0; i < perDim; i++ {
			questions = append(questions, catalog.Question{ID: next, Dimension: key, Text: fmt.Sprintf("q%d", next)})
			next++
		}
		details = append(details, catalog.DimensionDetail{Key: key, Name: "维度" + key})
	}
	suite, err := catalog.NewSuite(id, catalog.SuiteFile{ID: id, Name: id}, questions, details)
	require.NoError(t, err)
	return suite
}

func uniformAnswers(suite *catalog.Suite, score int) []Answer {
	answers := make([]Answer, 0, suite.TotalQuestions())
	for _, q := range suite.Questions {
		answers = append(answers, Answer{QuestionID: q.ID, Score: score})
	}
	return answers
}

func fixedAnalyzer(opts ...Option) *Analyzer {
	base := []Option{
		WithClock(func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }),
		WithIDSource(func(string, time.Time) string { return "LOCAL_test_fixed_000000" }),
	}
	return NewAnalyzer(append(base, opts...)...)
}

func TestSingleDimensionScenarios(t *testing.T) {
	suite := buildSuite(t, "solo", 2, "X")

	tests := []struct {
		name       string
		scores     [2]int
		raw        int
		linear     int
		percentage int
		level      string
	}{
		{"minimum", [2]int{1, 1}, 2, 0, 0, "低偏好"},
		{"maximum", [2]int{5, 5}, 10, 100, 100, "高偏好"},
		{"midpoint is a fixed point", [2]int{3, 3}, 6, 50, 50, "中高偏好"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := []Answer{{QuestionID: 1, Score: tt.scores[0]}, {QuestionID: 2, Score: tt.scores[1]}}
			record, err := fixedAnalyzer().Score(suite, answers)
			require.NoError(t, err)
			require.Len(t, record.Dimensions, 1)

			dim := record.Dimensions[0]
			assert.Equal(t, tt.raw, dim.Score)
			assert.Equal(t, 2, dim.MinScore)
			assert.Equal(t, 10, dim.MaxScore)
			assert.Equal(t, tt.linear, dim.LinearPercentage)
			assert.Equal(t, tt.percentage, dim.BasePercentage)
			assert.Equal(t, tt.percentage, dim.Percentage)
			assert.Equal(t, 0, dim.AssociationDelta)
			assert.Equal(t, tt.level, dim.Level)
			assert.Equal(t, tt.percentage, record.TotalScore)
			assert.Empty(t, record.AssociationInsights)
		})
	}
}

func TestScoreRejectsInvalidSubmissions(t *testing.T) {
	suite := buildSuite(t, "solo", 2, "X")

	tests := []struct {
		name    string
		answers []Answer
		message string
	}{
		{"unknown question", []Answer{{QuestionID: 9999, Score: 3}, {QuestionID: 1, Score: 3}}, "题目ID不存在: 9999"},
		{"score outside option set", []Answer{{QuestionID: 1, Score: 6}, {QuestionID: 2, Score: 3}}, "题目 1 的分值必须为 1、2、3、4、5 中的整数"},
		{"zero score", []Answer{{QuestionID: 1, Score: 0}, {QuestionID: 2, Score: 3}}, "题目 1 的分值必须为"},
		{"duplicate answer", []Answer{{QuestionID: 1, Score: 3}, {QuestionID: 1, Score: 4}}, "题目 1 重复作答"},
		{"all but one", []Answer{{QuestionID: 1, Score: 3}}, "答案数量不完整，要求 2 题，收到 1 题"},
		{"empty", nil, "答案数量不完整，要求 2 题，收到 0 题"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := fixedAnalyzer().Score(suite, tt.answers)
			require.Error(t, err)
			assert.Nil(t, record)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCustomOptionSets(t *testing.T) {
	questions := []catalog.Question{
		{ID: 10, Dimension: "X", Options: []catalog.Option{{Text: "否", Score: 0}, {Text: "是", Score: 2}}},
		{ID: 11, Dimension: "X", Options: []catalog.Option{{Text: "否", Score: 0}, {Text: "是", Score: 2}}},
	}
	suite, err := catalog.NewSuite("binary", catalog.SuiteFile{}, questions, nil)
	require.NoError(t, err)

	record, err := fixedAnalyzer().Score(suite, []Answer{{QuestionID: 10, Score: 2}, {QuestionID: 11, Score: 0}})
	require.NoError(t, err)
	assert.Equal(t, 50, record.Dimensions[0].LinearPercentage)
	assert.Equal(t, "每题按选项分值计分", record.ScoringStandard.Scale)

	_, err = fixedAnalyzer().Score(suite, []Answer{{QuestionID: 10, Score: 1}, {QuestionID: 11, Score: 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0、2")
}

func TestAssociationThroughPipeline(t *testing.T) {
	suite := buildSuite(t, "pair", 2, "H", "J")
	answers := []Answer{
		{QuestionID: 1, Score: 5}, {QuestionID: 2, Score: 5},
		{QuestionID: 3, Score: 3}, {QuestionID: 4, Score: 3},
	}

	record, err := fixedAnalyzer().Score(suite, answers)
	require.NoError(t, err)

	h, j := record.Dimensions[0], record.Dimensions[1]
	assert.Equal(t, 100, h.BasePercentage)
	assert.Equal(t, 100, h.Percentage)
	assert.Equal(t, 50, j.BasePercentage)
	assert.Equal(t, 62, j.Percentage, "50 + (100-50)*0.23 = 61.5 rounds up")
	assert.Equal(t, 12, j.AssociationDelta)
	assert.Contains(t, j.Analysis.AssociationHint, "上调")
	assert.Equal(t, 81, record.TotalScore)

	require.Len(t, record.AssociationInsights, 1)
	insight := record.AssociationInsights[0]
	assert.Equal(t, "H-J", insight.Pair)
	assert.Equal(t, "主导-结构协同", insight.Relation)
	assert.Equal(t, "维度H（高激活）对维度J（中高激活）呈增强效应，估计影响约 11.5 分。", insight.Impact)
	assert.Contains(t, record.TypicalPersona.Summary, insight.Impact)
	assert.Equal(t, "最显著的联动为“主导-结构协同”："+insight.Impact, record.InsightLines[3])
}

func TestScoreIsDeterministic(t *testing.T) {
	suite := buildSuite(t, "full", 2, "A", "B", "C", "H", "G", "N", "O", "S")
	rng := rand.New(rand.NewSource(7))
	answers := make([]Answer, 0, suite.TotalQuestions())
	for _, q := range suite.Questions {
		answers = append(answers, Answer{QuestionID: q.ID, Score: 1 + rng.Intn(5)})
	}

	a := NewAnalyzer()
	first, err := a.Score(suite, answers)
	require.NoError(t, err)
	second, err := a.Score(suite, answers)
	require.NoError(t, err)

	second.ID, second.Timestamp = first.ID, first.Timestamp
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestScoreRangeInvariant(t *testing.T) {
	keys := make([]string, 0, 23)
	for c := 'A'; c <= 'W'; c++ {
		keys = append(keys, string(c))
	}
	suite := buildSuite(t, "all", 3, keys...)
	rng := rand.New(rand.NewSource(42))
	a := NewAnalyzer()

	for round := 0; round < 50; round++ {
		answers := make([]Answer, 0, suite.TotalQuestions())
		for _, q := range suite.Questions {
			answers = append(answers, Answer{QuestionID: q.ID, Score: 1 + rng.Intn(5)})
		}
		record, err := a.Score(suite, answers)
		require.NoError(t, err)
		for _, dim := range record.Dimensions {
			assert.GreaterOrEqual(t, dim.BasePercentage, 0)
			assert.LessOrEqual(t, dim.BasePercentage, 100)
			assert.GreaterOrEqual(t, dim.Percentage, 0)
			assert.LessOrEqual(t, dim.Percentage, 100)
		}
		assert.LessOrEqual(t, len(record.AssociationInsights), 4)
	}

	record, err := a.Score(suite, uniformAnswers(suite, 5))
	require.NoError(t, err)
	for _, dim := range record.Dimensions {
		assert.Equal(t, 100, dim.Percentage, "dimension %s", dim.Key)
	}
}

func TestTopDimensionsOrdering(t *testing.T) {
	dims := []DimensionScore{
		{Key: "D", Percentage: 40},
		{Key: "B", Percentage: 70},
		{Key: "A", Percentage: 70},
		{Key: "F", Percentage: 90},
		{Key: "C", Percentage: 10},
		{Key: "E", Percentage: 55},
		{Key: "G", Percentage: 55},
	}
	top := TopDimensions(dims, 5)
	require.Len(t, top, 5)
	got := make([]string, len(top))
	for i, d := range top {
		got[i] = d.Key
	}
	assert.Equal(t, []string{"F", "A", "B", "E", "G"}, got)
	assert.Equal(t, "D", dims[0].Key, "input untouched")

	assert.Len(t, TopDimensions(dims[:2], 5), 2)
}

func TestRecordMetadata(t *testing.T) {
	suite := buildSuite(t, "meta", 1, "X", "Y")
	record, err := fixedAnalyzer().Score(suite, uniformAnswers(suite, 4))
	require.NoError(t, err)

	assert.Equal(t, "LOCAL_test_fixed_000000", record.ID)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), record.Timestamp)
	assert.True(t, record.IsPremium)
	assert.Equal(t, "meta", record.SuiteID())
	assert.Equal(t, "每题1-5分", record.ScoringStandard.Scale)
	assert.Equal(t, SigmoidSlope, record.ScoringStandard.NonlinearScoring.Slope)
	assert.Len(t, record.ScoringStandard.LevelBands, 4)
	assert.Len(t, record.Chart, 2)
	assert.Len(t, record.InsightLines, 5)
	assert.Equal(t, record.Dimensions[0].Analysis.Summary, record.Dimensions[0].Description)
}

func TestMakeResultID(t *testing.T) {
	pattern := regexp.MustCompile(`^LOCAL_([A-Za-z0-9]+)_([0-9a-z]+)_([0-9a-f]{6})$`)
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		suiteID string
		compact string
	}{
		{"my-suite_v2!", "mysuitev"},
		{"abc", "abc"},
		{"", "SUITE"},
		{"中文套题", "SUITE"},
	}
	for _, tt := range tests {
		id := MakeResultID(tt.suiteID, now)
		m := pattern.FindStringSubmatch(id)
		require.NotNil(t, m, id)
		assert.Equal(t, tt.compact, m[1])
		assert.Equal(t, "loyw3v28", m[2])
	}
	assert.NotEqual(t, MakeResultID("abc", now), MakeResultID("abc", now))
}

func TestParseAnswers(t *testing.T) {
	answers, err := ParseAnswers(json.RawMessage(`[{"subject_id":1,"select_score":5},{"subject_id":"2","select_score":"3"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Answer{{QuestionID: 1, Score: 5}, {QuestionID: 2, Score: 3}}, answers)

	tests := []struct {
		name    string
		raw     string
		message string
	}{
		{"object instead of array", `{"subject_id":1}`, "answers必须为数组"},
		{"missing", ``, "answers必须为数组"},
		{"non-object item", `[1]`, "存在非法答案项"},
		{"null item", `[null]`, "存在非法答案项"},
		{"non-numeric id", `[{"subject_id":"x","select_score":1}]`, "题目ID不存在: x"},
		{"fractional score", `[{"subject_id":1,"select_score":2.5}]`, "题目 1 的分值必须为整数"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswers(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestAnalyzerWithCustomGraphAndComposer(t *testing.T) {
	suite := buildSuite(t, "pair", 2, "X", "Y")
	graph := NewGraph([]Rule{{A: "X", B: "Y", Weight: 0.5, Sign: 1, Relation: "X带动Y"}})

	bank := *narrative.DefaultPhraseBank()
	bank.Presets = nil
	bank.Fallback.Trait = "自定义特征"

	a := fixedAnalyzer(WithGraph(graph), WithComposer(narrative.NewComposer(&bank)))

	answers := []Answer{
		{QuestionID: 1, Score: 5}, {QuestionID: 2, Score: 5},
		{QuestionID: 3, Score: 3}, {QuestionID: 4, Score: 3},
	}
	record, err := a.Score(suite, answers)
	require.NoError(t, err)
	require.Len(t, record.Dimensions, 2)

	x, y := record.Dimensions[0], record.Dimensions[1]
	assert.Equal(t, Calibrate(100), x.Percentage, "Y sits at neutral and does not move X")
	assert.Zero(t, x.AssociationDelta)

	wantY := 50 + roundHalfUp(float64(Calibrate(100)-50)*0.5)
	assert.Equal(t, 50, y.BasePercentage)
	assert.Equal(t, wantY, y.Percentage)
	assert.Equal(t, wantY-50, y.AssociationDelta)

	for _, d := range record.Dimensions {
		assert.Contains(t, d.Description, "自定义特征")
	}

	plain, err := fixedAnalyzer().Score(suite, answers)
	require.NoError(t, err)
	assert.Equal(t, 50, plain.Dimensions[1].Percentage, "X and Y share no rule in the embedded table")
}
