package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
)

// DimensionTally is the raw sum of one dimension before any percentage transform.
type DimensionTally struct {
	catalog.DimensionMeta
	Score            int
	LinearPercentage int
}

// ValidateAnswers checks a submission against suite without scoring it. Every answer must
// name a known question once, with one of that question's option scores, and every
// question must be answered.
func ValidateAnswers(suite *catalog.Suite, answers []Answer) (map[int]int, error) {
	byQuestion := make(map[int]int, len(answers))
	for _, ans := range answers {
		q, ok := suite.Question(ans.QuestionID)
		if !ok {
			return nil, apperrors.NewValidationErrorWithMap(
				fmt.Sprintf("题目ID不存在: %d", ans.QuestionID),
				map[string]string{"subject_id": strconv.Itoa(ans.QuestionID)})
		}
		if !q.ValidScore(ans.Score) {
			return nil, apperrors.NewValidationErrorWithMap(
				fmt.Sprintf("题目 %d 的分值必须为 %s 中的整数", q.ID, joinScores(q.ScoreSet())),
				map[string]string{"subject_id": strconv.Itoa(q.ID), "select_score": strconv.Itoa(ans.Score)})
		}
		if _, dup := byQuestion[q.ID]; dup {
			return nil, apperrors.NewValidationErrorWithMap(
				fmt.Sprintf("题目 %d 重复作答", q.ID),
				map[string]string{"subject_id": strconv.Itoa(q.ID)})
		}
		byQuestion[q.ID] = ans.Score
	}

	if len(byQuestion) != suite.TotalQuestions() {
		return nil, apperrors.NewValidationErrorWithMap(
			fmt.Sprintf("答案数量不完整，要求 %d 题，收到 %d 题", suite.TotalQuestions(), len(byQuestion)),
			map[string]string{
				"required": strconv.Itoa(suite.TotalQuestions()),
				"received": strconv.Itoa(len(byQuestion)),
			})
	}
	return byQuestion, nil
}

// Aggregate validates answers and sums them per dimension, in suite dimension order.
func Aggregate(suite *catalog.Suite, answers []Answer) ([]DimensionTally, error) {
	byQuestion, err := ValidateAnswers(suite, answers)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]int, suite.DimensionCount())
	for _, q := range suite.Questions {
		sums[q.Dimension] += byQuestion[q.ID]
	}

	tallies := make([]DimensionTally, 0, suite.DimensionCount())
	for _, meta := range suite.Dimensions {
		sum := sums[meta.Key]
		tallies = append(tallies, DimensionTally{
			DimensionMeta:    meta,
			Score:            sum,
			LinearPercentage: LinearPercentage(sum, meta.MinScore, meta.MaxScore),
		})
	}
	return tallies, nil
}

func joinScores(scores []int) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, "、")
}

// ParseAnswers decodes a raw answers payload. Ids and scores may be JSON numbers or
// numeric strings.
func ParseAnswers(raw json.RawMessage) ([]Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperrors.NewValidationError("answers必须为数组")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, apperrors.NewValidationError("answers必须为数组", err.Error())
	}

	answers := make([]Answer, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, apperrors.NewValidationError("存在非法答案项")
		}
		var fields struct {
			SubjectID   json.RawMessage `json:"subject_id"`
			SelectScore json.RawMessage `json:"select_score"`
		}
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, apperrors.NewValidationError("存在非法答案项", err.Error())
		}
		id, ok := parseInt(fields.SubjectID)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("题目ID不存在: %s", displayRaw(fields.SubjectID)))
		}
		score, ok := parseInt(fields.SelectScore)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("题目 %d 的分值必须为整数", id))
		}
		answers = append(answers, Answer{QuestionID: id, Score: score})
	}
	return answers, nil
}

func parseInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	} else {
		s = string(raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}

func displayRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "undefined"
	}
	return strings.Trim(string(raw), `"`)
}
