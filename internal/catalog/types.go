package catalog

import (
	"sort"
	"strconv"
)

// DefaultDimensionDescription is used when a dimension has no description on disk.
const DefaultDimensionDescription = "暂无维度说明。"

// StandardScale is the option set assumed for questions that list no options.
var StandardScale = []int{1, 2, 3, 4, 5}

type Option struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type Question struct {
	ID        int      `json:"id"`
	Dimension string   `json:"dimension"`
	Text      string   `json:"text"`
	Options   []Option `json:"options"`
}

// ScoreBounds returns the lowest and highest option score.
func (q Question) ScoreBounds() (int, int) {
	lo, hi := q.Options[0].Score, q.Options[0].Score
	for _, opt := range q.Options[1:] {
		if opt.Score < lo {
			lo = opt.Score
		}
		if opt.Score > hi {
			hi = opt.Score
		}
	}
	return lo, hi
}

// ValidScore reports whether score is one of the question's option scores.
func (q Question) ValidScore(score int) bool {
	for _, opt := range q.Options {
		if opt.Score == score {
			return true
		}
	}
	return false
}

// ScoreSet returns the option scores in ascending order.
func (q Question) ScoreSet() []int {
	scores := make([]int, 0, len(q.Options))
	for _, opt := range q.Options {
		scores = append(scores, opt.Score)
	}
	sort.Ints(scores)
	return scores
}

func standardOptions() []Option {
	opts := make([]Option, 0, len(StandardScale))
	for _, s := range StandardScale {
		opts = append(opts, Option{Text: strconv.Itoa(s), Score: s})
	}
	return opts
}

type DimensionDetail struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DimensionMeta describes one dimension of a loaded suite.
type DimensionMeta struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
	Description   string `json:"description"`
	MinScore      int    `json:"minScore"`
	MaxScore      int    `json:"maxScore"`
}

// Suite is an immutable, fully resolved question set.
type Suite struct {
	ID           string
	Name         string
	Version      string
	Description  string
	Source       string
	AdultContent bool
	IsDefault    bool

	Questions      []Question
	DimensionOrder []string
	Dimensions     []DimensionMeta

	questionIndex  map[int]int
	dimensionIndex map[string]int
}

// Question looks up a question by id.
func (s *Suite) Question(id int) (Question, bool) {
	idx, ok := s.questionIndex[id]
	if !ok {
		return Question{}, false
	}
	return s.Questions[idx], true
}

// Dimension looks up dimension metadata by key.
func (s *Suite) Dimension(key string) (DimensionMeta, bool) {
	idx, ok := s.dimensionIndex[key]
	if !ok {
		return DimensionMeta{}, false
	}
	return s.Dimensions[idx], true
}

func (s *Suite) TotalQuestions() int { return len(s.Questions) }

func (s *Suite) DimensionCount() int { return len(s.Dimensions) }

// Summary is the public description of a suite.
type Summary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	Description    string `json:"description"`
	Source         string `json:"source"`
	AdultContent   bool   `json:"adultContent"`
	TotalQuestions int    `json:"totalQuestions"`
	DimensionCount int    `json:"dimensionCount"`
}

func (s *Suite) Summary() Summary {
	return Summary{
		ID:             s.ID,
		Name:           s.Name,
		Version:        s.Version,
		Description:    s.Description,
		Source:         s.Source,
		AdultContent:   s.AdultContent,
		TotalQuestions: s.TotalQuestions(),
		DimensionCount: s.DimensionCount(),
	}
}

// Metadata is the payload of the metadata endpoints.
type Metadata struct {
	Success        bool            `json:"success"`
	Suite          Summary         `json:"suite"`
	TotalQuestions int             `json:"totalQuestions"`
	DimensionCount int             `json:"dimensionCount"`
	Dimensions     []DimensionMeta `json:"dimensions"`
}

func (s *Suite) Metadata() Metadata {
	return Metadata{
		Success:        true,
		Suite:          s.Summary(),
		TotalQuestions: s.TotalQuestions(),
		DimensionCount: s.DimensionCount(),
		Dimensions:     s.Dimensions,
	}
}
