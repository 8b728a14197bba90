package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
)

const (
	suiteFile      = "suite.json"
	questionsFile  = "questions.json"
	dimensionsFile = "dimension_descriptions.json"
)

// SuiteFile mirrors suite.json. Every field is optional.
type SuiteFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Description  string `json:"description"`
	Source       string `json:"source"`
	AdultContent bool   `json:"adultContent"`
	Default      bool   `json:"default"`
}

// DefaultAdConfig is served when no ad config file exists.
var DefaultAdConfig = json.RawMessage(`{"provider":"google-adsense","enabled":false,"client":"","slots":{},"showPlaceholderWhenDisabled":true}`)

// NewSuite resolves a suite from its decoded files. dirName supplies the id and name
// defaults.
func NewSuite(dirName string, meta SuiteFile, questions []Question, details []DimensionDetail) (*Suite, error) {
	suite := &Suite{
		ID:             firstNonEmpty(meta.ID, dirName),
		Name:           firstNonEmpty(meta.Name, dirName),
		Version:        firstNonEmpty(meta.Version, "0.0.0"),
		Description:    meta.Description,
		Source:         meta.Source,
		AdultContent:   meta.AdultContent,
		IsDefault:      meta.Default,
		questionIndex:  make(map[int]int, len(questions)),
		dimensionIndex: make(map[string]int),
	}
	if suite.ID == "" {
		return nil, fmt.Errorf("suite id is empty")
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("suite %s has no questions", suite.ID)
	}

	detailByKey := make(map[string]DimensionDetail, len(details))
	for _, d := range details {
		detailByKey[d.Key] = d
	}

	suite.Questions = make([]Question, 0, len(questions))
	for i, q := range questions {
		if q.Dimension == "" {
			return nil, fmt.Errorf("suite %s: question %d has no dimension", suite.ID, q.ID)
		}
		if _, dup := suite.questionIndex[q.ID]; dup {
			return nil, fmt.Errorf("suite %s: duplicate question id %d", suite.ID, q.ID)
		}
		if len(q.Options) == 0 {
			q.Options = standardOptions()
		}
		seen := make(map[int]bool, len(q.Options))
		for _, opt := range q.Options {
			if seen[opt.Score] {
				return nil, fmt.Errorf("suite %s: question %d repeats option score %d", suite.ID, q.ID, opt.Score)
			}
			seen[opt.Score] = true
		}

		suite.questionIndex[q.ID] = i
		suite.Questions = append(suite.Questions, q)

		idx, known := suite.dimensionIndex[q.Dimension]
		if !known {
			detail := detailByKey[q.Dimension]
			idx = len(suite.Dimensions)
			suite.dimensionIndex[q.Dimension] = idx
			suite.DimensionOrder = append(suite.DimensionOrder, q.Dimension)
			suite.Dimensions = append(suite.Dimensions, DimensionMeta{
				Key:         q.Dimension,
				Name:        firstNonEmpty(detail.Name, q.Dimension),
				Description: firstNonEmpty(detail.Description, DefaultDimensionDescription),
			})
		}

		lo, hi := q.ScoreBounds()
		dim := &suite.Dimensions[idx]
		dim.QuestionCount++
		dim.MinScore += lo
		dim.MaxScore += hi
	}

	return suite, nil
}

// LoadSuites reads every complete suite directory under dir, in name order.
func LoadSuites(dir string) ([]*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("题库目录不存在: %s", dir), err)
	}

	var suites []*Suite
	seenIDs := make(map[string]string)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		suiteDir := filepath.Join(dir, entry.Name())
		if !hasFiles(suiteDir, suiteFile, questionsFile, dimensionsFile) {
			continue
		}

		suite, err := loadSuiteDir(suiteDir, entry.Name())
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("套题加载失败: %s", entry.Name()), err)
		}
		if other, dup := seenIDs[suite.ID]; dup {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("套题ID重复: %s (%s, %s)", suite.ID, other, entry.Name()), nil)
		}
		seenIDs[suite.ID] = entry.Name()
		suites = append(suites, suite)
	}

	if len(suites) == 0 {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("未检测到可用套题，请检查 %s", dir), nil)
	}
	return suites, nil
}

func loadSuiteDir(suiteDir, dirName string) (*Suite, error) {
	var meta SuiteFile
	if err := readJSON(filepath.Join(suiteDir, suiteFile), &meta); err != nil {
		return nil, err
	}
	var questions []Question
	if err := readJSON(filepath.Join(suiteDir, questionsFile), &questions); err != nil {
		return nil, err
	}
	var details []DimensionDetail
	if err := readJSON(filepath.Join(suiteDir, dimensionsFile), &details); err != nil {
		return nil, err
	}
	return NewSuite(dirName, meta, questions, details)
}

// LoadAdConfig returns the raw ad config, or DefaultAdConfig when path does not exist.
func LoadAdConfig(path string) (json.RawMessage, error) {
	if path == "" {
		return DefaultAdConfig, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultAdConfig, nil
	}
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("广告配置读取失败: %s", path), err)
	}
	if !json.Valid(data) {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("广告配置不是合法JSON: %s", path), nil)
	}
	return json.RawMessage(data), nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func hasFiles(dir string, names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
