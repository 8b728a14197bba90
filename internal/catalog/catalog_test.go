package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuite(t *testing.T, root, dir string, meta SuiteFile, questions []Question, details []DimensionDetail) {
	t.Helper()
	suiteDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(suiteDir, 0o755))
	write := func(name string, v interface{}) {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(suiteDir, name), data, 0o644))
	}
	write(suiteFile, meta)
	write(questionsFile, questions)
	write(dimensionsFile, details)
}

func sampleQuestions() []Question {
	return []Question{
		{ID: 1, Dimension: "A", Text: "q1"},
		{ID: 2, Dimension: "B", Text: "q2"},
		{ID: 3, Dimension: "A", Text: "q3"},
	}
}

func TestNewSuiteResolvesDimensions(t *testing.T) {
	questions := []Question{
		{ID: 1, Dimension: "B"},
		{ID: 2, Dimension: "A", Options: []Option{{Text: "no", Score: 0}, {Text: "yes", Score: 3}}},
		{ID: 3, Dimension: "B"},
	}
	details := []DimensionDetail{{Key: "B", Name: "角色", Description: "desc"}}

	suite, err := NewSuite("dir", SuiteFile{}, questions, details)
	require.NoError(t, err)

	assert.Equal(t, "dir", suite.ID)
	assert.Equal(t, "dir", suite.Name)
	assert.Equal(t, "0.0.0", suite.Version)
	assert.Equal(t, []string{"B", "A"}, suite.DimensionOrder, "first appearance order")

	b, ok := suite.Dimension("B")
	require.True(t, ok)
	assert.Equal(t, "角色", b.Name)
	assert.Equal(t, 2, b.QuestionCount)
	assert.Equal(t, 2, b.MinScore)
	assert.Equal(t, 10, b.MaxScore)

	a, ok := suite.Dimension("A")
	require.True(t, ok)
	assert.Equal(t, "A", a.Name, "name falls back to key")
	assert.Equal(t, DefaultDimensionDescription, a.Description)
	assert.Equal(t, 0, a.MinScore)
	assert.Equal(t, 3, a.MaxScore)

	q, ok := suite.Question(1)
	require.True(t, ok)
	assert.Equal(t, StandardScale, q.ScoreSet())
	assert.True(t, q.ValidScore(5))
	assert.False(t, q.ValidScore(6))

	_, ok = suite.Question(99)
	assert.False(t, ok)
}

func TestNewSuiteRejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		questions []Question
	}{
		{"no questions", nil},
		{"empty dimension", []Question{{ID: 1}}},
		{"duplicate id", []Question{{ID: 1, Dimension: "A"}, {ID: 1, Dimension: "B"}}},
		{"repeated option score", []Question{{ID: 1, Dimension: "A", Options: []Option{{Score: 1}, {Score: 1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSuite("x", SuiteFile{}, tt.questions, nil)
			assert.Error(t, err)
		})
	}
}

func TestCatalogLoadAndDefault(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "alpha", SuiteFile{ID: "alpha", Name: "Alpha"}, sampleQuestions(), nil)
	writeSuite(t, root, "beta", SuiteFile{ID: "beta", Name: "Beta", Default: true}, sampleQuestions(), nil)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "incomplete"), 0o755))

	c, err := New(root, filepath.Join(root, "missing-ad.json"))
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Len(t, snap.Suites, 2)
	assert.Equal(t, "beta", snap.Default.ID)
	assert.Equal(t, uint64(1), snap.Version)
	assert.JSONEq(t, string(DefaultAdConfig), string(snap.AdConfig))

	suite, err := c.Suite("")
	require.NoError(t, err)
	assert.Equal(t, "beta", suite.ID)

	_, err = c.Suite("nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	assert.Contains(t, err.Error(), "套题不存在: nope")

	summaries := snap.Summaries()
	assert.Equal(t, "alpha", summaries[0].ID)
	assert.Equal(t, 3, summaries[0].TotalQuestions)
	assert.Equal(t, 2, summaries[0].DimensionCount)
}

func TestCatalogFirstSuiteIsDefaultWithoutFlag(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "b-suite", SuiteFile{ID: "second"}, sampleQuestions(), nil)
	writeSuite(t, root, "a-suite", SuiteFile{ID: "first"}, sampleQuestions(), nil)

	c, err := New(root, "")
	require.NoError(t, err)
	assert.Equal(t, "first", c.Snapshot().Default.ID)
}

func TestCatalogLoadErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "absent"), "")
		require.Error(t, err)
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
	})

	t.Run("no suites", func(t *testing.T) {
		_, err := New(t.TempDir(), "")
		assert.Error(t, err)
	})

	t.Run("duplicate suite ids", func(t *testing.T) {
		root := t.TempDir()
		writeSuite(t, root, "one", SuiteFile{ID: "same"}, sampleQuestions(), nil)
		writeSuite(t, root, "two", SuiteFile{ID: "same"}, sampleQuestions(), nil)
		_, err := New(root, "")
		assert.Error(t, err)
	})

	t.Run("invalid ad config", func(t *testing.T) {
		root := t.TempDir()
		writeSuite(t, root, "one", SuiteFile{}, sampleQuestions(), nil)
		adPath := filepath.Join(root, "ad.json")
		require.NoError(t, os.WriteFile(adPath, []byte("{"), 0o644))
		_, err := New(root, adPath)
		assert.Error(t, err)
	})
}

func TestCatalogReloadKeepsSnapshotOnFailure(t *testing.T) {
	root := t.TempDir()
	writeSuite(t, root, "alpha", SuiteFile{ID: "alpha"}, sampleQuestions(), nil)

	c, err := New(root, "")
	require.NoError(t, err)

	var notified []uint64
	c.OnReload(func(s *Snapshot) { notified = append(notified, s.Version) })

	writeSuite(t, root, "beta", SuiteFile{ID: "beta"}, sampleQuestions(), nil)
	snap, err := c.Reload()
	require.NoError(t, err)
	assert.Len(t, snap.Suites, 2)
	assert.Equal(t, []uint64{2}, notified)

	require.NoError(t, os.WriteFile(filepath.Join(root, "beta", questionsFile), []byte("not json"), 0o644))
	_, err = c.Reload()
	require.Error(t, err)

	assert.Len(t, c.Snapshot().Suites, 2, "previous snapshot stays active")
	assert.Equal(t, uint64(2), c.Snapshot().Version)
	assert.Equal(t, []uint64{2}, notified)
}

func TestStaticCatalogCannotReload(t *testing.T) {
	suite, err := NewSuite("s", SuiteFile{}, sampleQuestions(), nil)
	require.NoError(t, err)
	snap, err := NewSnapshot([]*Suite{suite}, nil)
	require.NoError(t, err)

	c := NewStatic(snap)
	assert.Same(t, snap, c.Snapshot())
	_, err = c.Reload()
	assert.Error(t, err)
}
