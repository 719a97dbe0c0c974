package scoring_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/scoring"
)

func str(s string) *string { return &s }
func boolean(b bool) *bool { return &b }

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"  Paris ", "paris"},
		{"<b>New-York</b>", "bnew york b"},
		{"Hello,   World!", "hello world"},
		{"a_b.c;d:e?f(g){h}[i]\"j/k\\l", "a b c d e f g h i j k l"},
		{"\tTabs\nand\r\nnewlines", "tabs and newlines"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, scoring.Normalize(tc.in), "normalize(%q)", tc.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "  A--B  ", "<<x>>", "What?! (really)", "ÀÉÎ  õü", "  ..  "}
	for _, in := range inputs {
		once := scoring.Normalize(in)
		assert.Equal(t, once, scoring.Normalize(once), "input %q", in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, scoring.Similarity("", ""))
	assert.Equal(t, 0.0, scoring.Similarity("abc", ""))
	assert.Equal(t, 0.0, scoring.Similarity("abc", "xyz"))
	assert.Equal(t, 100.0, scoring.Similarity("paris", "paris"))
	// lcs("paris", "parsi") = 4, 200*4/10.
	assert.InDelta(t, 80.0, scoring.Similarity("paris", "parsi"), 1e-9)
	assert.Equal(t, scoring.Similarity("kitten", "sitting"), scoring.Similarity("sitting", "kitten"))
}

func TestFuzzyReflexiveAndMonotonic(t *testing.T) {
	for _, x := range []string{"a", "photosynthesis", "Mitochondria!", "x y z"} {
		assert.True(t, scoring.IsFuzzyCorrect(x, x, 100), x)
	}

	a, b := "photosynthesis", "fotosynthesis"
	ratio := scoring.Ratio(a, b)
	require.True(t, scoring.IsFuzzyCorrect(a, b, ratio))
	for _, lower := range []float64{ratio - 1, 50, 0} {
		assert.True(t, scoring.IsFuzzyCorrect(a, b, lower))
	}
	assert.False(t, scoring.IsFuzzyCorrect(a, b, ratio+0.01))
}

func TestFuzzyTolerance(t *testing.T) {
	assert.True(t, scoring.IsFuzzyCorrect("paris ", "Paris", scoring.DefaultThreshold))
	assert.True(t, scoring.IsFuzzyCorrect("mitochondrion", "mitochondria", scoring.DefaultThreshold))
	assert.False(t, scoring.IsFuzzyCorrect("london", "paris", scoring.DefaultThreshold))
	assert.False(t, scoring.IsFuzzyCorrect("", "paris", scoring.DefaultThreshold))
}

func TestScoreEmptyQuiz(t *testing.T) {
	report, err := scoring.Score(domain.QuizDefinition{Title: "empty"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Percentage)
	assert.NotNil(t, report.FillInTheBlanks)
	assert.NotNil(t, report.TrueFalse)
	assert.NotNil(t, report.MCQs)
	assert.Empty(t, report.FillInTheBlanks)
	assert.Empty(t, report.TrueFalse)
	assert.Empty(t, report.MCQs)
}

func TestScoreExactMCQ(t *testing.T) {
	def := domain.QuizDefinition{
		MCQs: []domain.MultipleChoice{{Question: str("2+2?"), Options: []string{"3", "4", "5"}, Answer: str("4")}},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{"mcq_0": "4"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Percentage)
	require.Len(t, report.MCQs, 1)
	assert.True(t, report.MCQs[0].IsCorrect)
	assert.Equal(t, []string{"3", "4", "5"}, report.MCQs[0].Options)
}

func TestScoreMCQIsExact(t *testing.T) {
	def := domain.QuizDefinition{
		MCQs: []domain.MultipleChoice{{Question: str("Capital?"), Options: []string{"Paris", "Rome"}, Answer: str("Paris")}},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{"mcq_0": "paris"})
	require.NoError(t, err)
	assert.False(t, report.MCQs[0].IsCorrect)
	assert.Equal(t, 0.0, report.Percentage)
}

func TestScoreFuzzyFillInTheBlank(t *testing.T) {
	def := domain.QuizDefinition{
		FillInTheBlanks: []domain.FillInTheBlank{{Question: str("Capital of France?"), Answer: str("Paris")}},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{"fib_0": "paris "})
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Percentage)
	assert.True(t, report.FillInTheBlanks[0].IsCorrect)
	assert.Equal(t, "paris", report.FillInTheBlanks[0].UserAnswer)
}

func TestScoreTrueFalseAbsentAnswer(t *testing.T) {
	def := domain.QuizDefinition{
		TrueFalse: []domain.TrueFalse{
			{Question: str("Sky is blue"), Answer: boolean(true)},
			{Question: str("Fire is cold"), Answer: boolean(false)},
		},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{})
	require.NoError(t, err)
	require.Len(t, report.TrueFalse, 2)
	for _, res := range report.TrueFalse {
		assert.False(t, res.IsCorrect)
		assert.False(t, res.Answered)
	}
}

func TestScoreTrueFalseCaseInsensitive(t *testing.T) {
	def := domain.QuizDefinition{
		TrueFalse: []domain.TrueFalse{
			{Question: str("Sky is blue"), Answer: boolean(true)},
			{Question: str("Fire is cold"), Answer: boolean(false)},
		},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{"tf_0": "TRUE", "tf_1": "no"})
	require.NoError(t, err)
	assert.True(t, report.TrueFalse[0].IsCorrect)
	assert.True(t, report.TrueFalse[1].IsCorrect)
	assert.Equal(t, 100.0, report.Percentage)
}

func TestScoreMixedPartialCredit(t *testing.T) {
	def := domain.QuizDefinition{
		FillInTheBlanks: []domain.FillInTheBlank{{Question: str("Largest planet?"), Answer: str("Jupiter")}},
		TrueFalse:       []domain.TrueFalse{{Question: str("Water boils at 100C"), Answer: boolean(true)}},
		MCQs:            []domain.MultipleChoice{{Question: str("2+2?"), Options: []string{"3", "4"}, Answer: str("4")}},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{"fib_0": "jupiter", "tf_0": "false", "mcq_0": "4"})
	require.NoError(t, err)
	assert.Equal(t, 66.67, report.Percentage)
	assert.Equal(t, 2, report.Correct)
	assert.Equal(t, 3, report.Total)

	sections := report.Sections()
	require.Len(t, sections, 3)
	assert.Equal(t, domain.SectionSummary{Kind: domain.KindTrueFalse, Correct: 0, Total: 1}, sections[1])
}

func TestScoreKeepsDefinitionOrder(t *testing.T) {
	def := domain.QuizDefinition{
		FillInTheBlanks: []domain.FillInTheBlank{
			{Question: str("first"), Answer: str("a")},
			{Question: str("second"), Answer: str("b")},
			{Question: str("third"), Answer: str("c")},
		},
	}
	report, err := scoring.Score(def, domain.SubmittedAnswers{"fib_2": "c"})
	require.NoError(t, err)
	got := []string{report.FillInTheBlanks[0].Question, report.FillInTheBlanks[1].Question, report.FillInTheBlanks[2].Question}
	assert.Equal(t, []string{"first", "second", "third"}, got)
	assert.Equal(t, 33.33, report.Percentage)
}

func TestScoreRejectsMalformedDefinition(t *testing.T) {
	def := domain.QuizDefinition{
		FillInTheBlanks: []domain.FillInTheBlank{{Question: str("ok"), Answer: str("ok")}},
		MCQs: []domain.MultipleChoice{
			{Question: str("ok"), Options: []string{"a"}, Answer: str("a")},
			{Question: str("no answer"), Options: []string{"a"}},
		},
	}
	_, err := scoring.Score(def, nil)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, domain.KindMultipleChoice, vErr.Kind)
	assert.Equal(t, 1, vErr.Index)
	assert.Equal(t, "answer", vErr.Field)
}

func TestScoreBounds(t *testing.T) {
	def := domain.QuizDefinition{
		FillInTheBlanks: []domain.FillInTheBlank{{Question: str("q"), Answer: str("answer")}},
		TrueFalse:       []domain.TrueFalse{{Question: str("q"), Answer: boolean(false)}},
		MCQs:            []domain.MultipleChoice{{Question: str("q"), Options: []string{"x"}, Answer: str("x")}},
	}
	submissions := []domain.SubmittedAnswers{
		nil,
		{"fib_0": "answer", "tf_0": "false", "mcq_0": "x"},
		{"fib_0": "zzz", "tf_0": "true", "mcq_0": "y", "extra_9": "ignored"},
	}
	for _, answers := range submissions {
		report, err := scoring.Score(def, answers)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.Percentage, 0.0)
		assert.LessOrEqual(t, report.Percentage, 100.0)
	}
}

func TestScorerThreshold(t *testing.T) {
	def := domain.QuizDefinition{
		FillInTheBlanks: []domain.FillInTheBlank{{Question: str("Spell it"), Answer: str("necessary")}},
	}
	answers := domain.SubmittedAnswers{"fib_0": "neccesary"}

	strict, err := scoring.NewScorer(scoring.WithThreshold(100)).Score(def, answers)
	require.NoError(t, err)
	assert.False(t, strict.FillInTheBlanks[0].IsCorrect)

	lenient, err := scoring.NewScorer(scoring.WithThreshold(80)).Score(def, answers)
	require.NoError(t, err)
	assert.True(t, lenient.FillInTheBlanks[0].IsCorrect)
}
