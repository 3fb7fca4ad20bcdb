package orchestration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyExerciseQuestion(t *testing.T) {
	c := NewClassifier()

	result := c.Classify("What exercise can I do after my surgery?")

	require.Equal(t, CategoryExercise, result.Category)
	require.InDelta(t, 1.0/9.0, result.Confidence, 1e-9)
	require.Equal(t, []string{"exercise"}, result.MatchedKeywords)
}

func TestClassifyNoKeywordsIsGeneral(t *testing.T) {
	c := NewClassifier()

	result := c.Classify("hello")

	require.Equal(t, CategoryGeneral, result.Category)
	require.Zero(t, result.Confidence)
	require.Empty(t, result.MatchedKeywords)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier()
	message := "Is salt bad for my heart rate and my diet?"

	first := c.Classify(message)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, c.Classify(message))
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	c := NewClassifier()

	lower := c.Classify("can i take my medication with food?")
	upper := c.Classify("CAN I TAKE MY MEDICATION WITH FOOD?")

	require.Equal(t, lower, upper)
}

func TestClassifyTieBreaksByPriority(t *testing.T) {
	c := NewClassifier()

	// One medication keyword and one nursing keyword score identically;
	// medication is evaluated first and keeps the tie.
	result := c.Classify("I took a pill but still have pain")
	require.Equal(t, CategoryMedication, result.Category)

	// Full matches on both exercise and diet tie at 1.0; exercise wins.
	full := strings.Join([]string{
		"exercise activity physical walk run gym workout cardio rehab",
		"diet food eat nutrition salt sodium weight meal",
	}, " ")
	result = c.Classify(full)
	require.Equal(t, CategoryExercise, result.Category)
	require.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestClassifyPicksHighestScore(t *testing.T) {
	c := NewClassifier()

	// Two diet keywords against one nursing keyword.
	result := c.Classify("How much salt and sodium can I have with chest issues?")

	require.Equal(t, CategoryDiet, result.Category)
	require.InDelta(t, 2.0/8.0, result.Confidence, 1e-9)
	require.ElementsMatch(t, []string{"salt", "sodium"}, result.MatchedKeywords)
}
