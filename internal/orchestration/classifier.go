package orchestration

import "strings"

// keywordSet binds one routing category to its trigger keywords. Sets are
// evaluated in slice order; on tied scores the earlier set wins.
type keywordSet struct {
	category Category
	keywords []string
}

// Classifier routes message text to a cardiac-care category by keyword
// matching. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	sets []keywordSet
}

// NewClassifier builds a classifier with the cardiac keyword sets. Priority
// on ties is exercise, diet, medication, nursing.
func NewClassifier() *Classifier {
	return &Classifier{
		sets: []keywordSet{
			{CategoryExercise, []string{
				"exercise", "activity", "physical", "walk", "run", "gym",
				"workout", "cardio", "rehab",
			}},
			{CategoryDiet, []string{
				"diet", "food", "eat", "nutrition", "salt", "sodium",
				"weight", "meal",
			}},
			{CategoryMedication, []string{
				"medication", "drug", "pill", "medicine", "dose",
				"prescription", "beta blocker", "ace inhibitor",
			}},
			{CategoryNursing, []string{
				"pain", "symptom", "chest", "shortness", "breath",
				"fatigue", "swelling", "heart rate",
			}},
		},
	}
}

// Classify scores the message against every keyword set and returns the
// best-scoring category. A message matching no keywords classifies as
// general with confidence 0. The result depends only on the message text.
func (c *Classifier) Classify(message string) ClassificationResult {
	lower := strings.ToLower(message)

	best := ClassificationResult{Category: CategoryGeneral}
	for _, set := range c.sets {
		var matched []string
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		score := float64(len(matched)) / float64(len(set.keywords))
		if score > best.Confidence {
			best = ClassificationResult{
				Category:        set.category,
				Confidence:      score,
				MatchedKeywords: matched,
			}
		}
	}
	return best
}
