package width

import (
	"strings"

	"github.com/synthesiscore/core/pkg/models"
)

// DecompositionAcceptThreshold is the "Decomposition
// validation" acceptance bar.
const DecompositionAcceptThreshold = 0.7

// decompositionScore is a crude lexical-overlap proxy: the fraction of
// each sub-question's distinctive words (length > 3) that appear in the
// composite question, averaged across sub-questions.
func decompositionScore(composite models.CompositeTask) float64 {
	compositeLower := strings.ToLower(composite.Question)
	if len(composite.OriginalQuestions) == 0 {
		return 0
	}

	total := 0.0
	for _, q := range composite.OriginalQuestions {
		words := strings.Fields(strings.ToLower(q))
		matched, counted := 0, 0
		for _, w := range words {
			if len(w) <= 3 {
				continue
			}
			counted++
			if strings.Contains(compositeLower, w) {
				matched++
			}
		}
		if counted == 0 {
			total += 1
			continue
		}
		total += float64(matched) / float64(counted)
	}
	return total / float64(len(composite.OriginalQuestions))
}

// complexityScore scales with the number of fused sub-questions, min'd
// at 1.
func complexityScore(composite models.CompositeTask) float64 {
	score := 0.3 + 0.2*float64(len(composite.OriginalQuestions))
	if score > 1 {
		score = 1
	}
	return score
}

// executabilityScore is computed by rule from question-length,
// tool-count, sub-task-count, and answer-count parity.
func executabilityScore(composite models.CompositeTask) float64 {
	score := 0.0
	if len(composite.Question) >= 40 {
		score += 0.25
	}
	if len(composite.ExpectedTools) >= 1 {
		score += 0.25
	}
	if len(composite.OriginalQuestions) >= 2 {
		score += 0.25
	}
	if len(composite.GoldenAnswers) == len(composite.OriginalQuestions) {
		score += 0.25
	}
	return score
}

// ValidateDecomposition reports the weighted sum (decomposition 0.4,
// complexity 0.3, executability 0.3) and whether it clears
// DecompositionAcceptThreshold.
func ValidateDecomposition(composite models.CompositeTask) (score float64, accepted bool) {
	score = 0.4*decompositionScore(composite) + 0.3*complexityScore(composite) + 0.3*executabilityScore(composite)
	return score, score >= DecompositionAcceptThreshold
}
