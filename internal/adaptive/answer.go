package adaptive

import (
	"math"
	"strconv"
	"strings"
)

// numericTolerance is the absolute tolerance for decimal comparison.
const numericTolerance = 1e-6

// AnswersMatch compares a submitted answer against the correct one.
// Comparison is deliberately tolerant: exact match first, then numeric
// comparison with a small absolute tolerance (handling "7" vs "7.0"),
// then a case- and whitespace-insensitive string match. Anything that
// cannot be parsed on either side resolves to false, never an error.
func AnswersMatch(userAnswer, correctAnswer string) bool {
	if userAnswer == correctAnswer {
		return true
	}

	userNum, userErr := strconv.ParseFloat(strings.TrimSpace(userAnswer), 64)
	correctNum, correctErr := strconv.ParseFloat(strings.TrimSpace(correctAnswer), 64)
	if userErr == nil && correctErr == nil {
		if math.Abs(userNum-correctNum) < numericTolerance {
			return true
		}
		// Integer comparison handles inputs like "07" vs "7".
		if userNum == math.Trunc(userNum) && correctNum == math.Trunc(correctNum) {
			return int64(userNum) == int64(correctNum)
		}
		return false
	}

	return normalizeAnswer(userAnswer) == normalizeAnswer(correctAnswer)
}

// normalizeAnswer lowercases and strips all whitespace.
func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "")
}
