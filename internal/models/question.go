package models

import (
	"time"

	"placement-service/internal/adaptive"
)

// AnswerFormat describes the expected shape of a question's answer.
const (
	FormatInteger    = "integer"
	FormatDecimal    = "decimal"
	FormatFraction   = "fraction"
	FormatExpression = "expression"
)

// Question is a generated diagnostic question. The correct answer is
// never serialized to clients; it travels only through the session's
// pending-question registry.
type Question struct {
	ID              string         `bson:"_id,omitempty" json:"question_id"`
	Topic           adaptive.Topic `bson:"topic" json:"topic"`
	Expression      string         `bson:"expression" json:"expression"`
	ExpressionLaTeX string         `bson:"expression_latex,omitempty" json:"expression_latex,omitempty"`
	CorrectAnswer   string         `bson:"correct_answer" json:"-"`
	AnswerFormat    string         `bson:"answer_format" json:"answer_format"`
	Options         []string       `bson:"options,omitempty" json:"options,omitempty"`
	DifficultyScore float64        `bson:"difficulty_score" json:"difficulty_score"`
	DifficultyTier  string         `bson:"difficulty_tier" json:"difficulty_tier"`
	GradeLevel      int            `bson:"grade_level" json:"grade_level"`
	CreatedAt       time.Time      `bson:"created_at" json:"created_at"`
}

// DifficultyTiers in ascending order with their score lower bounds.
var difficultyTiers = []struct {
	name  string
	bound float64
}{
	{"novice", 0.0},
	{"beginner", 0.2},
	{"intermediate", 0.4},
	{"advanced", 0.6},
	{"expert", 0.8},
}

// TierForScore maps a 0-1 difficulty score to its tier name.
func TierForScore(score float64) string {
	tier := difficultyTiers[0].name
	for _, t := range difficultyTiers {
		if score >= t.bound {
			tier = t.name
		}
	}
	return tier
}

// EnsureTier populates DifficultyTier from DifficultyScore if unset.
func (q *Question) EnsureTier() {
	if q.DifficultyTier == "" {
		q.DifficultyTier = TierForScore(q.DifficultyScore)
	}
}
