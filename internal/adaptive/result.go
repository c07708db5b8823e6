package adaptive

import (
	"math"
	"sort"
	"time"
)

// TopicResult is the API-facing snapshot of one topic's assessment.
type TopicResult struct {
	Topic                 Topic        `json:"topic"`
	MasteryScore          float64      `json:"mastery_score"`
	MasteryLevel          MasteryLevel `json:"mastery_level"`
	Confidence            float64      `json:"confidence"`
	QuestionsAsked        int          `json:"questions_asked"`
	QuestionsCorrect      int          `json:"questions_correct"`
	Accuracy              float64      `json:"accuracy"`
	RecommendedDifficulty float64      `json:"recommended_difficulty"`
	IsSettled             bool         `json:"is_settled"`
}

// PlacementResult is the read-only summary of a diagnostic session.
// It can be built mid-session (reflecting partial data) or after
// completion.
type PlacementResult struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	GradeLevel int    `json:"grade_level"`

	OverallMastery  float64 `json:"overall_mastery"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	TotalQuestions  int     `json:"total_questions"`
	TotalCorrect    int     `json:"total_correct"`

	TopicResults            map[Topic]TopicResult `json:"topic_results"`
	RecommendedDifficulties map[Topic]float64     `json:"recommended_difficulties"`

	// Focus topics: assessed topics with mastery below the focus
	// threshold, lowest mastery first.
	FocusTopics []Topic `json:"focus_topics"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BuildResult assembles a PlacementResult from the current session
// state. Topics that were never probed carry zero mastery and are
// excluded from the overall mastery average.
func (e *Engine) BuildResult(s *DiagnosticSession) *PlacementResult {
	totalQuestions := 0
	totalCorrect := 0
	masterySum := 0.0
	assessedCount := 0

	topicResults := make(map[Topic]TopicResult, len(s.TopicAssessments))
	recommended := make(map[Topic]float64, len(s.TopicAssessments))

	for topic, a := range s.TopicAssessments {
		snapshot := e.Snapshot(a)
		topicResults[topic] = snapshot
		recommended[topic] = snapshot.RecommendedDifficulty

		totalQuestions += a.QuestionsAsked
		totalCorrect += a.QuestionsCorrect
		if a.QuestionsAsked > 0 {
			masterySum += a.MasteryScore
			assessedCount++
		}
	}

	overallMastery := 0.0
	if assessedCount > 0 {
		overallMastery = masterySum / float64(assessedCount)
	}
	overallAccuracy := 0.0
	if totalQuestions > 0 {
		overallAccuracy = float64(totalCorrect) / float64(totalQuestions)
	}

	return &PlacementResult{
		SessionID:               s.SessionID,
		UserID:                  s.UserID,
		GradeLevel:              s.GradeLevel,
		OverallMastery:          Round3(overallMastery),
		OverallAccuracy:         Round3(overallAccuracy),
		TotalQuestions:          totalQuestions,
		TotalCorrect:            totalCorrect,
		TopicResults:            topicResults,
		RecommendedDifficulties: recommended,
		FocusTopics:             e.focusTopics(s),
		CompletedAt:             s.CompletedAt,
	}
}

// Snapshot freezes one topic assessment into its API representation,
// with scores rounded for the wire.
func (e *Engine) Snapshot(a *TopicAssessment) TopicResult {
	return TopicResult{
		Topic:                 a.Topic,
		MasteryScore:          Round3(a.MasteryScore),
		MasteryLevel:          a.Level(),
		Confidence:            Round3(a.Confidence),
		QuestionsAsked:        a.QuestionsAsked,
		QuestionsCorrect:      a.QuestionsCorrect,
		Accuracy:              Round3(a.Accuracy()),
		RecommendedDifficulty: Round3(e.RecommendedDifficulty(a)),
		IsSettled:             a.IsSettled,
	}
}

// focusTopics filters assessed topics whose mastery is below the focus
// threshold, sorted ascending by mastery. The filter is deliberately
// explicit: questions_asked > 0 and mastery_score < threshold.
func (e *Engine) focusTopics(s *DiagnosticSession) []Topic {
	type scored struct {
		topic   Topic
		mastery float64
	}

	var assessed []scored
	for topic, a := range s.TopicAssessments {
		if a.QuestionsAsked > 0 && a.MasteryScore < e.config.FocusMasteryThreshold {
			assessed = append(assessed, scored{topic: topic, mastery: a.MasteryScore})
		}
	}

	sort.Slice(assessed, func(i, j int) bool {
		if assessed[i].mastery != assessed[j].mastery {
			return assessed[i].mastery < assessed[j].mastery
		}
		return assessed[i].topic < assessed[j].topic
	})

	focus := make([]Topic, 0, len(assessed))
	for _, sc := range assessed {
		focus = append(focus, sc.topic)
	}
	return focus
}

// Round3 rounds to three decimals for API payloads.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
