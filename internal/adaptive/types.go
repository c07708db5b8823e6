package adaptive

import "time"

// Topic identifies one of the sixteen math topics covered by the
// placement diagnostic. Values are stable wire strings.
type Topic string

const (
	TopicArithmetic         Topic = "arithmetic"
	TopicFractions          Topic = "fractions"
	TopicPercentages        Topic = "percentages"
	TopicRatios             Topic = "ratios"
	TopicExponents          Topic = "exponents"
	TopicNumberTheory       Topic = "number_theory"
	TopicAlgebra            Topic = "algebra"
	TopicInequalities       Topic = "inequalities"
	TopicSystemsOfEquations Topic = "systems_of_equations"
	TopicPolynomials        Topic = "polynomials"
	TopicFunctions          Topic = "functions"
	TopicGeometry           Topic = "geometry"
	TopicCoordinateGeometry Topic = "coordinate_geometry"
	TopicTrigonometry       Topic = "trigonometry"
	TopicStatistics         Topic = "statistics"
	TopicSetsAndLogic       Topic = "sets_and_logic"
)

// AllTopics lists every topic in curriculum-progression order.
// The index of a topic in this slice defines its curriculum position.
var AllTopics = []Topic{
	TopicArithmetic,
	TopicFractions,
	TopicPercentages,
	TopicRatios,
	TopicExponents,
	TopicNumberTheory,
	TopicAlgebra,
	TopicInequalities,
	TopicSystemsOfEquations,
	TopicPolynomials,
	TopicFunctions,
	TopicGeometry,
	TopicCoordinateGeometry,
	TopicTrigonometry,
	TopicStatistics,
	TopicSetsAndLogic,
}

// SessionStatus is the lifecycle state of a diagnostic session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// MasteryLevel is the human-readable designation derived from a raw
// mastery score.
type MasteryLevel string

const (
	LevelNotAssessed  MasteryLevel = "not_assessed"
	LevelNovice       MasteryLevel = "novice"
	LevelBeginner     MasteryLevel = "beginner"
	LevelIntermediate MasteryLevel = "intermediate"
	LevelAdvanced     MasteryLevel = "advanced"
	LevelExpert       MasteryLevel = "expert"
)

// Config holds the tunable parameters of the placement engine.
type Config struct {
	MinQuestions         int `json:"min_questions"`
	MaxQuestions         int `json:"max_questions"`
	MinQuestionsPerTopic int `json:"min_questions_per_topic"`
	MaxQuestionsPerTopic int `json:"max_questions_per_topic"`

	// Per-topic confidence above which probing stops early.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// Session-wide confidence allowing early termination once the
	// minimum question count is met.
	GlobalConfidenceThreshold float64 `json:"global_confidence_threshold"`

	DifficultyFloor          float64 `json:"difficulty_floor"`
	DifficultyCeiling        float64 `json:"difficulty_ceiling"`
	DefaultInitialDifficulty float64 `json:"default_initial_difficulty"`

	// Assessed topics below this mastery score are flagged as focus topics.
	FocusMasteryThreshold float64 `json:"focus_mastery_threshold"`
}

// DefaultConfig returns the production engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MinQuestions:              15,
		MaxQuestions:              40,
		MinQuestionsPerTopic:      2,
		MaxQuestionsPerTopic:      3,
		ConfidenceThreshold:       0.85,
		GlobalConfidenceThreshold: 0.90,
		DifficultyFloor:           0.05,
		DifficultyCeiling:         0.95,
		DefaultInitialDifficulty:  0.50,
		FocusMasteryThreshold:     0.60,
	}
}

// AnswerRecord is one entry in a topic's probe history.
type AnswerRecord struct {
	QuestionID string  `bson:"question_id" json:"question_id"`
	Difficulty float64 `bson:"difficulty" json:"difficulty"`
	Correct    bool    `bson:"correct" json:"correct"`
}

// TopicAssessment tracks the adaptive estimation state for a single topic.
// The difficulty interval [Low, High] only ever narrows; CurrentDifficulty
// is the midpoint probe.
type TopicAssessment struct {
	Topic Topic `bson:"topic" json:"topic"`

	DifficultyLow     float64 `bson:"difficulty_low" json:"difficulty_low"`
	DifficultyHigh    float64 `bson:"difficulty_high" json:"difficulty_high"`
	CurrentDifficulty float64 `bson:"current_difficulty" json:"current_difficulty"`

	QuestionsAsked   int `bson:"questions_asked" json:"questions_asked"`
	QuestionsCorrect int `bson:"questions_correct" json:"questions_correct"`

	History []AnswerRecord `bson:"history" json:"history"`

	MasteryScore float64 `bson:"mastery_score" json:"mastery_score"`
	Confidence   float64 `bson:"confidence" json:"confidence"`

	IsSettled bool `bson:"is_settled" json:"is_settled"`
}

// Accuracy returns the raw correct/asked ratio (0 when nothing asked).
func (a *TopicAssessment) Accuracy() float64 {
	if a.QuestionsAsked == 0 {
		return 0
	}
	return float64(a.QuestionsCorrect) / float64(a.QuestionsAsked)
}

// Level maps the continuous mastery score to a discrete level.
func (a *TopicAssessment) Level() MasteryLevel {
	if a.QuestionsAsked == 0 {
		return LevelNotAssessed
	}
	return ScoreToLevel(a.MasteryScore)
}

// Settle marks the topic settled. Settlement is monotonic: once set it
// is never cleared.
func (a *TopicAssessment) Settle() {
	a.IsSettled = true
}

// ScoreToLevel converts a 0-1 mastery score to a discrete level.
func ScoreToLevel(score float64) MasteryLevel {
	switch {
	case score < 0.20:
		return LevelNovice
	case score < 0.40:
		return LevelBeginner
	case score < 0.60:
		return LevelIntermediate
	case score < 0.80:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

// PendingQuestion records an issued, not-yet-answered question. The
// correct answer is captured at issue time so correctness checking does
// not depend on the generator being consulted again.
type PendingQuestion struct {
	Topic         Topic   `bson:"topic" json:"topic"`
	Difficulty    float64 `bson:"difficulty" json:"difficulty"`
	CorrectAnswer string  `bson:"correct_answer" json:"correct_answer"`
	AnswerFormat  string  `bson:"answer_format" json:"answer_format"`
}

// DiagnosticSession is the full state of one placement run.
type DiagnosticSession struct {
	SessionID  string        `bson:"_id" json:"session_id"`
	UserID     string        `bson:"user_id" json:"user_id"`
	GradeLevel int           `bson:"grade_level" json:"grade_level"`
	Status     SessionStatus `bson:"status" json:"status"`

	// Per-topic adaptive state; the key set is fixed at creation.
	TopicAssessments map[Topic]*TopicAssessment `bson:"topic_assessments" json:"topic_assessments"`

	// Ordered queue of topics to probe and the scan position within it.
	TopicQueue        []Topic `bson:"topic_queue" json:"topic_queue"`
	CurrentTopicIndex int     `bson:"current_topic_index" json:"current_topic_index"`

	TotalQuestionsAsked int `bson:"total_questions_asked" json:"total_questions_asked"`

	// Issued questions awaiting an answer, keyed by question id.
	PendingQuestions map[string]PendingQuestion `bson:"pending_questions" json:"pending_questions"`

	StartedAt   time.Time  `bson:"started_at" json:"started_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// CurrentTopic returns the topic at the queue pointer, or "" when the
// pointer has run past the queue.
func (s *DiagnosticSession) CurrentTopic() Topic {
	if s.CurrentTopicIndex >= 0 && s.CurrentTopicIndex < len(s.TopicQueue) {
		return s.TopicQueue[s.CurrentTopicIndex]
	}
	return ""
}

// TopicsForGrade returns the subset of topics in scope for a grade, in
// curriculum order. Lower grades only see foundational topics.
func TopicsForGrade(gradeLevel int) []Topic {
	// Grades 1-4: core arithmetic.
	core := []Topic{
		TopicArithmetic,
		TopicFractions,
		TopicPercentages,
		TopicRatios,
	}
	// Grades 5-6: add number sense, basic geometry and statistics.
	intermediate := append(append([]Topic{}, core...),
		TopicExponents,
		TopicNumberTheory,
		TopicGeometry,
		TopicStatistics,
	)
	// Grades 7-8: pre-algebra and coordinate geometry.
	preAlgebra := append(append([]Topic{}, intermediate...),
		TopicAlgebra,
		TopicInequalities,
		TopicCoordinateGeometry,
	)

	switch {
	case gradeLevel <= 4:
		return core
	case gradeLevel <= 6:
		return intermediate
	case gradeLevel <= 8:
		return preAlgebra
	default:
		return append([]Topic{}, AllTopics...)
	}
}

// CurriculumPosition returns the topic's position in [0,1] within the
// curriculum progression (0 = earliest, 1 = latest). Unknown topics
// land in the middle.
func CurriculumPosition(topic Topic) float64 {
	for i, t := range AllTopics {
		if t == topic {
			return float64(i) / float64(len(AllTopics)-1)
		}
	}
	return 0.5
}
