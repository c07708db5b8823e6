package adaptive

import "time"

// Engine implements the binary-search placement algorithm: per-topic
// difficulty interval narrowing, mastery/confidence estimation,
// settlement and session-wide termination.
type Engine struct {
	config *Config
}

// NewEngine creates an engine. A nil config selects the defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

// Config exposes the engine's configuration (read-only by convention).
func (e *Engine) Config() *Config {
	return e.config
}

// NewSession builds a fresh session for a user: one TopicAssessment per
// topic in scope for the grade, each starting at a grade-aware initial
// difficulty inside the full search interval.
func (e *Engine) NewSession(sessionID, userID string, gradeLevel int) *DiagnosticSession {
	topics := TopicsForGrade(gradeLevel)

	assessments := make(map[Topic]*TopicAssessment, len(topics))
	for _, topic := range topics {
		assessments[topic] = &TopicAssessment{
			Topic:             topic,
			DifficultyLow:     e.config.DifficultyFloor,
			DifficultyHigh:    e.config.DifficultyCeiling,
			CurrentDifficulty: e.InitialDifficulty(topic, gradeLevel),
			History:           []AnswerRecord{},
		}
	}

	return &DiagnosticSession{
		SessionID:        sessionID,
		UserID:           userID,
		GradeLevel:       gradeLevel,
		Status:           StatusInProgress,
		TopicAssessments: assessments,
		TopicQueue:       topics,
		PendingQuestions: map[string]PendingQuestion{},
		StartedAt:        time.Now().UTC(),
	}
}

// InitialDifficulty picks the starting probe difficulty for a topic.
// Foundational topics scale up strongly with grade, mid-curriculum topics
// less so, and advanced topics start near medium regardless of grade.
func (e *Engine) InitialDifficulty(topic Topic, gradeLevel int) float64 {
	position := CurriculumPosition(topic)
	gradeFactor := float64(gradeLevel-1) / 11.0

	var initial float64
	switch {
	case position < 0.4:
		initial = 0.30 + 0.40*gradeFactor
	case position < 0.7:
		initial = 0.25 + 0.30*gradeFactor
	default:
		initial = 0.20 + 0.25*gradeFactor
	}

	return clamp(initial, e.config.DifficultyFloor, e.config.DifficultyCeiling)
}

// RecordAnswer applies one answered probe to the owning assessment:
// tallies, binary-search interval adjustment, mastery/confidence
// recompute and the settlement check. Returns true if this answer
// settled the topic.
func (e *Engine) RecordAnswer(a *TopicAssessment, questionID string, difficulty float64, correct bool) bool {
	a.QuestionsAsked++
	if correct {
		a.QuestionsCorrect++
	}
	a.History = append(a.History, AnswerRecord{
		QuestionID: questionID,
		Difficulty: difficulty,
		Correct:    correct,
	})

	e.adjustDifficulty(a, correct)
	e.UpdateEstimate(a)

	if !a.IsSettled && e.isTopicSettled(a) {
		a.Settle()
		return true
	}
	return false
}

// adjustDifficulty narrows the search interval around the current probe.
// A correct answer raises the lower bound (the student handles at least
// this level); an incorrect one lowers the upper bound. The next probe
// is the midpoint of the updated interval.
func (e *Engine) adjustDifficulty(a *TopicAssessment, correct bool) {
	current := a.CurrentDifficulty

	if correct {
		if current > a.DifficultyLow {
			a.DifficultyLow = current
		}
	} else {
		if current < a.DifficultyHigh {
			a.DifficultyHigh = current
		}
	}

	a.CurrentDifficulty = (a.DifficultyLow + a.DifficultyHigh) / 2
}

// UpdateEstimate recomputes the mastery score and confidence.
//
// Mastery is the interval midpoint blended by accuracy: low accuracy
// pulls the estimate toward 0, perfect accuracy leaves it at the
// midpoint-to-ceiling blend. Confidence combines sample size (plateaus
// at three questions) with interval convergence.
func (e *Engine) UpdateEstimate(a *TopicAssessment) {
	if a.QuestionsAsked == 0 {
		a.MasteryScore = 0
		a.Confidence = 0
		return
	}

	intervalMid := (a.DifficultyLow + a.DifficultyHigh) / 2
	intervalWidth := a.DifficultyHigh - a.DifficultyLow

	mastery := intervalMid * (0.5 + 0.5*a.Accuracy())
	a.MasteryScore = clamp(mastery, 0, 1)

	countConfidence := float64(a.QuestionsAsked) / 3.0
	if countConfidence > 1 {
		countConfidence = 1
	}

	maxInterval := e.config.DifficultyCeiling - e.config.DifficultyFloor
	convergenceConfidence := 1 - intervalWidth/maxInterval

	a.Confidence = 0.4*countConfidence + 0.6*convergenceConfidence
}

// isTopicSettled reports whether enough evidence has been gathered:
// the per-topic cap is reached, or the minimum is met with confidence
// above the threshold.
func (e *Engine) isTopicSettled(a *TopicAssessment) bool {
	if a.QuestionsAsked >= e.config.MaxQuestionsPerTopic {
		return true
	}
	return a.QuestionsAsked >= e.config.MinQuestionsPerTopic &&
		a.Confidence >= e.config.ConfidenceThreshold
}

// RecommendedDifficulty is the suggested starting difficulty for regular
// practice after placement: slightly below the estimated mastery boundary
// so the student lands in their zone of proximal development.
func (e *Engine) RecommendedDifficulty(a *TopicAssessment) float64 {
	rec := a.MasteryScore - 0.10
	if rec < e.config.DifficultyFloor {
		return e.config.DifficultyFloor
	}
	return rec
}

// NextTopic scans the topic queue from the current index, wrapping at
// most once, and returns the first unsettled topic. The queue pointer
// is moved to the returned topic. Returns false when every topic is
// settled.
func (e *Engine) NextTopic(s *DiagnosticSession) (Topic, bool) {
	n := len(s.TopicQueue)
	if n == 0 {
		return "", false
	}

	start := s.CurrentTopicIndex
	for offset := 0; offset < n; offset++ {
		idx := (start + offset) % n
		topic := s.TopicQueue[idx]
		if a, ok := s.TopicAssessments[topic]; ok && !a.IsSettled {
			s.CurrentTopicIndex = idx
			return topic, true
		}
	}
	return "", false
}

// ShouldTerminate decides whether the diagnostic is finished: the
// global cap is reached, or all topics are settled with the minimum
// met, or every probed topic has high confidence with the minimum met.
func (e *Engine) ShouldTerminate(s *DiagnosticSession) bool {
	if s.TotalQuestionsAsked >= e.config.MaxQuestions {
		return true
	}

	allSettled := true
	for _, a := range s.TopicAssessments {
		if !a.IsSettled {
			allSettled = false
			break
		}
	}
	if allSettled && s.TotalQuestionsAsked >= e.config.MinQuestions {
		return true
	}

	if s.TotalQuestionsAsked >= e.config.MinQuestions {
		probed := 0
		confident := 0
		for _, a := range s.TopicAssessments {
			if a.QuestionsAsked > 0 {
				probed++
				if a.Confidence >= e.config.GlobalConfidenceThreshold {
					confident++
				}
			}
		}
		if probed > 0 && probed == confident {
			return true
		}
	}

	return false
}

// Progress returns a rough 0-1 completion indicator for the session.
func (e *Engine) Progress(s *DiagnosticSession) float64 {
	if e.config.MaxQuestions == 0 {
		return 1
	}
	p := float64(s.TotalQuestionsAsked) / float64(e.config.MaxQuestions)
	if p > 1 {
		return 1
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
