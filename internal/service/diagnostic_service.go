package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"placement-service/internal/adaptive"
	"placement-service/internal/models"
	"placement-service/internal/questions"
	"placement-service/internal/repository"
)

// Service-level sentinel errors, mapped to HTTP statuses by the handlers.
var (
	ErrInvalidGradeLevel  = errors.New("grade_level must be between 1 and 12")
	ErrSessionNotFound    = repository.ErrSessionNotFound
	ErrSessionNotActive   = errors.New("diagnostic session is not in progress")
	ErrQuestionNotPending = errors.New("question is not pending in this session")
)

// minGrade/maxGrade bound the accepted grade levels.
const (
	minGrade = 1
	maxGrade = 12
)

// QuestionGenerator is the external capability the service consumes to
// produce questions. questions.Registry satisfies it.
type QuestionGenerator interface {
	Generate(topic adaptive.Topic, difficulty float64, gradeLevel int) (*models.Question, error)
}

// AnswerOutcome is the response to a submitted answer: correctness plus
// the updated per-topic and session-wide state.
type AnswerOutcome struct {
	IsCorrect           bool                 `json:"is_correct"`
	CorrectAnswer       string               `json:"correct_answer"`
	Topic               adaptive.Topic       `json:"topic"`
	TopicAssessment     adaptive.TopicResult `json:"topic_assessment"`
	TotalQuestionsAsked int                  `json:"total_questions_asked"`
	Progress            float64              `json:"progress"`
}

// DiagnosticService orchestrates adaptive placement sessions: lifecycle,
// question selection, answer ingestion, termination and result assembly.
// It is constructed once by the application wiring and holds no global
// state beyond its injected store.
type DiagnosticService struct {
	store     repository.SessionStore
	generator QuestionGenerator
	engine    *adaptive.Engine
}

// NewDiagnosticService wires the orchestrator. A nil engine selects the
// default configuration.
func NewDiagnosticService(store repository.SessionStore, generator QuestionGenerator, engine *adaptive.Engine) *DiagnosticService {
	if engine == nil {
		engine = adaptive.NewEngine(nil)
	}
	return &DiagnosticService{
		store:     store,
		generator: generator,
		engine:    engine,
	}
}

// Engine exposes the underlying placement engine (used by handlers for
// progress computation).
func (s *DiagnosticService) Engine() *adaptive.Engine {
	return s.engine
}

// StartDiagnostic begins a new placement run for a user. The topic
// scope and per-topic initial difficulties are fixed here and never
// change for the life of the session.
func (s *DiagnosticService) StartDiagnostic(ctx context.Context, userID string, gradeLevel int) (*adaptive.DiagnosticSession, error) {
	if gradeLevel < minGrade || gradeLevel > maxGrade {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGradeLevel, gradeLevel)
	}

	session := s.engine.NewSession(newSessionID(), userID, gradeLevel)
	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	log.Printf("diagnostic started: session=%s user=%s grade=%d topics=%d",
		session.SessionID, userID, gradeLevel, len(session.TopicQueue))
	return session, nil
}

// NextQuestion selects and returns the next adaptive question, or
// (nil, nil) when the diagnostic is finished. Topics without generator
// capability are settled and skipped, never surfaced to the caller.
func (s *DiagnosticService) NextQuestion(ctx context.Context, sessionID string) (*models.Question, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != adaptive.StatusInProgress {
		return nil, fmt.Errorf("%w: session=%s status=%s", ErrSessionNotActive, sessionID, session.Status)
	}

	if s.engine.ShouldTerminate(session) {
		return nil, nil
	}

	// Each failed topic is settled before retrying the scan, so the
	// loop makes progress and is bounded by the queue length.
	for attempt := 0; attempt <= len(session.TopicQueue); attempt++ {
		topic, ok := s.engine.NextTopic(session)
		if !ok {
			// Everything settled while skipping; persist the settlements.
			if err := s.store.Put(ctx, session); err != nil {
				return nil, fmt.Errorf("store session: %w", err)
			}
			return nil, nil
		}

		assessment := session.TopicAssessments[topic]
		question, genErr := s.generateWithRetry(topic, assessment.CurrentDifficulty, session.GradeLevel)
		if genErr != nil {
			log.Printf("no question for topic %s (session=%s): %v; skipping",
				topic, sessionID, genErr)
			assessment.Settle()
			continue
		}

		session.PendingQuestions[question.ID] = adaptive.PendingQuestion{
			Topic:         topic,
			Difficulty:    assessment.CurrentDifficulty,
			CorrectAnswer: question.CorrectAnswer,
			AnswerFormat:  question.AnswerFormat,
		}

		if err := s.store.Put(ctx, session); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
		return question, nil
	}

	return nil, nil
}

// generateWithRetry asks the generator once at the requested probe
// difficulty and, on a transient failure, once more at the default
// difficulty. Capability absence is not retried.
func (s *DiagnosticService) generateWithRetry(topic adaptive.Topic, difficulty float64, gradeLevel int) (*models.Question, error) {
	question, err := s.generator.Generate(topic, difficulty, gradeLevel)
	if err == nil {
		return question, nil
	}
	if errors.Is(err, questions.ErrNoGenerator) {
		return nil, err
	}

	log.Printf("question generation failed for topic=%s difficulty=%.2f: %v; retrying at default",
		topic, difficulty, err)
	return s.generator.Generate(topic, s.engine.Config().DefaultInitialDifficulty, gradeLevel)
}

// SubmitAnswer records an answer for a pending question: correctness
// check, binary-search adjustment, mastery recompute and settlement.
func (s *DiagnosticService) SubmitAnswer(ctx context.Context, sessionID, questionID, answer string) (*AnswerOutcome, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != adaptive.StatusInProgress {
		return nil, fmt.Errorf("%w: session=%s status=%s", ErrSessionNotActive, sessionID, session.Status)
	}

	pending, ok := session.PendingQuestions[questionID]
	if !ok {
		return nil, fmt.Errorf("%w: question=%s session=%s", ErrQuestionNotPending, questionID, sessionID)
	}
	delete(session.PendingQuestions, questionID)

	assessment := session.TopicAssessments[pending.Topic]
	isCorrect := adaptive.AnswersMatch(answer, pending.CorrectAnswer)

	session.TotalQuestionsAsked++
	settled := s.engine.RecordAnswer(assessment, questionID, pending.Difficulty, isCorrect)
	if settled {
		// Resume the topic scan after the topic that just settled.
		session.CurrentTopicIndex++
	}

	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AnswerOutcome{
		IsCorrect:           isCorrect,
		CorrectAnswer:       pending.CorrectAnswer,
		Topic:               pending.Topic,
		TopicAssessment:     s.engine.Snapshot(assessment),
		TotalQuestionsAsked: session.TotalQuestionsAsked,
		Progress:            adaptive.Round3(s.engine.Progress(session)),
	}, nil
}

// CompleteDiagnostic finalizes the session and returns the placement
// result. Completing an already-completed session is idempotent and
// rebuilds the same result from the frozen state.
func (s *DiagnosticService) CompleteDiagnostic(ctx context.Context, sessionID string) (*adaptive.PlacementResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == adaptive.StatusCompleted {
		return s.engine.BuildResult(session), nil
	}
	if session.Status == adaptive.StatusAbandoned {
		return nil, fmt.Errorf("%w: session=%s status=%s", ErrSessionNotActive, sessionID, session.Status)
	}

	now := time.Now().UTC()
	session.Status = adaptive.StatusCompleted
	session.CompletedAt = &now

	// Final estimate refresh for every topic.
	for _, assessment := range session.TopicAssessments {
		s.engine.UpdateEstimate(assessment)
	}

	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	result := s.engine.BuildResult(session)
	log.Printf("diagnostic completed: session=%s user=%s questions=%d overall_mastery=%.2f",
		sessionID, session.UserID, session.TotalQuestionsAsked, result.OverallMastery)
	return result, nil
}

// GetPlacementResult returns a result snapshot at any time. Mid-session
// it reflects the current partial estimates.
func (s *DiagnosticService) GetPlacementResult(ctx context.Context, sessionID string) (*adaptive.PlacementResult, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.BuildResult(session), nil
}

// AbandonDiagnostic marks an in-progress session abandoned. The
// transition is terminal; abandoning twice is a no-op.
func (s *DiagnosticService) AbandonDiagnostic(ctx context.Context, sessionID string) error {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == adaptive.StatusAbandoned {
		return nil
	}
	if session.Status != adaptive.StatusInProgress {
		return fmt.Errorf("%w: session=%s status=%s", ErrSessionNotActive, sessionID, session.Status)
	}

	session.Status = adaptive.StatusAbandoned
	if err := s.store.Put(ctx, session); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	log.Printf("diagnostic abandoned: session=%s user=%s after %d questions",
		sessionID, session.UserID, session.TotalQuestionsAsked)
	return nil
}

// GetSession returns the raw session state, for status endpoints.
func (s *DiagnosticService) GetSession(ctx context.Context, sessionID string) (*adaptive.DiagnosticSession, error) {
	return s.store.Get(ctx, sessionID)
}

// newSessionID produces a short unique identifier like diag-3fa85f64c0de.
func newSessionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "diag-" + hex[:12]
}
