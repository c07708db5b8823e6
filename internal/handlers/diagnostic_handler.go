package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"placement-service/internal/adaptive"
	"placement-service/internal/event"
	"placement-service/internal/service"
)

type DiagnosticHandler struct {
	Service   *service.DiagnosticService
	Publisher event.Publisher
}

func NewDiagnosticHandler(s *service.DiagnosticService, p event.Publisher) *DiagnosticHandler {
	return &DiagnosticHandler{
		Service:   s,
		Publisher: p,
	}
}

// publish emits a lifecycle event best-effort. Delivery failures never
// affect the API response.
func (h *DiagnosticHandler) publish(eventType string, payload interface{}) {
	if h.Publisher == nil {
		return
	}
	_ = h.Publisher.Publish(eventType, payload)
}

// StartDiagnostic creates a new placement session for a user and grade.
func (h *DiagnosticHandler) StartDiagnostic(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id" binding:"required"`
		GradeLevel int    `json:"grade_level" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Service.StartDiagnostic(context.Background(), req.UserID, req.GradeLevel)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGradeLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start diagnostic",
			"details": err.Error(),
		})
		return
	}

	h.publish(event.SessionStarted, gin.H{
		"session_id":  session.SessionID,
		"user_id":     session.UserID,
		"grade_level": session.GradeLevel,
		"topic_count": len(session.TopicQueue),
	})

	c.JSON(http.StatusCreated, gin.H{
		"session_id":  session.SessionID,
		"user_id":     session.UserID,
		"grade_level": session.GradeLevel,
		"status":      session.Status,
		"topics":      session.TopicQueue,
		"started_at":  session.StartedAt,
		"next_step":   "Call /next to get the first question",
	})
}

// NextQuestion returns the next adaptive question, or a completion
// marker when the diagnostic has nothing left to ask.
func (h *DiagnosticHandler) NextQuestion(c *gin.Context) {
	sessionID := c.Param("id")

	question, err := h.Service.NextQuestion(context.Background(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if question == nil {
		c.JSON(http.StatusOK, gin.H{
			"completed": true,
			"message":   "Diagnostic finished; call /complete for the placement result",
		})
		return
	}

	h.publish(event.QuestionIssued, gin.H{
		"session_id":  sessionID,
		"question_id": question.ID,
		"topic":       question.Topic,
		"difficulty":  question.DifficultyScore,
	})

	c.JSON(http.StatusOK, gin.H{
		"completed": false,
		"question":  question,
	})
}

// SubmitAnswer grades a pending question and returns the updated
// topic assessment.
func (h *DiagnosticHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		UserAnswer string `json:"user_answer" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.SubmitAnswer(context.Background(), sessionID, req.QuestionID, req.UserAnswer)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.publish(event.AnswerSubmitted, gin.H{
		"session_id":  sessionID,
		"question_id": req.QuestionID,
		"topic":       outcome.Topic,
		"is_correct":  outcome.IsCorrect,
	})

	c.JSON(http.StatusOK, outcome)
}

// CompleteDiagnostic finalizes the session and returns the placement
// result. Safe to call repeatedly.
func (h *DiagnosticHandler) CompleteDiagnostic(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := h.Service.CompleteDiagnostic(context.Background(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.publish(event.SessionCompleted, gin.H{
		"session_id":      sessionID,
		"user_id":         result.UserID,
		"overall_mastery": result.OverallMastery,
		"total_questions": result.TotalQuestions,
	})

	c.JSON(http.StatusOK, result)
}

// GetPlacementResult returns a result snapshot without changing state.
func (h *DiagnosticHandler) GetPlacementResult(c *gin.Context) {
	sessionID := c.Param("id")

	result, err := h.Service.GetPlacementResult(context.Background(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AbandonDiagnostic terminally marks a session abandoned.
func (h *DiagnosticHandler) AbandonDiagnostic(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.Service.AbandonDiagnostic(context.Background(), sessionID); err != nil {
		h.writeError(c, err)
		return
	}

	h.publish(event.SessionAbandoned, gin.H{"session_id": sessionID})

	c.JSON(http.StatusOK, gin.H{"message": "Session abandoned"})
}

// GetSession returns the session state with a progress summary.
func (h *DiagnosticHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.Service.GetSession(context.Background(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":       session,
		"current_topic": session.CurrentTopic(),
		"progress":      adaptive.Round3(h.Service.Engine().Progress(session)),
	})
}

// writeError maps service sentinel errors to HTTP statuses.
func (h *DiagnosticHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrQuestionNotPending):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidGradeLevel):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
