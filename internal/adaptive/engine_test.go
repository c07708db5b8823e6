package adaptive

import (
	"fmt"
	"math"
	"testing"
)

// Helper function for absolute value
func abs(x float64) float64 {
	return math.Abs(x)
}

func TestInitialDifficulty(t *testing.T) {
	engine := NewEngine(nil) // Use default config

	testCases := []struct {
		name     string
		topic    Topic
		grade    int
		expected float64
	}{
		// Foundational band: 0.30 + 0.40 * (grade-1)/11
		{"arithmetic grade 1", TopicArithmetic, 1, 0.30},
		{"arithmetic grade 5", TopicArithmetic, 5, 0.30 + 0.40*4.0/11.0},
		{"arithmetic grade 12", TopicArithmetic, 12, 0.70},
		{"ratios grade 5", TopicRatios, 5, 0.30 + 0.40*4.0/11.0},
		// Mid-curriculum band: 0.25 + 0.30 * gradeFactor
		{"algebra grade 8", TopicAlgebra, 8, 0.25 + 0.30*7.0/11.0},
		{"functions grade 6", TopicFunctions, 6, 0.25 + 0.30*5.0/11.0},
		// Advanced band: 0.20 + 0.25 * gradeFactor
		{"trigonometry grade 9", TopicTrigonometry, 9, 0.20 + 0.25*8.0/11.0},
		{"sets and logic grade 12", TopicSetsAndLogic, 12, 0.45},
	}

	epsilon := 1e-9
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.InitialDifficulty(tc.topic, tc.grade)
			if abs(got-tc.expected) > epsilon {
				t.Errorf("Expected initial difficulty %.6f, got %.6f", tc.expected, got)
			}
			if got < engine.Config().DifficultyFloor || got > engine.Config().DifficultyCeiling {
				t.Errorf("Initial difficulty %.4f outside [floor, ceiling]", got)
			}
		})
	}
}

func TestRecordAnswer_CorrectRaisesLowerBound(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	a := session.TopicAssessments[TopicArithmetic]
	initial := a.CurrentDifficulty

	engine.RecordAnswer(a, "q1", initial, true)

	if abs(a.DifficultyLow-initial) > 1e-9 {
		t.Errorf("Expected lower bound raised to %.4f, got %.4f", initial, a.DifficultyLow)
	}
	expectedNext := (initial + 0.95) / 2
	if abs(a.CurrentDifficulty-expectedNext) > 1e-9 {
		t.Errorf("Expected next probe %.4f, got %.4f", expectedNext, a.CurrentDifficulty)
	}
	if a.CurrentDifficulty <= initial {
		t.Error("Probe should move up after a correct answer")
	}
}

func TestRecordAnswer_TwoWrongAnswersShrinkUpperBound(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	a := session.TopicAssessments[TopicArithmetic]
	firstProbe := a.CurrentDifficulty

	engine.RecordAnswer(a, "q1", firstProbe, false)
	if abs(a.DifficultyHigh-firstProbe) > 1e-9 {
		t.Errorf("Expected upper bound lowered to %.4f, got %.4f", firstProbe, a.DifficultyHigh)
	}
	secondProbe := a.CurrentDifficulty
	if secondProbe >= firstProbe {
		t.Errorf("Probe should drop after wrong answer: %.4f -> %.4f", firstProbe, secondProbe)
	}

	engine.RecordAnswer(a, "q2", secondProbe, false)
	if abs(a.DifficultyHigh-secondProbe) > 1e-9 {
		t.Errorf("Expected upper bound lowered to %.4f, got %.4f", secondProbe, a.DifficultyHigh)
	}
	if a.CurrentDifficulty >= secondProbe {
		t.Errorf("Probe should keep dropping: %.4f -> %.4f", secondProbe, a.CurrentDifficulty)
	}
}

func TestRecordAnswer_IntervalOnlyNarrows(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 7)

	// Alternating answers across several topics; the interval must never
	// widen and the probe must always sit inside it.
	for i, topic := range session.TopicQueue {
		a := session.TopicAssessments[topic]
		correct := i%2 == 0
		for q := 0; q < 3; q++ {
			prevLow, prevHigh := a.DifficultyLow, a.DifficultyHigh
			engine.RecordAnswer(a, fmt.Sprintf("q-%s-%d", topic, q), a.CurrentDifficulty, correct)
			correct = !correct

			if a.DifficultyLow < prevLow-1e-9 {
				t.Fatalf("topic %s: lower bound widened %.4f -> %.4f", topic, prevLow, a.DifficultyLow)
			}
			if a.DifficultyHigh > prevHigh+1e-9 {
				t.Fatalf("topic %s: upper bound widened %.4f -> %.4f", topic, prevHigh, a.DifficultyHigh)
			}
			if a.CurrentDifficulty < a.DifficultyLow-1e-9 || a.CurrentDifficulty > a.DifficultyHigh+1e-9 {
				t.Fatalf("topic %s: probe %.4f outside [%.4f, %.4f]",
					topic, a.CurrentDifficulty, a.DifficultyLow, a.DifficultyHigh)
			}
			if a.MasteryScore < 0 || a.MasteryScore > 1 {
				t.Fatalf("topic %s: mastery %.4f out of range", topic, a.MasteryScore)
			}
			if a.Confidence < 0 || a.Confidence > 1 {
				t.Fatalf("topic %s: confidence %.4f out of range", topic, a.Confidence)
			}
		}
	}
}

func TestUpdateEstimate(t *testing.T) {
	engine := NewEngine(nil)

	testCases := []struct {
		name            string
		asked           int
		correct         int
		low             float64
		high            float64
		expectedMastery float64
	}{
		{"unprobed topic is zero", 0, 0, 0.05, 0.95, 0},
		{"perfect accuracy keeps midpoint", 2, 2, 0.50, 0.70, 0.60},
		{"half accuracy scales by 0.75", 2, 1, 0.50, 0.70, 0.45},
		{"zero accuracy halves midpoint", 3, 0, 0.10, 0.30, 0.10},
	}

	epsilon := 1e-9
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := &TopicAssessment{
				Topic:            TopicFractions,
				QuestionsAsked:   tc.asked,
				QuestionsCorrect: tc.correct,
				DifficultyLow:    tc.low,
				DifficultyHigh:   tc.high,
			}
			engine.UpdateEstimate(a)
			if abs(a.MasteryScore-tc.expectedMastery) > epsilon {
				t.Errorf("Expected mastery %.4f, got %.4f", tc.expectedMastery, a.MasteryScore)
			}
		})
	}
}

func TestConfidenceFormula(t *testing.T) {
	engine := NewEngine(nil)

	a := &TopicAssessment{
		Topic:            TopicGeometry,
		QuestionsAsked:   2,
		QuestionsCorrect: 2,
		DifficultyLow:    0.50,
		DifficultyHigh:   0.68,
	}
	engine.UpdateEstimate(a)

	// 0.4 * (2/3) + 0.6 * (1 - 0.18/0.90)
	expected := 0.4*(2.0/3.0) + 0.6*0.8
	if abs(a.Confidence-expected) > 1e-9 {
		t.Errorf("Expected confidence %.6f, got %.6f", expected, a.Confidence)
	}
}

func TestTopicSettlement(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("three questions always settle", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 3)
		a := session.TopicAssessments[TopicArithmetic]

		settled := engine.RecordAnswer(a, "q1", a.CurrentDifficulty, true)
		if settled {
			t.Fatal("Topic should not settle after one question")
		}
		engine.RecordAnswer(a, "q2", a.CurrentDifficulty, false)
		settled = engine.RecordAnswer(a, "q3", a.CurrentDifficulty, true)
		if !settled {
			t.Error("Topic should settle at the per-topic question cap")
		}
		if !a.IsSettled {
			t.Error("IsSettled flag should be set")
		}
	})

	t.Run("two questions settle with converged interval", func(t *testing.T) {
		a := &TopicAssessment{
			Topic:             TopicFractions,
			DifficultyLow:     0.50,
			DifficultyHigh:    0.52,
			CurrentDifficulty: 0.51,
			QuestionsAsked:    1,
			QuestionsCorrect:  1,
		}
		settled := engine.RecordAnswer(a, "q2", a.CurrentDifficulty, true)
		if !settled {
			t.Errorf("Expected settlement at 2 questions with confidence %.4f", a.Confidence)
		}
	})

	t.Run("settlement is monotonic", func(t *testing.T) {
		a := &TopicAssessment{
			Topic:             TopicRatios,
			DifficultyLow:     0.05,
			DifficultyHigh:    0.95,
			CurrentDifficulty: 0.50,
		}
		a.Settle()
		engine.RecordAnswer(a, "late", a.CurrentDifficulty, false)
		if !a.IsSettled {
			t.Error("IsSettled must never revert once set")
		}
	})
}

func TestRecommendedDifficulty(t *testing.T) {
	engine := NewEngine(nil)

	testCases := []struct {
		name     string
		mastery  float64
		expected float64
	}{
		{"above floor", 0.60, 0.50},
		{"near floor clamps", 0.10, 0.05},
		{"zero mastery clamps", 0.0, 0.05},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := &TopicAssessment{MasteryScore: tc.mastery}
			got := engine.RecommendedDifficulty(a)
			if abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected %.4f, got %.4f", tc.expected, got)
			}
		})
	}
}

func TestNextTopic(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 3)

	topic, ok := engine.NextTopic(session)
	if !ok || topic != TopicArithmetic {
		t.Fatalf("Expected arithmetic first, got %q (ok=%v)", topic, ok)
	}

	// Settle the first topic; the scan should advance to fractions even
	// though the pointer still sits on arithmetic.
	session.TopicAssessments[TopicArithmetic].Settle()
	topic, ok = engine.NextTopic(session)
	if !ok || topic != TopicFractions {
		t.Fatalf("Expected fractions after arithmetic settled, got %q (ok=%v)", topic, ok)
	}

	// Settle an out-of-order topic and verify the wrap-once scan skips it.
	session.TopicAssessments[TopicPercentages].Settle()
	session.TopicAssessments[TopicFractions].Settle()
	topic, ok = engine.NextTopic(session)
	if !ok || topic != TopicRatios {
		t.Fatalf("Expected ratios as last unsettled topic, got %q (ok=%v)", topic, ok)
	}

	session.TopicAssessments[TopicRatios].Settle()
	if _, ok := engine.NextTopic(session); ok {
		t.Error("Expected no topic when everything is settled")
	}
}

func TestShouldTerminate(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("fresh session does not terminate", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 9)
		if engine.ShouldTerminate(session) {
			t.Error("New session should not terminate")
		}
	})

	t.Run("global cap terminates", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 9)
		session.TotalQuestionsAsked = 40
		if !engine.ShouldTerminate(session) {
			t.Error("Should terminate at the global question cap")
		}
	})

	t.Run("all settled above minimum terminates", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 9)
		for _, a := range session.TopicAssessments {
			a.Settle()
		}
		session.TotalQuestionsAsked = 15
		if !engine.ShouldTerminate(session) {
			t.Error("Should terminate when all topics settled above minimum")
		}
	})

	t.Run("all settled below minimum keeps going", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 9)
		for _, a := range session.TopicAssessments {
			a.Settle()
		}
		session.TotalQuestionsAsked = 14
		if engine.ShouldTerminate(session) {
			t.Error("Should not terminate below the session minimum")
		}
	})

	t.Run("high confidence on all probed topics terminates", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 9)
		session.TotalQuestionsAsked = 15
		probed := 0
		for _, a := range session.TopicAssessments {
			if probed == 5 {
				break
			}
			a.QuestionsAsked = 3
			a.Confidence = 0.95
			probed++
		}
		if !engine.ShouldTerminate(session) {
			t.Error("Should terminate when every probed topic is highly confident")
		}
	})

	t.Run("one low-confidence probed topic keeps going", func(t *testing.T) {
		session := engine.NewSession("s1", "u1", 9)
		session.TotalQuestionsAsked = 15
		first := true
		for _, a := range session.TopicAssessments {
			a.QuestionsAsked = 2
			if first {
				a.Confidence = 0.50
				first = false
			} else {
				a.Confidence = 0.95
			}
		}
		if engine.ShouldTerminate(session) {
			t.Error("Should not terminate with a low-confidence probed topic")
		}
	})
}

func TestProgress(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	if p := engine.Progress(session); p != 0 {
		t.Errorf("Expected zero progress, got %.4f", p)
	}
	session.TotalQuestionsAsked = 20
	if p := engine.Progress(session); abs(p-0.5) > 1e-9 {
		t.Errorf("Expected progress 0.5, got %.4f", p)
	}
	session.TotalQuestionsAsked = 50
	if p := engine.Progress(session); p != 1 {
		t.Errorf("Progress should cap at 1, got %.4f", p)
	}
}
