package adaptive

import "testing"

func TestBuildResult_ExcludesUnprobedFromOverallMastery(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	// Probe only two of the eight topics.
	a := session.TopicAssessments[TopicArithmetic]
	a.QuestionsAsked = 3
	a.QuestionsCorrect = 3
	a.MasteryScore = 0.80

	b := session.TopicAssessments[TopicFractions]
	b.QuestionsAsked = 3
	b.QuestionsCorrect = 0
	b.MasteryScore = 0.20

	result := engine.BuildResult(session)

	if abs(result.OverallMastery-0.50) > 1e-9 {
		t.Errorf("Expected overall mastery 0.50 over probed topics only, got %.4f", result.OverallMastery)
	}
	if abs(result.OverallAccuracy-0.50) > 1e-9 {
		t.Errorf("Expected overall accuracy 0.50, got %.4f", result.OverallAccuracy)
	}
	if result.TotalQuestions != 6 {
		t.Errorf("Expected 6 total questions, got %d", result.TotalQuestions)
	}
	if result.TotalCorrect != 3 {
		t.Errorf("Expected 3 total correct, got %d", result.TotalCorrect)
	}

	unprobed := result.TopicResults[TopicGeometry]
	if unprobed.MasteryLevel != LevelNotAssessed {
		t.Errorf("Unprobed topic should be not_assessed, got %s", unprobed.MasteryLevel)
	}
	if unprobed.MasteryScore != 0 {
		t.Errorf("Unprobed topic should carry zero mastery, got %.4f", unprobed.MasteryScore)
	}
}

func TestBuildResult_EmptySession(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	result := engine.BuildResult(session)
	if result.OverallMastery != 0 || result.OverallAccuracy != 0 {
		t.Errorf("Empty session should score zero, got mastery=%.4f accuracy=%.4f",
			result.OverallMastery, result.OverallAccuracy)
	}
	if len(result.FocusTopics) != 0 {
		t.Errorf("Empty session should have no focus topics, got %v", result.FocusTopics)
	}
	if len(result.TopicResults) != 8 {
		t.Errorf("Expected a result entry per topic in scope, got %d", len(result.TopicResults))
	}
}

func TestFocusTopicsFilter(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	set := func(topic Topic, asked int, mastery float64) {
		a := session.TopicAssessments[topic]
		a.QuestionsAsked = asked
		a.MasteryScore = mastery
	}

	set(TopicArithmetic, 3, 0.85)  // strong, excluded
	set(TopicFractions, 3, 0.30)   // weak, included
	set(TopicPercentages, 2, 0.55) // weak, included
	set(TopicRatios, 3, 0.60)      // exactly at threshold, excluded
	// Geometry left unprobed with zero mastery: must NOT be a focus topic.

	result := engine.BuildResult(session)

	expected := []Topic{TopicFractions, TopicPercentages}
	if len(result.FocusTopics) != len(expected) {
		t.Fatalf("Expected focus topics %v, got %v", expected, result.FocusTopics)
	}
	for i, topic := range expected {
		if result.FocusTopics[i] != topic {
			t.Errorf("Focus topic %d: expected %s, got %s", i, topic, result.FocusTopics[i])
		}
	}
}

func TestFocusTopicsSortedByMastery(t *testing.T) {
	engine := NewEngine(nil)
	session := engine.NewSession("s1", "u1", 5)

	weak := map[Topic]float64{
		TopicStatistics:  0.40,
		TopicArithmetic:  0.10,
		TopicPercentages: 0.25,
	}
	for topic, mastery := range weak {
		a := session.TopicAssessments[topic]
		a.QuestionsAsked = 2
		a.MasteryScore = mastery
	}

	result := engine.BuildResult(session)
	expected := []Topic{TopicArithmetic, TopicPercentages, TopicStatistics}
	if len(result.FocusTopics) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, result.FocusTopics)
	}
	for i, topic := range expected {
		if result.FocusTopics[i] != topic {
			t.Errorf("Position %d: expected %s, got %s", i, topic, result.FocusTopics[i])
		}
	}
}

func TestRound3(t *testing.T) {
	testCases := []struct {
		in       float64
		expected float64
	}{
		{0.12345, 0.123},
		{0.12567, 0.126},
		{1.0, 1.0},
		{2.71828, 2.718},
	}
	for _, tc := range testCases {
		if got := Round3(tc.in); abs(got-tc.expected) > 1e-12 {
			t.Errorf("Round3(%v) = %v, expected %v", tc.in, got, tc.expected)
		}
	}
}
