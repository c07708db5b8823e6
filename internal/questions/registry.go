package questions

import (
	"errors"
	"fmt"

	"placement-service/internal/adaptive"
	"placement-service/internal/models"
)

// ErrNoGenerator is returned when no generator is registered for a topic.
var ErrNoGenerator = errors.New("no generator registered for topic")

// Generator produces questions for a single topic at a requested
// difficulty. Implementations must return an exact correct answer.
type Generator interface {
	Topic() adaptive.Topic
	Generate(difficulty float64, gradeLevel int) (*models.Question, error)
}

// Registry holds question generators keyed by topic. It is constructed
// explicitly by the application wiring; there is no package-level
// singleton.
type Registry struct {
	generators map[adaptive.Topic]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[adaptive.Topic]Generator)}
}

// Register adds or replaces the generator for its topic.
func (r *Registry) Register(g Generator) {
	r.generators[g.Topic()] = g
}

// Get returns the generator for a topic, if one is registered.
func (r *Registry) Get(topic adaptive.Topic) (Generator, bool) {
	g, ok := r.generators[topic]
	return g, ok
}

// Topics lists the registered topics.
func (r *Registry) Topics() []adaptive.Topic {
	topics := make([]adaptive.Topic, 0, len(r.generators))
	for _, t := range adaptive.AllTopics {
		if _, ok := r.generators[t]; ok {
			topics = append(topics, t)
		}
	}
	return topics
}

// Generate produces a question for the topic at the given difficulty.
// Returns ErrNoGenerator when the topic has no registered generator.
func (r *Registry) Generate(topic adaptive.Topic, difficulty float64, gradeLevel int) (*models.Question, error) {
	g, ok := r.generators[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoGenerator, topic)
	}
	q, err := g.Generate(difficulty, gradeLevel)
	if err != nil {
		return nil, err
	}
	q.EnsureTier()
	return q, nil
}

// DefaultRegistry returns a registry with every built-in topic
// generator registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, g := range builtinGenerators() {
		r.Register(g)
	}
	return r
}
