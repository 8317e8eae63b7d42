package knowledge

import "fmt"

// Topic is a canonical curriculum topic key.
type Topic string

const (
	Mechanics          Topic = "mechanics"
	Electromagnetism   Topic = "electromagnetism"
	Optics             Topic = "optics"
	ModernPhysics      Topic = "modern_physics"
	PhysicalChemistry  Topic = "physical_chemistry"
	OrganicChemistry   Topic = "organic_chemistry"
	InorganicChemistry Topic = "inorganic_chemistry"
	Algebra            Topic = "algebra"
	Calculus           Topic = "calculus"
	CoordinateGeometry Topic = "coordinate_geometry"
	Trigonometry       Topic = "trigonometry"
	Vectors            Topic = "vectors"
	Probability        Topic = "probability"
)

// NumTopics is the size of the canonical topic list.
const NumTopics = 13

// topics is the canonical order. State fields, discretization and
// state snapshots all follow it.
var topics = [NumTopics]Topic{
	Mechanics,
	Electromagnetism,
	Optics,
	ModernPhysics,
	PhysicalChemistry,
	OrganicChemistry,
	InorganicChemistry,
	Algebra,
	Calculus,
	CoordinateGeometry,
	Trigonometry,
	Vectors,
	Probability,
}

var topicIndex = func() map[Topic]int {
	m := make(map[Topic]int, NumTopics)
	for i, t := range topics {
		m[t] = i
	}
	return m
}()

var topicNames = map[Topic]string{
	Mechanics:          "Mechanics",
	Electromagnetism:   "Electromagnetism",
	Optics:             "Optics",
	ModernPhysics:      "Modern Physics",
	PhysicalChemistry:  "Physical Chemistry",
	OrganicChemistry:   "Organic Chemistry",
	InorganicChemistry: "Inorganic Chemistry",
	Algebra:            "Algebra",
	Calculus:           "Calculus",
	CoordinateGeometry: "Coordinate Geometry",
	Trigonometry:       "Trigonometry",
	Vectors:            "Vectors",
	Probability:        "Probability",
}

// AllTopics returns the canonical topics in order.
func AllTopics() []Topic {
	out := make([]Topic, NumTopics)
	copy(out, topics[:])
	return out
}

// Valid reports whether t is a canonical topic.
func (t Topic) Valid() bool {
	_, ok := topicIndex[t]
	return ok
}

// Index returns the position of t in the canonical order, or -1.
func (t Topic) Index() int {
	if i, ok := topicIndex[t]; ok {
		return i
	}
	return -1
}

// DisplayName returns a human-readable topic name.
func (t Topic) DisplayName() string {
	if n, ok := topicNames[t]; ok {
		return n
	}
	return string(t)
}

// ParseTopic validates a topic key.
func ParseTopic(s string) (Topic, error) {
	t := Topic(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown topic %q", s)
	}
	return t, nil
}
