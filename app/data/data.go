// Package data holds the built-in knowledge base and question bank used
// when the vector store is unavailable or comes up empty, and seeds the
// vector store on reindexing.
package data

import "strings"

type ContentEntry struct {
	Grade   string
	Subject string
	Topic   string
	Text    string
}

type QA struct {
	Question string
	Answer   string
}

var ContentEntries = []ContentEntry{
	{
		Grade:   "middle school",
		Subject: "math",
		Topic:   "geometry",
		Text:    "Middle school geometry focuses on the properties and calculations of plane figures. Key topics include: properties of triangles and quadrilaterals, similar triangles, the Pythagorean theorem, etc.",
	},
	{
		Grade:   "high school",
		Subject: "physics",
		Topic:   "mechanics",
		Text:    "High school mechanics includes Newton's laws of motion, work and energy, momentum, etc. Important formulas include F=ma, W=FS, E=mc², etc.",
	},
	{
		Grade:   "elementary",
		Subject: "literature",
		Topic:   "poetry",
		Text:    "Elementary poetry education focuses on understanding and reciting classical poems, including works by famous poets.",
	},
}

// KnowledgeBase maps "{grade}_{subject}_{topic}" keys to reference text.
var KnowledgeBase = map[string]string{}

func init() {
	for _, e := range ContentEntries {
		KnowledgeBase[Key(e.Grade, e.Subject, e.Topic)] = e.Text
	}
}

// QuestionDB maps topic key -> difficulty -> question pool.
var QuestionDB = map[string]map[string][]QA{
	"middle_school_math_geometry": {
		"easy": {
			{
				Question: "In a right triangle, if the two acute angles are complementary, what special type of triangle is it?",
				Answer:   "Isosceles right triangle",
			},
			{
				Question: "Do the diagonals of a parallelogram bisect each other?",
				Answer:   "Yes, the diagonals of a parallelogram bisect each other",
			},
		},
		"medium": {
			{
				Question: "If the diagonals of a quadrilateral perpendicularly bisect each other, what is this quadrilateral?",
				Answer:   "Rhombus",
			},
			{
				Question: "In triangle ABC, angle C=90°, AB=5, AC=3, find the length of BC.",
				Answer:   "4, using the Pythagorean theorem BC²=AB²-AC²=25-9=16, so BC=4",
			},
		},
		"hard": {
			{
				Question: "Prove: The distances from the incenter of a triangle to its sides are proportional to the sides.",
				Answer:   "This can be proven using the area formula S=1/2×perimeter×inradius",
			},
		},
	},
}

// Key normalizes lookup parts into the canonical lowercase underscore form,
// e.g. ("middle school", "math", "geometry") -> "middle_school_math_geometry".
func Key(parts ...string) string {
	key := strings.ToLower(strings.Join(parts, "_"))

	return strings.ReplaceAll(key, " ", "_")
}
