package grading

import (
	"strings"
	"time"
)

// Category is the kind of an exam, derived from its name.
type Category string

const (
	CategoryQuiz    Category = "quiz"
	CategoryTest    Category = "test"
	CategoryMidterm Category = "midterm"
	CategoryFinal   Category = "final"
	CategoryOther   Category = "other"
)

var maxScores = map[Category]float64{
	CategoryQuiz:    10,
	CategoryTest:    15,
	CategoryMidterm: 25,
	CategoryFinal:   50,
	CategoryOther:   100,
}

// ParseCategory maps an exam name to its Category, ignoring case and surrounding whitespace.
// Unrecognized names are CategoryOther.
func ParseCategory(name string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(name))); c {
	case CategoryQuiz, CategoryTest, CategoryMidterm, CategoryFinal:
		return c
	default:
		return CategoryOther
	}
}

// MaxScore returns the highest score a grade of the category may have.
func (c Category) MaxScore() float64 {
	if score, ok := maxScores[c]; ok {
		return score
	}
	return maxScores[CategoryOther]
}

type Exam struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	CourseID int       `json:"course_id"`
	Date     time.Time `json:"date"`
}

func (e Exam) Category() Category {
	return ParseCategory(e.Name)
}

// MaxScore returns the highest score a grade of this exam may have.
func (e Exam) MaxScore() float64 {
	return e.Category().MaxScore()
}

// MaxScoreFor returns the max score of an exam named name.
func MaxScoreFor(name string) float64 {
	return ParseCategory(name).MaxScore()
}
