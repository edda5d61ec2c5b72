package grading

import "sort"

// Row is one grade joined with its exam, course and student, as read for aggregation.
type Row struct {
	StudentID   int     `json:"student_id" boil:"student_id"`
	StudentName string  `json:"student_name" boil:"student_name"`
	CourseID    int     `json:"course_id" boil:"course_id"`
	CourseName  string  `json:"course_name" boil:"course_name"`
	ExamName    string  `json:"exam_name" boil:"exam_name"`
	Score       float64 `json:"score" boil:"score"`
}

// Summary is the per-category fold of a group of grades.
// Category slots stay nil when the group has no grade of that category;
// several grades of the same category add up in their slot.
// Percentage equals Sum (it is not normalized); Possible is the sum of the max scores of the graded exams.
type Summary struct {
	Quiz       *float64 `json:"quiz"`
	Test       *float64 `json:"test"`
	Midterm    *float64 `json:"midterm"`
	Final      *float64 `json:"final"`
	Other      float64  `json:"other"`
	Sum        float64  `json:"sum"`
	Percentage float64  `json:"percentage"`
	Possible   float64  `json:"possible"`
}

// Add folds one score of an exam named examName into the summary.
func (s *Summary) Add(examName string, score float64) {
	cat := ParseCategory(examName)
	switch cat {
	case CategoryQuiz:
		s.Quiz = addTo(s.Quiz, score)
	case CategoryTest:
		s.Test = addTo(s.Test, score)
	case CategoryMidterm:
		s.Midterm = addTo(s.Midterm, score)
	case CategoryFinal:
		s.Final = addTo(s.Final, score)
	default:
		s.Other += score
	}
	s.Sum += score
	s.Possible += cat.MaxScore()
	s.Percentage = 0
	if s.Sum > 0 {
		s.Percentage = s.Sum
	}
}

func addTo(slot *float64, score float64) *float64 {
	total := score
	if slot != nil {
		total += *slot
	}
	return &total
}

// CourseSummary is the grade summary of one student in one course.
type CourseSummary struct {
	CourseID   int    `json:"course_id"`
	CourseName string `json:"course_name"`
	Summary
}

// StudentSummary is the grade summary of one student across the courses of a teacher.
type StudentSummary struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	Summary
}

// SummarizeByCourse folds rows into one summary per course, ordered by course name then ID.
func SummarizeByCourse(rows []Row) []CourseSummary {
	idx := make(map[int]int)
	summaries := make([]CourseSummary, 0)
	for _, r := range rows {
		i, ok := idx[r.CourseID]
		if !ok {
			i = len(summaries)
			idx[r.CourseID] = i
			summaries = append(summaries, CourseSummary{CourseID: r.CourseID, CourseName: r.CourseName})
		}
		summaries[i].Add(r.ExamName, r.Score)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CourseName != summaries[j].CourseName {
			return summaries[i].CourseName < summaries[j].CourseName
		}
		return summaries[i].CourseID < summaries[j].CourseID
	})
	return summaries
}

// SummarizeByStudent folds rows into one summary per student, ordered by student name then ID.
func SummarizeByStudent(rows []Row) []StudentSummary {
	idx := make(map[int]int)
	summaries := make([]StudentSummary, 0)
	for _, r := range rows {
		i, ok := idx[r.StudentID]
		if !ok {
			i = len(summaries)
			idx[r.StudentID] = i
			summaries = append(summaries, StudentSummary{StudentID: r.StudentID, StudentName: r.StudentName})
		}
		summaries[i].Add(r.ExamName, r.Score)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].StudentName != summaries[j].StudentName {
			return summaries[i].StudentName < summaries[j].StudentName
		}
		return summaries[i].StudentID < summaries[j].StudentID
	})
	return summaries
}
