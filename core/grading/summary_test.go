package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(f float64) *float64 {
	return &f
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name     string
		examName string
		want     Category
		wantMax  float64
	}{
		{name: "quiz", examName: "Quiz", want: CategoryQuiz, wantMax: 10},
		{name: "test", examName: " TEST ", want: CategoryTest, wantMax: 15},
		{name: "midterm", examName: "midterm", want: CategoryMidterm, wantMax: 25},
		{name: "final", examName: "Final", want: CategoryFinal, wantMax: 50},
		{name: "other", examName: "Project", want: CategoryOther, wantMax: 100},
		{name: "empty", want: CategoryOther, wantMax: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.examName))
			assert.Equal(t, tt.wantMax, MaxScoreFor(tt.examName))
		})
	}
}

func TestSummary_Add(t *testing.T) {
	tests := []struct {
		name   string
		grades []Row
		want   Summary
	}{
		{name: "no grades", want: Summary{}},
		{
			name:   "one per category",
			grades: []Row{{ExamName: "Quiz", Score: 8}, {ExamName: "Test", Score: 12}, {ExamName: "Final", Score: 40}},
			want:   Summary{Quiz: fptr(8), Test: fptr(12), Final: fptr(40), Sum: 60, Percentage: 60, Possible: 75},
		},
		{
			name:   "same category adds up",
			grades: []Row{{ExamName: "quiz", Score: 4}, {ExamName: "QUIZ", Score: 5.5}},
			want:   Summary{Quiz: fptr(9.5), Sum: 9.5, Percentage: 9.5, Possible: 20},
		},
		{
			name:   "zero score fills its slot",
			grades: []Row{{ExamName: "Midterm", Score: 0}},
			want:   Summary{Midterm: fptr(0), Possible: 25},
		},
		{
			name:   "unrecognized names are other",
			grades: []Row{{ExamName: "Lab", Score: 70}, {ExamName: "Project", Score: 20}},
			want:   Summary{Other: 90, Sum: 90, Percentage: 90, Possible: 200},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Summary
			for _, r := range tt.grades {
				got.Add(r.ExamName, r.Score)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarizeByCourse(t *testing.T) {
	rows := []Row{
		{StudentID: 1, CourseID: 2, CourseName: "Physics", ExamName: "Quiz", Score: 7},
		{StudentID: 1, CourseID: 1, CourseName: "Algebra", ExamName: "Final", Score: 45},
		{StudentID: 1, CourseID: 2, CourseName: "Physics", ExamName: "Test", Score: 10},
	}
	got := SummarizeByCourse(rows)
	assert.Equal(t, []CourseSummary{
		{CourseID: 1, CourseName: "Algebra", Summary: Summary{Final: fptr(45), Sum: 45, Percentage: 45, Possible: 50}},
		{CourseID: 2, CourseName: "Physics", Summary: Summary{Quiz: fptr(7), Test: fptr(10), Sum: 17, Percentage: 17, Possible: 25}},
	}, got)

	assert.Equal(t, []CourseSummary{}, SummarizeByCourse(nil))
}

func TestSummarizeByStudent(t *testing.T) {
	rows := []Row{
		{StudentID: 3, StudentName: "Zoe", CourseID: 1, ExamName: "Quiz", Score: 9},
		{StudentID: 2, StudentName: "Adam", CourseID: 1, ExamName: "Quiz", Score: 6},
		{StudentID: 3, StudentName: "Zoe", CourseID: 2, ExamName: "Quiz", Score: 1},
	}
	got := SummarizeByStudent(rows)
	assert.Equal(t, []StudentSummary{
		{StudentID: 2, StudentName: "Adam", Summary: Summary{Quiz: fptr(6), Sum: 6, Percentage: 6, Possible: 10}},
		{StudentID: 3, StudentName: "Zoe", Summary: Summary{Quiz: fptr(10), Sum: 10, Percentage: 10, Possible: 20}},
	}, got)
}
