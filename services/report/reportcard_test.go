package reportsvc

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/grading"
	"github.com/shulehub/shule/core/school"
)

func TestReportCardWriter_Write(t *testing.T) {
	rw := NewReportCardWriter(core.NewTestConfig())
	rw.nowFunc = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }
	std := school.Student{ID: 1, Name: "Héro Zéro", Email: "hero@test.cd", Grade: "10"}

	quiz, final := 8.0, 40.0
	tests := []struct {
		name      string
		summaries []grading.CourseSummary
	}{
		{name: "no grades"},
		{name: "grades", summaries: []grading.CourseSummary{
			{CourseID: 1, CourseName: "Physics", Summary: grading.Summary{Quiz: &quiz, Final: &final, Sum: 48, Percentage: 48, Possible: 60}},
			{CourseID: 2, CourseName: "Algebra", Summary: grading.Summary{Other: 70, Sum: 70, Percentage: 70, Possible: 100}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, rw.Write(&buf, std, tt.summaries))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.True(t, bytes.HasSuffix(bytes.TrimSpace(buf.Bytes()), []byte("%%EOF")))
		})
	}
}

func TestFormatSlot(t *testing.T) {
	score := 12.5
	assert.Equal(t, "-", formatSlot(nil))
	assert.Equal(t, "12.50", formatSlot(&score))
	assert.Equal(t, "0.00", formatScore(0))
}
