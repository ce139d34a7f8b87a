package school

import (
	"reflect"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		marks []Mark
		want  Summary
	}{
		{
			name: "empty",
			want: Summary{ExamWise: []ExamSummary{}},
		},
		{
			name: "single mark rounds to 2 decimals",
			marks: []Mark{
				{ExamName: "Midterm", MarksObtained: 26, MaxMarks: 30},
			},
			want: Summary{
				TotalExams:        1,
				TotalMarks:        26,
				TotalMaxMarks:     30,
				OverallPercentage: 86.67,
				ExamWise: []ExamSummary{
					{Exam: "Midterm", TotalMarks: 26, TotalMaxMarks: 30, Percentage: 86.67},
				},
			},
		},
		{
			name: "multiple exams keep first-seen order",
			marks: []Mark{
				{ExamName: "Midterm", MarksObtained: 40, MaxMarks: 50},
				{ExamName: "Final", MarksObtained: 90, MaxMarks: 100},
				{ExamName: "Midterm", MarksObtained: 45, MaxMarks: 50},
				{ExamName: "Final", MarksObtained: 80, MaxMarks: 100},
			},
			want: Summary{
				TotalExams:        2,
				TotalMarks:        255,
				TotalMaxMarks:     300,
				OverallPercentage: 85,
				ExamWise: []ExamSummary{
					{Exam: "Midterm", TotalMarks: 85, TotalMaxMarks: 100, Percentage: 85},
					{Exam: "Final", TotalMarks: 170, TotalMaxMarks: 200, Percentage: 85},
				},
			},
		},
		{
			name: "zero max yields zero percentage",
			marks: []Mark{
				{ExamName: "Quiz", MarksObtained: 0, MaxMarks: 0},
			},
			want: Summary{
				TotalExams: 1,
				ExamWise: []ExamSummary{
					{Exam: "Quiz"},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.marks); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMark_Percentage(t *testing.T) {
	tests := []struct {
		name string
		mark Mark
		want float64
	}{
		{name: "exact", mark: Mark{MarksObtained: 85, MaxMarks: 100}, want: 85},
		{name: "rounded", mark: Mark{MarksObtained: 26, MaxMarks: 30}, want: 86.67},
		{name: "full", mark: Mark{MarksObtained: 30, MaxMarks: 30}, want: 100},
		{name: "zero max", mark: Mark{MarksObtained: 5, MaxMarks: 0}, want: 0},
		{name: "thirds", mark: Mark{MarksObtained: 1, MaxMarks: 3}, want: 33.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mark.Percentage(); got != tt.want {
				t.Errorf("Percentage() = %v, want %v", got, tt.want)
			}
		})
	}
}
