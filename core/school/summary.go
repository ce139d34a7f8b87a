package school

import "math"

type (
	ExamSummary struct {
		Exam          string  `json:"exam"`
		TotalMarks    int     `json:"totalMarks"`
		TotalMaxMarks int     `json:"totalMaxMarks"`
		Percentage    float64 `json:"percentage"`
	}

	Summary struct {
		TotalExams        int           `json:"totalExams"`
		TotalMarks        int           `json:"totalMarks"`
		TotalMaxMarks     int           `json:"totalMaxMarks"`
		OverallPercentage float64       `json:"overallPercentage"`
		ExamWise          []ExamSummary `json:"examWiseSummary"`
	}
)

// Summarize aggregates raw mark rows into per-exam and overall totals.
// Exams are reported in first-seen order so the output is deterministic.
// An empty max total yields percentage 0, never a division error.
func Summarize(marks []Mark) Summary {
	sum := Summary{ExamWise: []ExamSummary{}}
	byExam := make(map[string]int) // exam name -> index into ExamWise

	for _, m := range marks {
		i, ok := byExam[m.ExamName]
		if !ok {
			i = len(sum.ExamWise)
			byExam[m.ExamName] = i
			sum.ExamWise = append(sum.ExamWise, ExamSummary{Exam: m.ExamName})
		}
		sum.ExamWise[i].TotalMarks += m.MarksObtained
		sum.ExamWise[i].TotalMaxMarks += m.MaxMarks
		sum.TotalMarks += m.MarksObtained
		sum.TotalMaxMarks += m.MaxMarks
	}

	for i := range sum.ExamWise {
		sum.ExamWise[i].Percentage = round2(sum.ExamWise[i].TotalMarks, sum.ExamWise[i].TotalMaxMarks)
	}
	sum.TotalExams = len(sum.ExamWise)
	sum.OverallPercentage = round2(sum.TotalMarks, sum.TotalMaxMarks)
	return sum
}

// round2 returns obtained/max as a percentage rounded to 2 decimal places.
func round2(obtained, max int) float64 {
	if max == 0 {
		return 0
	}
	return math.Round(float64(obtained)/float64(max)*10000) / 100
}
