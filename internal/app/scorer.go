package app

import (
	"strconv"
	"time"

	"github.com/Mayhomes/quiz/internal/domain"
)

// ScoreQuiz computes the score breakdown for a question set against an
// answer ledger. Pure and deterministic given identical inputs and
// timestamp; neither input is mutated. Only MCQ questions are compared —
// exact string equality of the submitted value against the correct option
// text. Essay questions contribute zero everywhere and await manual review.
func ScoreQuiz(set domain.QuestionSet, answers domain.AnswerLedger, now time.Time) domain.ScoreResult {
	mcqScore := 0
	mcqTotal := 0
	details := make([]domain.QuestionOutcome, 0, len(set))

	for i, q := range set {
		if !q.IsMCQ() {
			continue
		}
		mcqTotal++
		user := answers[strconv.Itoa(i)]
		correct := user != "" && user == q.CorrectAnswer
		points := 0
		if correct {
			mcqScore++
			points = 1
		}
		details = append(details, domain.QuestionOutcome{
			QuestionID:     q.ID,
			QuestionNumber: i + 1,
			Type:           "mcq",
			QuestionText:   q.Text,
			UserAnswer:     user,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      correct,
			Points:         points,
			MaxPoints:      1,
		})
	}

	return domain.ScoreResult{
		MCQScore:      mcqScore,
		MCQTotal:      mcqTotal,
		MCQPercentage: formatPercent(mcqScore, mcqTotal),
		TotalScore:    mcqScore,
		MaxScore:      mcqTotal,
		Percentage:    formatPercent(mcqScore, mcqTotal),
		Details:       details,
		Timestamp:     now.UTC().Format(time.RFC3339),
	}
}

// BuildSummary joins identity, questions, answers, and score into the
// denormalized export/submission payload.
func BuildSummary(user domain.UserInfo, set domain.QuestionSet, answers domain.AnswerLedger, results domain.ScoreResult) domain.Summary {
	if answers == nil {
		answers = domain.AnswerLedger{}
	}
	essayCount := 0
	for _, q := range set {
		if !q.IsMCQ() {
			essayCount++
		}
	}
	return domain.Summary{
		UserInfo: domain.SummaryUser{
			Name:      user.Name,
			Phone:     user.Phone,
			AgentName: user.AgentName,
			StartTime: user.Timestamp,
		},
		Quiz: domain.SummaryQuiz{
			TotalQuestions: len(set),
			MCQCount:       results.MCQTotal,
			EssayCount:     essayCount,
			Questions:      set,
			Answers:        answers,
		},
		Score: domain.SummaryScore{
			MCQ: domain.ScoreLine{
				Score:      results.MCQScore,
				Total:      results.MCQTotal,
				Percentage: results.MCQPercentage,
			},
			Essay: domain.EssayLine{
				Score:  results.EssayScore,
				Total:  results.EssayTotal,
				Status: domain.EssayStatusPending,
			},
			Total: domain.TotalLine{
				Score:      results.TotalScore,
				MaxScore:   results.MaxScore,
				Percentage: results.Percentage,
			},
		},
		Details:     results.Details,
		CompletedAt: results.Timestamp,
	}
}

// formatPercent renders (score/total)*100 to one decimal; "0.0" when the
// denominator is zero.
func formatPercent(score, total int) string {
	if total == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(score)/float64(total)*100, 'f', 1, 64)
}
