package domain

import "strings"

// UserInfo identifies the person taking the quiz. Created once at session
// start and immutable afterwards.
type UserInfo struct {
	Name      string `json:"name" validate:"required,min=2"`
	Phone     string `json:"phone" validate:"required,numeric,min=10,max=11"`
	AgentName string `json:"agentName" validate:"required"`
	Timestamp string `json:"timestamp"` // ISO-8601, filled at registration
	StartTime int64  `json:"startTime"` // epoch millis
}

// Question is a single quiz question. The ID prefix identifies the type:
// "mcq…" questions carry options and a correct answer, everything else is
// treated as free-text essay.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Hint          string   `json:"hint,omitempty"`
}

// IsMCQ reports whether the question is multiple-choice.
func (q Question) IsMCQ() bool {
	return strings.HasPrefix(q.ID, "mcq")
}

// QuestionSet is the ordered working copy of questions chosen for one
// session. Persisted verbatim so a reload reproduces the same questions,
// order, and option shuffle.
type QuestionSet []Question

// AnswerLedger maps stringified question index to the submitted answer
// value. An absent key or empty value means unanswered.
type AnswerLedger map[string]string

// TimerState is the persisted countdown snapshot, written once per tick.
// Remaining time after a reload is reconstructed from LastUpdate via
// wall-clock subtraction, never from interval continuation.
type TimerState struct {
	Remaining  int   `json:"remaining"`
	StartTime  int64 `json:"startTime"`
	LastUpdate int64 `json:"lastUpdate"`
}

// QuestionOutcome records the per-question scoring detail.
type QuestionOutcome struct {
	QuestionID     string `json:"questionId"`
	QuestionNumber int    `json:"questionNumber"`
	Type           string `json:"type"`
	QuestionText   string `json:"questionText"`
	UserAnswer     string `json:"userAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	Points         int    `json:"points"`
	MaxPoints      int    `json:"maxPoints"`
}

// ScoreResult is the score breakdown computed exactly once at finalization.
// Percentage fields are formatted to one decimal ("5.0"), "0.0" when the
// denominator is zero. Essay fields stay zero: essays are never graded here.
type ScoreResult struct {
	MCQScore      int               `json:"mcqScore"`
	MCQTotal      int               `json:"mcqTotal"`
	MCQPercentage string            `json:"mcqPercentage"`
	EssayScore    int               `json:"essayScore"`
	EssayTotal    int               `json:"essayTotal"`
	EssayCount    int               `json:"essayCount"`
	TotalScore    int               `json:"totalScore"`
	MaxScore      int               `json:"maxScore"`
	Percentage    string            `json:"percentage"`
	Details       []QuestionOutcome `json:"details"`
	Timestamp     string            `json:"timestamp"`
}

// AnswerStats summarizes ledger progress for the presentation layer.
type AnswerStats struct {
	Total      int    `json:"total"`
	Answered   int    `json:"answered"`
	Unanswered int    `json:"unanswered"`
	Percentage string `json:"percentage"`
}

// EssayStatusPending marks essay scores that await manual review.
const EssayStatusPending = "pending_manual_review"

// Summary is the denormalized export/submission payload joining identity,
// questions, answers, and score. Built on demand, never persisted.
type Summary struct {
	UserInfo    SummaryUser       `json:"userInfo"`
	Quiz        SummaryQuiz       `json:"quiz"`
	Score       SummaryScore      `json:"score"`
	Details     []QuestionOutcome `json:"details"`
	CompletedAt string            `json:"completedAt"`
}

type SummaryUser struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	AgentName string `json:"agentName"`
	StartTime string `json:"startTime"`
}

type SummaryQuiz struct {
	TotalQuestions int          `json:"totalQuestions"`
	MCQCount       int          `json:"mcqCount"`
	EssayCount     int          `json:"essayCount"`
	Questions      QuestionSet  `json:"questions"`
	Answers        AnswerLedger `json:"answers"`
}

type SummaryScore struct {
	MCQ   ScoreLine `json:"mcq"`
	Essay EssayLine `json:"essay"`
	Total TotalLine `json:"total"`
}

type ScoreLine struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage string `json:"percentage"`
}

type EssayLine struct {
	Score  int    `json:"score"`
	Total  int    `json:"total"`
	Status string `json:"status"`
}

type TotalLine struct {
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Percentage string `json:"percentage"`
}

// SubmissionResult reports the outcome of relaying a summary to the remote
// spreadsheet endpoint. Skipped means submission was disabled or
// unconfigured and no network attempt was made.
type SubmissionResult struct {
	Success  bool   `json:"success"`
	Skipped  bool   `json:"skipped,omitempty"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts,omitempty"`
}
