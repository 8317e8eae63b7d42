package practice

import "github.com/abhisek/adaptiq/internal/tutor"

// questionMsg carries the next recommended question.
type questionMsg struct {
	Rec  tutor.Recommendation
	Info tutor.ContentInfo
	Err  error
}

// answerMsg carries the graded result of a submission.
type answerMsg struct {
	Result tutor.AnswerResult
	Err    error
}
