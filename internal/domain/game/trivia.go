package game

import "fmt"

// TriviaQuestion is one question with four answer options and the index of
// the correct one.
type TriviaQuestion struct {
	Question     string
	Options      [4]string
	CorrectIndex int
}

// TriviaState is a single trivia question with one attempt. Always terminal
// after one answer.
type TriviaState struct {
	question TriviaQuestion
}

func NewTrivia(q TriviaQuestion) (*TriviaState, error) {
	if q.Question == "" {
		return nil, fmt.Errorf("question text is required")
	}
	if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
		return nil, fmt.Errorf("correct index must be between 0 and 3")
	}
	return &TriviaState{question: q}, nil
}

func (t *TriviaState) GameType() GameType {
	return TypeTrivia
}

func (t *TriviaState) Question() TriviaQuestion {
	return t.question
}

// Answer compares the selected option against the precomputed correct index.
func (t *TriviaState) Answer(index int) (Outcome, error) {
	if index < 0 || index > 3 {
		return OutcomeContinue, fmt.Errorf("answer index must be between 0 and 3")
	}

	if index == t.question.CorrectIndex {
		return OutcomeWin, nil
	}
	return OutcomeLose, nil
}
