package game

import (
	"fmt"
	"strings"
	"unicode"
)

// HangmanState tracks the target word, the set of guessed letters and the
// wrong-guess counter.
type HangmanState struct {
	word     string
	guessed  map[rune]bool
	wrong    int
	maxWrong int
}

func NewHangman(word string, maxWrong int) (*HangmanState, error) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if len(word) == 0 {
		return nil, fmt.Errorf("word is required")
	}
	for _, r := range word {
		if !unicode.IsUpper(r) {
			return nil, fmt.Errorf("word must contain only letters")
		}
	}
	if maxWrong < 1 {
		return nil, fmt.Errorf("max wrong guesses must be at least 1")
	}

	return &HangmanState{
		word:     word,
		guessed:  make(map[rune]bool),
		maxWrong: maxWrong,
	}, nil
}

func (h *HangmanState) GameType() GameType {
	return TypeHangman
}

func (h *HangmanState) Word() string {
	return h.word
}

func (h *HangmanState) WrongGuesses() int {
	return h.wrong
}

func (h *HangmanState) MaxWrong() int {
	return h.maxWrong
}

// Revealed renders the word with unguessed letters masked, e.g. "N_TW_RK".
func (h *HangmanState) Revealed() string {
	var b strings.Builder
	for _, r := range h.word {
		if h.guessed[r] {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// GuessedLetters returns every letter guessed so far, in no particular order.
func (h *HangmanState) GuessedLetters() []rune {
	letters := make([]rune, 0, len(h.guessed))
	for r := range h.guessed {
		letters = append(letters, r)
	}
	return letters
}

// GuessLetter processes a single-letter guess. A letter present in the word
// reveals every matching position; an absent letter increments the wrong
// counter. Repeated or non-letter guesses are invalid input and cost nothing.
func (h *HangmanState) GuessLetter(input string) (Outcome, error) {
	runes := []rune(strings.ToUpper(strings.TrimSpace(input)))
	if len(runes) != 1 || !unicode.IsUpper(runes[0]) {
		return OutcomeContinue, fmt.Errorf("guess must be a single letter")
	}
	letter := runes[0]

	if h.guessed[letter] {
		return OutcomeContinue, fmt.Errorf("letter %c was already guessed", letter)
	}
	h.guessed[letter] = true

	if !strings.ContainsRune(h.word, letter) {
		h.wrong++
		if h.wrong >= h.maxWrong {
			return OutcomeLose, nil
		}
		return OutcomeContinue, nil
	}

	if h.allRevealed() {
		return OutcomeWin, nil
	}
	return OutcomeContinue, nil
}

func (h *HangmanState) allRevealed() bool {
	for _, r := range h.word {
		if !h.guessed[r] {
			return false
		}
	}
	return true
}
