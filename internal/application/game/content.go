package game

import (
	"math/rand"

	domain "helpbot/internal/domain/game"
)

// triviaBank is the built-in question pool. Questions are deliberately
// lightweight; this is a distraction game, not a quiz engine.
var triviaBank = []domain.TriviaQuestion{
	{
		Question:     "Which planet is known as the Red Planet?",
		Options:      [4]string{"Venus", "Mars", "Jupiter", "Mercury"},
		CorrectIndex: 1,
	},
	{
		Question:     "How many continents are there on Earth?",
		Options:      [4]string{"Five", "Six", "Seven", "Eight"},
		CorrectIndex: 2,
	},
	{
		Question:     "What is the largest ocean?",
		Options:      [4]string{"Atlantic", "Indian", "Arctic", "Pacific"},
		CorrectIndex: 3,
	},
	{
		Question:     "Which element has the chemical symbol O?",
		Options:      [4]string{"Gold", "Oxygen", "Osmium", "Silver"},
		CorrectIndex: 1,
	},
	{
		Question:     "How many sides does a hexagon have?",
		Options:      [4]string{"Five", "Six", "Seven", "Eight"},
		CorrectIndex: 1,
	},
	{
		Question:     "Which animal is the tallest living land animal?",
		Options:      [4]string{"Elephant", "Ostrich", "Giraffe", "Moose"},
		CorrectIndex: 2,
	},
	{
		Question:     "What is the capital of Japan?",
		Options:      [4]string{"Kyoto", "Osaka", "Tokyo", "Nagoya"},
		CorrectIndex: 2,
	},
	{
		Question:     "How many minutes are in a full day?",
		Options:      [4]string{"1240", "1440", "1640", "1840"},
		CorrectIndex: 1,
	},
}

// hangmanWords is the built-in word pool, all uppercase.
var hangmanWords = []string{
	"NETWORK",
	"KEYBOARD",
	"PRINTER",
	"MONITOR",
	"ROUTER",
	"LAPTOP",
	"SERVER",
	"BROWSER",
	"PACKAGE",
	"SUPPORT",
	"TICKET",
	"CHANNEL",
}

func pickTriviaQuestion(rng *rand.Rand) domain.TriviaQuestion {
	return triviaBank[rng.Intn(len(triviaBank))]
}

func pickHangmanWord(rng *rand.Rand) string {
	return hangmanWords[rng.Intn(len(hangmanWords))]
}
