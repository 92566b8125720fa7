package game

import (
	"fmt"
	"math/rand"
)

type RPSChoice string

const (
	RPSRock     RPSChoice = "rock"
	RPSPaper    RPSChoice = "paper"
	RPSScissors RPSChoice = "scissors"
)

var validRPSChoices = map[RPSChoice]bool{
	RPSRock:     true,
	RPSPaper:    true,
	RPSScissors: true,
}

// rpsBeats maps each choice to the choice it defeats.
var rpsBeats = map[RPSChoice]RPSChoice{
	RPSRock:     RPSScissors,
	RPSScissors: RPSPaper,
	RPSPaper:    RPSRock,
}

func (c RPSChoice) IsValid() bool {
	return validRPSChoices[c]
}

func (c RPSChoice) String() string {
	return string(c)
}

func NewRPSChoice(s string) (RPSChoice, error) {
	c := RPSChoice(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid choice: %s", s)
	}
	return c, nil
}

// RPSState is a single round of rock-paper-scissors. Always terminal after
// one choice.
type RPSState struct {
	botChoice RPSChoice
}

func NewRPS() *RPSState {
	return &RPSState{}
}

func (r *RPSState) GameType() GameType {
	return TypeRPS
}

// BotChoice returns the bot's pick. Only set after Play.
func (r *RPSState) BotChoice() RPSChoice {
	return r.botChoice
}

// Play resolves the round: the bot picks uniformly at random and the standard
// beats-relation decides the outcome.
func (r *RPSState) Play(choice RPSChoice, rng *rand.Rand) (Outcome, error) {
	if !choice.IsValid() {
		return OutcomeContinue, fmt.Errorf("invalid choice: %s", choice)
	}

	options := []RPSChoice{RPSRock, RPSPaper, RPSScissors}
	r.botChoice = options[rng.Intn(len(options))]

	switch {
	case choice == r.botChoice:
		return OutcomeTie, nil
	case rpsBeats[choice] == r.botChoice:
		return OutcomeWin, nil
	default:
		return OutcomeLose, nil
	}
}
