package game

import (
	"errors"
	"fmt"
)

// GameState is the coarse session state machine value
type GameState uint8

const (
	StateMenu GameState = iota
	StatePlaying
	StatePaused
	StateGameOver
	StateSettings
)

// String returns the state name
func (s GameState) String() string {
	switch s {
	case StateMenu:
		return "MENU"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateGameOver:
		return "GAME_OVER"
	case StateSettings:
		return "SETTINGS"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidTransition is wrapped by every rejected state change
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError represents a rejected state change
type TransitionError struct {
	From GameState
	To   GameState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition.Error(), e.From, e.To)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// transitions lists the allowed edges, excluding the settings overlay which
// may be entered from anywhere and only returns to the state it suspended
var transitions = map[GameState][]GameState{
	StateMenu:     {StatePlaying},
	StatePlaying:  {StatePaused, StateGameOver},
	StatePaused:   {StatePlaying},
	StateGameOver: {StateMenu, StatePlaying},
}

func canTransition(from, to GameState) bool {
	if to == StateSettings {
		return from != StateSettings
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
