package sessions

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/game"
	"github.com/race/roadrush/internal/network"
)

// Sink receives encoded server messages. Send must not block.
type Sink interface {
	Send(data []byte) error
}

// Entry is one client's game: the session, the loop that owns it and the
// sink its observers write to.
//
// Session may only be touched from the loop goroutine. Other goroutines go
// through HandleMessage, which posts onto the loop.
type Entry struct {
	ID      string
	Created time.Time
	Session *game.Session

	loop     *game.Loop
	sink     Sink
	protocol *network.Protocol
	log      zerolog.Logger
	now      func() time.Time

	state      atomic.Uint32 // mirror of Session.State for other goroutines
	lastActive atomic.Int64  // unix nanos of the last client message
	closed     atomic.Bool

	rateMu      sync.Mutex
	rateWindow  time.Time
	inputsInWin int

	// loop goroutine only
	lastBroadcast time.Time
	sendFrame     bool
}

func (e *Entry) attach() {
	e.Session.OnStats(func(s game.Stats) {
		now := e.now()
		e.sendFrame = now.Sub(e.lastBroadcast) >= config.BroadcastInterval
		if !e.sendFrame {
			return
		}
		e.lastBroadcast = now
		e.send(e.protocol.EncodeStats(StatsData(s)))
	})

	// frames ride the same throttle; stats observers run first each tick
	e.Session.OnFrame(func(v game.FrameView) {
		if !e.sendFrame {
			return
		}
		e.sendFrame = false
		e.send(e.protocol.EncodeFrame(FrameData(v)))
	})

	e.Session.OnStateChange(func(from, to game.GameState) {
		e.send(e.protocol.EncodeStateChange(uint8(from), uint8(to)))
		e.state.Store(uint32(to))
	})

	e.Session.OnGameOver(func(f game.FinalStats) {
		e.send(e.protocol.EncodeGameOver(GameOverData(f)))
	})
}

func (e *Entry) send(data []byte) {
	if err := e.sink.Send(data); err != nil {
		e.log.Debug().Err(err).Msg("Send failed")
	}
}

func (e *Entry) sendError(code uint8, msg string) {
	e.send(e.protocol.EncodeError(code, msg))
}

// State returns the last observed game state
func (e *Entry) State() game.GameState {
	return game.GameState(e.state.Load())
}

// LastActive returns the time of the last client message
func (e *Entry) LastActive() time.Time {
	return time.Unix(0, e.lastActive.Load())
}

func (e *Entry) touch() {
	e.lastActive.Store(e.now().UnixNano())
}

// HandleMessage decodes one client message and queues its effect on the
// loop. Safe to call from any goroutine.
func (e *Entry) HandleMessage(data []byte) error {
	if len(data) == 0 {
		return network.ErrBufferTooSmall
	}
	if e.closed.Load() {
		return fmt.Errorf("session %s closed", e.ID)
	}
	e.touch()

	switch data[0] {
	case network.MsgTypeInput:
		msg, err := e.protocol.DecodeInput(data)
		if err != nil {
			return err
		}
		if !e.inputAllowed() {
			e.log.Debug().Uint8("seq", msg.Sequence).Msg("Input rate exceeded, dropping")
			return nil
		}
		in := InputFromMessage(msg)
		e.post(func() { e.Session.SetInput(in) })

	case network.MsgTypeCommand:
		msg, err := e.protocol.DecodeCommand(data)
		if err != nil {
			return err
		}
		code := msg.Code
		e.post(func() { e.runCommand(code) })

	case network.MsgTypeSettings:
		msg, err := e.protocol.DecodeSettings(data)
		if err != nil {
			return err
		}
		settings := SettingsFromMessage(msg)
		e.post(func() { e.Session.ApplySettings(settings) })

	case network.MsgTypePing:
		ts, err := e.protocol.DecodePing(data)
		if err != nil {
			return err
		}
		e.send(e.protocol.EncodePong(ts))

	default:
		return network.ErrInvalidMessage
	}
	return nil
}

// inputAllowed caps inputs at MaxInputsPerTick per frame interval
func (e *Entry) inputAllowed() bool {
	e.rateMu.Lock()
	defer e.rateMu.Unlock()

	now := e.now()
	if now.Sub(e.rateWindow) >= config.FrameInterval {
		e.rateWindow = now
		e.inputsInWin = 0
	}
	e.inputsInWin++
	return e.inputsInWin <= config.MaxInputsPerTick
}

func (e *Entry) post(fn func()) {
	if !e.loop.Post(fn) {
		e.log.Warn().Msg("Loop rejected message")
	}
}

// runCommand executes a command on the loop goroutine
func (e *Entry) runCommand(code uint8) {
	s := e.Session
	var err error
	switch code {
	case network.CmdStart:
		err = s.Start()
	case network.CmdTogglePause:
		err = s.TogglePause()
	case network.CmdRestart:
		err = s.Restart()
	case network.CmdMenu:
		err = s.ToMenu()
	case network.CmdOpenSettings:
		err = s.OpenSettings()
	case network.CmdCloseSettings:
		err = s.CloseSettings()
	case network.CmdFocusLost:
		s.FocusLost()
	}

	if err != nil {
		e.log.Debug().Err(err).Uint8("command", code).Msg("Command rejected")
		e.sendError(network.ErrorCodeInvalidCommand, err.Error())
	}
}

// close stops the loop and disposes the session. After Stop returns the
// loop goroutine is gone, so Dispose runs here safely.
func (e *Entry) close() {
	if e.closed.Swap(true) {
		return
	}
	e.loop.Stop()
	e.Session.Dispose()
	e.log.Info().Msg("Session closed")
}
