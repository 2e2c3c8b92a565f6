// Package examplesim provides a minimal deterministic simulation used
// by the netcode package's tests and the demo command: each registered
// player has an x-axis position that moves by its input's sign each
// frame. It mirrors original_source/src/game.rs's GameState/GameInput
// (a two-player x-axis mover), generalized to any number of players.
package examplesim

import (
	"encoding/binary"
	"io"

	"github.com/maxpoletaev/lockstep/internal/binario"
	"github.com/maxpoletaev/lockstep/netcode"
)

// Input is the per-player, per-frame command: -1, 0, or +1 on the
// x-axis. It is comparable and has a meaningful zero value, as the
// engine's default prediction policy requires.
type Input struct {
	XAxis int32
}

// State is an immutable snapshot of every player's position, suitable
// as the netcode.Simulation snapshot type: Sim never mutates a State
// that has already been handed out by SaveState.
type State struct {
	Frame     uint64
	Positions []int32
}

func (s State) clone() State {
	positions := make([]int32, len(s.Positions))
	copy(positions, s.Positions)

	return State{Frame: s.Frame, Positions: positions}
}

// Sim is a netcode.Simulation[Input, State] implementation.
type Sim struct {
	state State
}

// New returns a simulation with numPlayers players, all starting at
// position 0.
func New(numPlayers int) *Sim {
	return &Sim{state: State{Positions: make([]int32, numPlayers)}}
}

// AdvanceFrame consumes the latest input for each player (the last
// entry of each slice, per the held-input-count window convention) and
// moves that player one unit in the direction of its x-axis input.
func (s *Sim) AdvanceFrame(inputs netcode.InputSet[Input]) {
	for i, history := range inputs.Inputs {
		if len(history) == 0 {
			continue
		}

		latest := history[len(history)-1]

		switch {
		case latest.XAxis > 0:
			s.state.Positions[i]++
		case latest.XAxis < 0:
			s.state.Positions[i]--
		}
	}

	s.state.Frame++
}

// SaveState returns an independent snapshot of the current state.
func (s *Sim) SaveState() State {
	return s.state.clone()
}

// LoadState replaces the current state with an independent copy of
// state.
func (s *Sim) LoadState(state State) {
	s.state = state.clone()
}

// Positions returns the current position of every player.
func (s *Sim) Positions() []int32 {
	out := make([]int32, len(s.state.Positions))
	copy(out, s.state.Positions)

	return out
}

// Frame returns the number of frames this simulation instance has
// advanced.
func (s *Sim) Frame() uint64 {
	return s.state.Frame
}

var _ netcode.Simulation[Input, State] = (*Sim)(nil)

// EncodeState writes state to w, the same binario.Writer pattern
// netplay/game.go uses for bus.SaveState: a flat little-endian encoding
// with no reflection, suitable for the demo command's checkpoint file.
func EncodeState(w io.Writer, state State) error {
	bw := binario.NewWriter(w, binary.LittleEndian)

	bw.WriteUint64(state.Frame)
	bw.WriteUint32(uint32(len(state.Positions)))

	for _, p := range state.Positions {
		bw.WriteUint32(uint32(p))
	}

	return bw.Err()
}

// DecodeState reads a state previously written by EncodeState.
func DecodeState(r io.Reader) (State, error) {
	br := binario.NewReader(r, binary.LittleEndian)

	state := State{Frame: br.ReadUint64()}
	n := br.ReadUint32()
	state.Positions = make([]int32, n)

	for i := range state.Positions {
		state.Positions[i] = int32(br.ReadUint32())
	}

	if err := br.Err(); err != nil {
		return State{}, err
	}

	return state, nil
}
