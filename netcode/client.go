// Package netcode implements the rollback netcode state machine: it
// drives a host simulation forward, decides when to stall waiting for
// input, when to predict, when to roll back, and what packets to emit.
//
// The client is single-threaded and cooperative (spec.md §5): none of
// its methods block or yield, and callers must not call them
// concurrently from multiple goroutines.
package netcode

import (
	"fmt"
	"math"

	"github.com/maxpoletaev/lockstep/frame"
	"github.com/maxpoletaev/lockstep/history"
	"github.com/maxpoletaev/lockstep/packet"
)

// PlayerHandle identifies a registered player.
type PlayerHandle = packet.Handle

// PlayerKind classifies a registered player. The classification is
// fixed at registration and never changes.
type PlayerKind uint8

const (
	LocalPlayer PlayerKind = iota
	NetPlayer
)

// stallIIRWindow is the number of ticks the exponential moving average
// in StallRate is averaged over (10 seconds at 60Hz), matching the
// magic constant the original netcode.rs used for TEMP_rerequest_rate.
const stallIIRWindow = 600.0

type player[T comparable] struct {
	handle       PlayerHandle
	index        int
	kind         PlayerKind
	local        *history.Local[T]
	net          *history.Networked[T]
	networkDelay frame.Number
}

type rollbackTarget[S any] struct {
	frame frame.Number
	state S
}

// Client is the netcode state machine (spec component C5). The zero
// value is not usable; construct with NewClient.
type Client[T comparable, S any] struct {
	players []*player[T]

	currentFrame frame.Number
	skipFrames   int
	stallRate    float64

	heldInputCount   int
	inputDelay       int
	allowedRollback  int
	packetBufferSize int

	savedStates map[frame.Number]S
	rollbackTo  *rollbackTarget[S]

	recorder    Recorder
	lastOutcome tickOutcome
}

// NewClient returns a client with no players registered yet.
// heldInputCount is the trailing window of inputs passed to
// Simulation.AdvanceFrame on every call; it must be at least 1, since
// the garbage-collection interval is keyed on
// current_frame % held_input_count.
func NewClient[T comparable, S any](heldInputCount int) *Client[T, S] {
	if heldInputCount < 1 {
		panic("netcode: heldInputCount must be at least 1")
	}

	return &Client[T, S]{
		heldInputCount:   heldInputCount,
		packetBufferSize: 1,
		savedStates:      make(map[frame.Number]S),
	}
}

// AddLocalPlayer registers a player whose input is produced on this
// peer. index is a host-supplied stable identifier, not used by the
// engine itself. Handles are assigned in registration order, which also
// defines input-slice ordering in Simulation.AdvanceFrame.
func (c *Client[T, S]) AddLocalPlayer(index int) PlayerHandle {
	h := PlayerHandle(len(c.players))

	c.players = append(c.players, &player[T]{
		handle: h,
		index:  index,
		kind:   LocalPlayer,
		local:  history.NewLocal[T](),
	})

	return h
}

// AddNetPlayer registers a player whose input arrives over the network.
func (c *Client[T, S]) AddNetPlayer(index int) PlayerHandle {
	h := PlayerHandle(len(c.players))

	c.players = append(c.players, &player[T]{
		handle: h,
		index:  index,
		kind:   NetPlayer,
		net:    history.NewNetworked[T](),
	})

	return h
}

func (c *Client[T, S]) player(h PlayerHandle) *player[T] {
	if int(h) < 0 || int(h) >= len(c.players) {
		panic(fmt.Sprintf("netcode: unknown player handle %d", h))
	}

	return c.players[h]
}

// CurrentFrame returns the next frame the simulation will advance to.
func (c *Client[T, S]) CurrentFrame() frame.Number {
	return c.currentFrame
}

// InputDelay returns the current fixed input-delay window, in frames.
func (c *Client[T, S]) InputDelay() int {
	return c.inputDelay
}

// SetInputDelay sets the fixed input-delay window, in frames.
func (c *Client[T, S]) SetInputDelay(frames int) {
	c.inputDelay = frames
}

// AllowedRollback returns the maximum frames of speculative advance
// permitted before the engine must stall.
func (c *Client[T, S]) AllowedRollback() int {
	return c.allowedRollback
}

// SetAllowedRollback sets the maximum frames of speculative advance.
func (c *Client[T, S]) SetAllowedRollback(frames int) {
	c.allowedRollback = frames
}

// PacketBufferSize returns how many trailing local inputs are batched
// into each outgoing Inputs packet.
func (c *Client[T, S]) PacketBufferSize() int {
	return c.packetBufferSize
}

// SetPacketBufferSize sets how many trailing local inputs are batched
// into each outgoing Inputs packet.
func (c *Client[T, S]) SetPacketBufferSize(frames int) {
	if frames < 1 {
		panic("netcode: packetBufferSize must be at least 1")
	}

	c.packetBufferSize = frames
}

// NetworkDelay returns the expected transit delay, in frames, last set
// for the given handle via SetNetworkDelay. Defaults to 0.
func (c *Client[T, S]) NetworkDelay(h PlayerHandle) int {
	return int(c.player(h).networkDelay)
}

// SetNetworkDelay records the host's best estimate of the expected
// transit delay, in frames, for packets sent by the given handle. Used
// by the clock-skew formula in HandlePacket on subsequent Inputs
// packets from that handle.
func (c *Client[T, S]) SetNetworkDelay(h PlayerHandle, frames int) {
	c.player(h).networkDelay = frame.Number(frames)
}

// StallRate returns an exponential-moving-average fraction of recent
// ticks spent stalled waiting for input (Phase E), updated once per
// Update call that advances, speculates, or stalls. Intended for
// diagnostics/metrics, not for control flow.
func (c *Client[T, S]) StallRate() float64 {
	return c.stallRate
}

func (c *Client[T, S]) updateStallRate(stalled bool) {
	c.stallRate = c.stallRate * (stallIIRWindow - 1) / stallIIRWindow

	if stalled {
		c.stallRate += 1.0 / stallIIRWindow
	}
}

// FramesForRoundTrip converts an observed round-trip time into a
// recommended input-delay window, generalizing the ceiling-division
// formula the original implementation hard-coded against a 32ms tick.
// The engine itself never measures wall-clock time (spec.md §5); hosts
// that do may feed the result into SetInputDelay.
func FramesForRoundTrip(rttMillis, msPerFrame float64) int {
	if msPerFrame <= 0 {
		panic("netcode: msPerFrame must be positive")
	}

	return int(math.Ceil((rttMillis + 3.0) / msPerFrame))
}

// HandleLocalInput records a local player's input for the current tick
// and returns the Inputs packet the host should transmit, if any.
//
// The target frame is current_frame+input_delay. If that frame already
// has a recorded input (the host called this twice in the same tick),
// the call is a no-op and returns false: this is what makes the method
// safe to call defensively every frame even when the caller isn't sure
// whether it already produced this tick's input.
func (c *Client[T, S]) HandleLocalInput(value T, h PlayerHandle) (packet.Packet[T], bool) {
	p := c.player(h)
	if p.kind != LocalPlayer {
		panic(fmt.Sprintf("netcode: handle %d is not a local player", h))
	}

	target := c.currentFrame + frame.Number(c.inputDelay)
	if p.local.HasInput(target) {
		var zero packet.Packet[T]
		return zero, false
	}

	placed := p.local.AddInput(value)

	start, values := p.local.GetInputs(placed, c.packetBufferSize)
	batch := append(make([]T, 0, len(values)), values...)

	return packet.Inputs(h, c.currentFrame, start, batch), true
}

// HandlePacket processes a packet received from a peer and returns a
// reply packet the host should transmit, if any.
func (c *Client[T, S]) HandlePacket(p packet.Packet[T]) (packet.Packet[T], bool) {
	switch p.Kind() {
	case packet.KindInputs:
		return c.handleInputsPacket(p)
	case packet.KindRequest:
		return c.handleRequestPacket(p)
	case packet.KindProvide:
		return c.handleProvidePacket(p)
	default:
		panic(fmt.Sprintf("netcode: unknown packet kind %v", p.Kind()))
	}
}

func (c *Client[T, S]) handleInputsPacket(p packet.Packet[T]) (packet.Packet[T], bool) {
	data, _ := p.AsInputs()

	delay := c.player(data.Sender).networkDelay
	expected := data.SentOnFrame + delay

	if c.currentFrame > expected {
		c.skipFrames = int(c.currentFrame - expected)
	} else {
		c.skipFrames = 0
	}

	if c.recorder != nil {
		c.recorder.SkipFrames(c.skipFrames)
	}

	for i, v := range data.Values {
		c.handleNetInput(data.StartFrame+frame.Number(i), v, data.Sender)
	}

	var zero packet.Packet[T]

	return zero, false
}

func (c *Client[T, S]) handleRequestPacket(p packet.Packet[T]) (packet.Packet[T], bool) {
	data, _ := p.AsRequest()

	var entries []packet.ProvideEntry[T]

	for _, pl := range c.players {
		if pl.kind != LocalPlayer {
			continue
		}

		start, values := pl.local.GetInputs(data.Frame, 1)
		if len(values) == 0 {
			continue
		}

		entries = append(entries, packet.ProvideEntry[T]{
			Handle: pl.handle,
			Frame:  start,
			Values: append([]T(nil), values...),
		})
	}

	if len(entries) == 0 {
		var zero packet.Packet[T]
		return zero, false
	}

	return packet.Provide(entries), true
}

func (c *Client[T, S]) handleProvidePacket(p packet.Packet[T]) (packet.Packet[T], bool) {
	data, _ := p.AsProvide()

	for _, entry := range data.Entries {
		for i, v := range entry.Values {
			c.handleNetInput(entry.Frame+frame.Number(i), v, entry.Handle)
		}
	}

	var zero packet.Packet[T]

	return zero, false
}

// handleNetInput inserts a received or re-derived value into the
// relevant networked history and reacts to the resulting prediction
// outcome (spec.md §4.4).
func (c *Client[T, S]) handleNetInput(f frame.Number, value T, h PlayerHandle) {
	p := c.player(h)
	if p.kind != NetPlayer {
		panic(fmt.Sprintf("netcode: handle %d is not a networked player", h))
	}

	// A frame older than the history's front has already been garbage
	// collected; this is a stale/duplicate packet, tolerated silently
	// (spec.md §7 recoverable protocol conditions).
	if f < p.net.Front() {
		return
	}

	result := p.net.AddInput(f, value)
	c.recordPrediction(result)

	switch result {
	case history.Unpredicted:
		// Nothing more to do.

	case history.Correct:
		if !c.anyPredictedAt(f) {
			delete(c.savedStates, f)
		}

	case history.Wrong:
		state, ok := c.savedStates[f]
		if !ok {
			if c.rollbackTo != nil && c.rollbackTo.frame <= f {
				// An earlier rollback already subsumes this frame; the
				// saved state for f was already consumed or never
				// needed. Tolerate, per spec.md §9 open questions.
				return
			}

			panic(fmt.Sprintf("netcode: wrong prediction at frame %d with no saved state and no pending rollback", f))
		}

		delete(c.savedStates, f)

		if c.rollbackTo == nil || f < c.rollbackTo.frame {
			c.rollbackTo = &rollbackTarget[S]{frame: f, state: state}
		}
	}
}

// anyPredictedAt reports whether any networked history still has a
// Predicted slot at f.
func (c *Client[T, S]) anyPredictedAt(f frame.Number) bool {
	for _, p := range c.players {
		if p.kind != NetPlayer {
			continue
		}

		if f < p.net.Front() {
			continue
		}

		if p.net.IsPredictedInput(f) {
			return true
		}
	}

	return false
}

func (c *Client[T, S]) allCanonicalAt(f frame.Number) bool {
	for _, p := range c.players {
		switch p.kind {
		case LocalPlayer:
			if !p.local.HasInput(f) {
				return false
			}
		case NetPlayer:
			if !p.net.HasInput(f) {
				return false
			}
		}
	}

	return true
}

func (c *Client[T, S]) collectInputs(f frame.Number) InputSet[T] {
	out := make([][]T, len(c.players))

	for i, p := range c.players {
		var values []T

		switch p.kind {
		case LocalPlayer:
			_, values = p.local.GetInputs(f, c.heldInputCount)
		case NetPlayer:
			_, values = p.net.GetInputs(f, c.heldInputCount)
		}

		out[i] = append(make([]T, 0, len(values)), values...)
	}

	return InputSet[T]{Inputs: out}
}

func (c *Client[T, S]) oldestSavedFrame() (frame.Number, bool) {
	var (
		oldest frame.Number
		found  bool
	)

	for f := range c.savedStates {
		if !found || f < oldest {
			oldest = f
			found = true
		}
	}

	return oldest, found
}

// tickOutcome classifies how the most recent Update call dispatched,
// mirroring the three-way split netcode.rs's Action enum made explicit
// (DoNothing/Request/RunInput) but spec.md folds into update's internal
// phase logic instead of handing back to the host. It is exposed only
// for diagnostics (LastOutcome) and tests, never as a control-flow
// return value: the host only ever sees the optional reply packet.
type tickOutcome uint8

const (
	tickSkipped tickOutcome = iota
	tickAdvanced
	tickSpeculated
	tickStalled
)

func (o tickOutcome) String() string {
	switch o {
	case tickSkipped:
		return "skipped"
	case tickAdvanced:
		return "advanced"
	case tickSpeculated:
		return "speculated"
	case tickStalled:
		return "stalled"
	default:
		return fmt.Sprintf("tickOutcome(%d)", uint8(o))
	}
}

// LastOutcome reports how the most recently completed Update call
// dispatched: whether it burned a clock-skew skip tick, advanced
// canonically, advanced speculatively, or stalled waiting for input.
// Intended for diagnostics and tests, not control flow.
func (c *Client[T, S]) LastOutcome() tickOutcome {
	return c.lastOutcome
}

// Update executes one simulation tick (spec.md §4.5): it resolves any
// pending rollback, then either advances the simulation, speculatively
// advances it, or stalls and asks the peer to re-send input. It returns
// the Request packet the host should transmit, if the tick stalled.
func (c *Client[T, S]) Update(sim Simulation[T, S]) (packet.Packet[T], bool) {
	c.runRollback(sim)

	if c.recorder != nil {
		c.recorder.SavedStates(len(c.savedStates))
	}

	if c.skipFrames > 0 {
		c.skipFrames--
		c.lastOutcome = tickSkipped

		var zero packet.Packet[T]

		return zero, false
	}

	if c.allCanonicalAt(c.currentFrame) {
		c.runGC()
		sim.AdvanceFrame(c.collectInputs(c.currentFrame))
		c.updateStallRate(false)
		c.currentFrame++
		c.lastOutcome = tickAdvanced

		if c.recorder != nil {
			c.recorder.FrameAdvanced()
		}

		var zero packet.Packet[T]

		return zero, false
	}

	if c.canSpeculate() {
		c.savedStates[c.currentFrame] = sim.SaveState()

		for _, p := range c.players {
			if p.kind == NetPlayer && p.net.IsEmptyInput(c.currentFrame) {
				p.net.Predict(c.currentFrame)
			}
		}

		sim.AdvanceFrame(c.collectInputs(c.currentFrame))
		c.updateStallRate(false)
		c.currentFrame++
		c.lastOutcome = tickSpeculated

		if c.recorder != nil {
			c.recorder.FrameSpeculated()
		}

		var zero packet.Packet[T]

		return zero, false
	}

	c.updateStallRate(true)
	c.lastOutcome = tickStalled

	if c.recorder != nil {
		c.recorder.FrameStalled()
	}

	return packet.Request[T](c.currentFrame), true
}

// runRollback executes Phase A: if a rollback is pending, reload the
// saved state and re-advance up to the current frame with corrected
// inputs.
func (c *Client[T, S]) runRollback(sim Simulation[T, S]) {
	if c.rollbackTo == nil {
		return
	}

	target := c.rollbackTo
	c.rollbackTo = nil

	sim.LoadState(target.state)

	if c.recorder != nil {
		c.recorder.RollbackStarted(int(c.currentFrame - target.frame))
	}

	for f := target.frame; f < c.currentFrame; f++ {
		for _, p := range c.players {
			if p.kind == NetPlayer && p.net.IsEmptyInput(f) {
				panic(fmt.Sprintf("netcode: cannot roll back through empty input at frame %d (handle %d)", f, p.handle))
			}
		}

		if c.anyPredictedAt(f) {
			c.savedStates[f] = sim.SaveState()

			for _, p := range c.players {
				if p.kind == NetPlayer && p.net.IsPredictedInput(f) {
					p.net.Repredict(f)
				}
			}
		} else {
			delete(c.savedStates, f)
		}

		sim.AdvanceFrame(c.collectInputs(f))
	}
}

// runGC executes the garbage-collection step of Phase C.
func (c *Client[T, S]) runGC() {
	if uint64(c.currentFrame)%uint64(c.heldInputCount) != 0 {
		return
	}

	window := frame.Number(c.heldInputCount + c.allowedRollback)

	var target frame.Number
	if c.currentFrame > window {
		target = c.currentFrame - window
	}

	for _, p := range c.players {
		switch p.kind {
		case LocalPlayer:
			p.local.Clean(target)
		case NetPlayer:
			p.net.Clean(target)
		}
	}
}

// canSpeculate implements the Phase D admission rule: the oldest
// outstanding saved state must be within allowed_rollback of
// current_frame, and current_frame must exceed allowed_rollback (so
// there is always at least one real frame to roll back to).
func (c *Client[T, S]) canSpeculate() bool {
	if c.currentFrame <= frame.Number(c.allowedRollback) {
		return false
	}

	oldest, ok := c.oldestSavedFrame()
	if !ok {
		return true
	}

	return c.currentFrame-oldest <= frame.Number(c.allowedRollback)
}
