package netcode

// InputSet carries one frame's worth of input, one slice per registered
// player, ordered by registration (handle order). Each slice holds up to
// the client's held-input-count trailing entries ending at the frame
// being advanced; simulations that only need the latest value read
// index len(slice)-1.
type InputSet[T any] struct {
	Inputs [][]T
}

// Simulation is the capability contract the host's deterministic
// simulation must implement (spec component C6). AdvanceFrame must be a
// pure function of the current state and the given inputs: the same
// starting state and input sequence must always produce the same
// resulting state. LoadState(SaveState()) must be the identity.
type Simulation[T any, S any] interface {
	// AdvanceFrame consumes one frame of input and mutates state
	// deterministically.
	AdvanceFrame(inputs InputSet[T])

	// SaveState produces an independent, restorable snapshot of all
	// state that can affect future frames.
	SaveState() S

	// LoadState replaces all simulation state with the given snapshot.
	LoadState(state S)
}
