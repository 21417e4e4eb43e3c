package app

import "errors"

var (
	// ErrRejected refuses a transport session at connect time. No state is
	// created for a rejected connection.
	ErrRejected = errors.New("connection rejected")

	// ErrTargetOffline reports an empty registry lookup back to the sender.
	// Non-fatal: for private messages the persisted copy still lands in
	// history.
	ErrTargetOffline = errors.New("target not connected")

	// ErrDelivery reports a forward that could not be handed to the target
	// transport. The relay never blocks on a slow peer.
	ErrDelivery = errors.New("delivery failed")
)

// ValidationError marks an event with missing or empty required fields.
// Reported to the sender only; no side effect is performed.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string { return e.Cause.Error() }
func (e *ValidationError) Unwrap() error { return e.Cause }

// StoreWriteError marks a failed message persist. The forward step is
// skipped so that "stored" and "delivered" stay consistent for history.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string { return "message store write: " + e.Err.Error() }
func (e *StoreWriteError) Unwrap() error { return e.Err }
