// Package errors provides coded, actionable diagnostics for the hook runtime.
//
// Every fatal usage error and every recovered diagnostic the runtime emits
// carries a short code (e.g. "H001") that maps to a registered template:
//   - a one-line message
//   - a longer explanation of what went wrong
//   - a hint on how to fix it
//
// # Error Categories
//
//   - hooks: hook-order and slot-store violations
//   - effect: panics raised by effect setup or cleanup functions
//   - context: context lookups that could not be satisfied
//   - config: invalid configuration files
//   - cli: command-line usage problems
//
// # Usage
//
//	err := errors.New("H001").
//	    WithInstance("Counter#7").
//	    WithSlot(2).
//	    WithDetail("expected State, got Effect")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR H001: Hook order changed between renders
//	//
//	//   instance Counter#7, slot 2
//	//
//	//   expected State, got Effect
//	//
//	//   Hint: Call hooks unconditionally, in the same order, on every render.
package errors
