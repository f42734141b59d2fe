package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine.
var (
	// ErrNoRenderer is returned by New when the config names no renderer.
	ErrNoRenderer = errors.New("engine: config has no renderer")

	// ErrHookOrder matches hook order violations via errors.Is.
	ErrHookOrder = errors.New("engine: hook order changed between renders")
)

// HookOrderError reports a component whose hook calls did not line up with
// its previous render. The pass that detected it was aborted; the committed
// tree is untouched.
type HookOrderError struct {
	Component string // component name, as reported by vdom.NodeType.String
	Prev      int    // hook count on the previous render
	Got       int    // hook calls observed this render
}

// Error implements the error interface.
func (e *HookOrderError) Error() string {
	return fmt.Sprintf("engine: hook order changed in %s: previous render had %d hooks, this render called %d",
		e.Component, e.Prev, e.Got)
}

// Is makes the error match ErrHookOrder with errors.Is.
func (e *HookOrderError) Is(target error) bool {
	return target == ErrHookOrder
}

// OpError wraps a renderer failure with the operation and node type that
// triggered it.
type OpError struct {
	Op  string // renderer operation: "create", "insert", "remove", ...
	Tag string // node type the operation targeted
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("engine: %s %q: %v", e.Op, e.Tag, e.Err)
}

// Unwrap returns the underlying renderer error.
func (e *OpError) Unwrap() error {
	return e.Err
}
