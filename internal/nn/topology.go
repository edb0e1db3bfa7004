package nn

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrCycleDetected = errors.New("cycle detected in hidden neurons")
	ErrUnknownNeuron = errors.New("unknown hidden neuron")
	ErrNilNeuron     = errors.New("nil neuron")
)

// CycleError reports a directed cycle among hidden neurons. Cycle lists the
// participating ids in traversal order; each one depends on the next, and the
// last one depends on the first.
type CycleError struct {
	Cycle []NeuronID
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return ErrCycleDetected.Error()
	}
	parts := make([]string, 0, len(e.Cycle)+1)
	for _, id := range e.Cycle {
		parts = append(parts, fmt.Sprint(id))
	}
	parts = append(parts, fmt.Sprint(e.Cycle[0]))
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// UnknownNeuronError reports a hidden connection to an id that is not a hidden
// neuron of the organism. When FromOutput is set the connection belongs to the
// output neuron at index Output and Neuron is unused.
type UnknownNeuronError struct {
	Neuron     NeuronID
	Missing    NeuronID
	FromOutput bool
	Output     int
}

func (e *UnknownNeuronError) Error() string {
	if e.FromOutput {
		return fmt.Sprintf("%s: output %d references %d", ErrUnknownNeuron, e.Output, e.Missing)
	}
	return fmt.Sprintf("%s: neuron %d references %d", ErrUnknownNeuron, e.Neuron, e.Missing)
}

func (e *UnknownNeuronError) Is(target error) bool {
	return target == ErrUnknownNeuron
}

// NilNeuronError reports a nil entry in the hidden map or the output slice.
type NilNeuronError struct {
	Neuron     NeuronID
	FromOutput bool
	Output     int
}

func (e *NilNeuronError) Error() string {
	if e.FromOutput {
		return fmt.Sprintf("%s: output %d", ErrNilNeuron, e.Output)
	}
	return fmt.Sprintf("%s: hidden %d", ErrNilNeuron, e.Neuron)
}

func (e *NilNeuronError) Is(target error) bool {
	return target == ErrNilNeuron
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	visited
)

type sortFrame struct {
	id   NeuronID
	deps []NeuronID
	next int
}

// TopologicalOrder orders hidden neurons so that every neuron comes after all
// hidden neurons it reads from. Roots and dependencies are walked in ascending
// id order, so the result is deterministic for a given topology.
//
// The walk keeps its own stack, so graph depth is bounded by memory rather
// than by goroutine stack size.
func TopologicalOrder(hidden map[NeuronID]*Neuron) ([]NeuronID, error) {
	order := make([]NeuronID, 0, len(hidden))
	state := make(map[NeuronID]visitState, len(hidden))
	var stack []sortFrame

	for _, root := range slices.Sorted(maps.Keys(hidden)) {
		if state[root] != unvisited {
			continue
		}
		state[root] = inProgress
		stack = append(stack[:0], sortFrame{id: root, deps: dependencies(hidden[root])})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(top.deps) {
				state[top.id] = visited
				order = append(order, top.id)
				stack = stack[:len(stack)-1]
				continue
			}

			from := top.id
			dep := top.deps[top.next]
			top.next++

			if _, ok := hidden[dep]; !ok {
				return nil, &UnknownNeuronError{Neuron: from, Missing: dep}
			}
			switch state[dep] {
			case inProgress:
				return nil, &CycleError{Cycle: cycleOnStack(stack, dep)}
			case unvisited:
				state[dep] = inProgress
				stack = append(stack, sortFrame{id: dep, deps: dependencies(hidden[dep])})
			}
		}
	}
	return order, nil
}

// Levels groups a topological order into dependency levels. Neurons in level 0
// read no hidden neuron; neurons in level k read only from levels below k.
// Order within a level follows order.
func Levels(hidden map[NeuronID]*Neuron, order []NeuronID) [][]NeuronID {
	depth := make(map[NeuronID]int, len(order))
	var levels [][]NeuronID
	for _, id := range order {
		d := 0
		if n := hidden[id]; n != nil {
			for dep := range n.Hidden {
				if dd := depth[dep] + 1; dd > d {
					d = dd
				}
			}
		}
		depth[id] = d
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	return levels
}

// checkNeurons reports the first nil neuron, hidden ids first in ascending
// order, then outputs.
func checkNeurons(hidden map[NeuronID]*Neuron, outputs []*Neuron) error {
	for _, id := range slices.Sorted(maps.Keys(hidden)) {
		if hidden[id] == nil {
			return &NilNeuronError{Neuron: id}
		}
	}
	for i, n := range outputs {
		if n == nil {
			return &NilNeuronError{FromOutput: true, Output: i}
		}
	}
	return nil
}

// checkOutputs reports the first output neuron that reads from a hidden id the
// organism does not have.
func checkOutputs(hidden map[NeuronID]*Neuron, outputs []*Neuron) error {
	for i, n := range outputs {
		for _, dep := range dependencies(n) {
			if _, ok := hidden[dep]; !ok {
				return &UnknownNeuronError{Missing: dep, FromOutput: true, Output: i}
			}
		}
	}
	return nil
}

func dependencies(n *Neuron) []NeuronID {
	if n == nil || len(n.Hidden) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(n.Hidden))
}

// cycleOnStack returns the path from the in-progress frame for id to the top
// of the stack. Those frames are exactly the neurons on the cycle.
func cycleOnStack(stack []sortFrame, id NeuronID) []NeuronID {
	start := len(stack) - 1
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].id == id {
			start = i
			break
		}
	}
	cycle := make([]NeuronID, 0, len(stack)-start)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.id)
	}
	return cycle
}
