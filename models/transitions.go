package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStatus     = errors.New("unknown report status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotReopenable     = errors.New("only resolved, rejected or closed reports can be reopened")
)

// TransitionError describes a refused status change.
type TransitionError struct {
	From ReportStatus
	To   ReportStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move report from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ReopenStatus is where a reopened report lands.
const ReopenStatus = StatusAcknowledged

// forwardPath is the normal workflow order.
var forwardPath = []ReportStatus{
	StatusSubmitted,
	StatusAcknowledged,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
}

// IsTerminal reports whether s ends the workflow. Terminal reports only move
// again through Reopen.
func (s ReportStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected || s == StatusClosed
}

func pathIndex(s ReportStatus) int {
	for i, v := range forwardPath {
		if v == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether the workflow graph has an edge s -> target.
// A forward move may skip ahead along the path; rejected and closed are
// reachable from every non-terminal status. Stored values outside the
// enumeration can move to any canonical status.
func (s ReportStatus) CanTransitionTo(target ReportStatus) bool {
	if !target.IsValid() || s == target {
		return false
	}
	if !s.IsValid() {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if target == StatusRejected || target == StatusClosed {
		return true
	}
	return pathIndex(target) > pathIndex(s)
}

// NextStatuses lists the targets reachable from s in registry order.
func (s ReportStatus) NextStatuses() []ReportStatus {
	var out []ReportStatus
	for _, t := range statusOrder {
		if s.CanTransitionTo(t) {
			out = append(out, t)
		}
	}
	return out
}

// Reopen returns the status a terminal report moves to when reopened.
func Reopen(from ReportStatus) (ReportStatus, error) {
	if !from.IsTerminal() {
		return "", ErrNotReopenable
	}
	return ReopenStatus, nil
}

// TransitionPolicy decides whether a status change requested through the
// status update endpoint is allowed.
type TransitionPolicy interface {
	Name() string
	Check(from, to ReportStatus) error
	Allowed(from ReportStatus) []ReportStatus
}

// StrictTransitions enforces the workflow graph.
type StrictTransitions struct{}

func (StrictTransitions) Name() string { return "strict" }

func (StrictTransitions) Check(from, to ReportStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

func (StrictTransitions) Allowed(from ReportStatus) []ReportStatus {
	return from.NextStatuses()
}

// PermissiveTransitions accepts any canonical target, matching the old admin
// dialog that offered every status unconditionally.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Name() string { return "permissive" }

func (PermissiveTransitions) Check(from, to ReportStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from == to {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Allowed lists every canonical status except from itself.
func (PermissiveTransitions) Allowed(from ReportStatus) []ReportStatus {
	out := make([]ReportStatus, 0, len(statusOrder))
	for _, s := range statusOrder {
		if s != from {
			out = append(out, s)
		}
	}
	return out
}

// PolicyByName maps the STATUS_TRANSITIONS setting to a policy.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "strict":
		return StrictTransitions{}, nil
	case "permissive":
		return PermissiveTransitions{}, nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}

// TransitionGraph returns the adjacency list of policy for every canonical status.
func TransitionGraph(policy TransitionPolicy) map[ReportStatus][]ReportStatus {
	graph := make(map[ReportStatus][]ReportStatus, len(statusOrder))
	for _, s := range statusOrder {
		graph[s] = policy.Allowed(s)
	}
	return graph
}
