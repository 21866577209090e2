package entities

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies a non-fatal problem found during a calculation run
type DiagnosticKind int

const (
	CycleDetected DiagnosticKind = iota
	DepthExceeded
	DanglingReference
	DegenerateAverage
	InvalidInput
	KindMismatch
)

// String method for DiagnosticKind enum
func (k DiagnosticKind) String() string {
	switch k {
	case CycleDetected:
		return "CycleDetected"
	case DepthExceeded:
		return "DepthExceeded"
	case DanglingReference:
		return "DanglingReference"
	case DegenerateAverage:
		return "DegenerateAverage"
	case InvalidInput:
		return "InvalidInput"
	case KindMismatch:
		return "KindMismatch"
	default:
		return "Unknown"
	}
}

// IsStructural reports whether the diagnostic describes malformed BOM data
func (k DiagnosticKind) IsStructural() bool {
	switch k {
	case CycleDetected, DepthExceeded, DanglingReference, KindMismatch:
		return true
	default:
		return false
	}
}

// Diagnostic is a per-item or per-branch problem collected alongside results
type Diagnostic struct {
	Kind    DiagnosticKind
	ItemID  ItemID
	Path    []ItemID
	Message string
}

// String renders the diagnostic on one line
func (d Diagnostic) String() string {
	if len(d.Path) == 0 {
		return fmt.Sprintf("%s [%s]: %s", d.Kind, d.ItemID, d.Message)
	}
	return fmt.Sprintf("%s [%s] path %s: %s", d.Kind, d.ItemID, FormatPath(d.Path), d.Message)
}

// FormatPath joins a BOM path with arrows
func FormatPath(path []ItemID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}
