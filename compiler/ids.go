package compiler

import (
	"strconv"

	"github.com/google/uuid"
)

// IDSource hands out the unique ids placed on every emitted element.
type IDSource interface {
	Next() string
}

// SequentialIDs produces n1, n2, ... and is reproducible across runs.
type SequentialIDs struct {
	next int
}

func (s *SequentialIDs) Next() string {
	s.next++
	return "n" + strconv.Itoa(s.next)
}

// UUIDs produces random version 4 UUIDs.
type UUIDs struct{}

func (UUIDs) Next() string { return uuid.NewString() }

// NewIDSource returns the id source named by a config value: "uuid" or
// "sequential" (the default for anything else).
func NewIDSource(name string) IDSource {
	if name == "uuid" {
		return UUIDs{}
	}
	return &SequentialIDs{}
}
