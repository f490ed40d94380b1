// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "fmt"

// Variable is the library-assigned canonical name of a dimension, obtained
// by a monotone successor from a configured seed (spec.md §3). It plays the
// same role here as the teacher's int32 "level" field (nodes.go), except we
// never overload it with mark bits: Go structs give every field its own
// storage, so there is no need for the teacher's ismarked/marknode bit
// tricks (kept, in spirit, only where the domain genuinely calls for a
// packed encoding: see BitsetValues).
type Variable int32

// FirstVariable is the seed OrderBuilder.Compile starts assigning variables from.
const FirstVariable Variable = 0

// Next returns the successor of v.
func (v Variable) Next() Variable {
	return v + 1
}

func (v Variable) String() string {
	return fmt.Sprintf("var%d", int32(v))
}
