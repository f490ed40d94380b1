// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// _MAXVAR bounds the number of variables a single Order can assign. We keep
// the teacher's choice of reserving the top bits of a 32-bit word (there:
// for GC marking, here: so Variable stays a small, cheaply hashed int32);
// OrderBuilder.Compile rejects any identifier that would be assigned a
// Variable past this bound.
const _MAXVAR int32 = 0x1FFFFF

// _DEFAULTCACHESIZE is the default number of entries an operation cache is
// constructed with when no Option overrides it.
const _DEFAULTCACHESIZE int = 10000
