// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package sdd defines Hierarchical Set Decision Diagrams (SDD) and the
homomorphism algebra used to transform them.

An SDD is a canonical, maximally shared directed acyclic graph encoding a
(possibly huge) set of tuples over user identifiers, whose domains are
either flat value sets or nested SDDs. Two terminal nodes, Zero (the empty
set) and One (the singleton of the empty tuple), are unique; every other
node is either Flat (one user variable, arcs labelled by a Values set) or
Hier (one user variable, arcs labelled by a nested SDD). A Context owns the
unique tables that make every constructed node canonical: two structurally
equal nodes always share the same handle.

A homomorphism is a composable function on SDDs, built from a small fixed
algebra (Identity, Constant, Cons, Composition, Sum, Intersection, Local,
Inductive, Fixpoint, ...) and evaluated against an SDD under a Variable
Order. Homomorphisms are hash-consed exactly like SDD nodes, and every
evaluation step is memoized in an operation cache shared across the whole
computation, which is what turns what would otherwise be an exponential
recursion into an algorithm polynomial in the number of distinct nodes.

Basics

Each Context is built for a fixed Identifier type (the type parameter Id),
used to name the dimensions of the tuples it manipulates; the SDD node
algebra itself (Universe, SDD) is not parameterized by Id. Each Context
owns its own Universe (SDD unique table and SDD operation cache) and its
own homomorphism unique table and evaluation cache; nothing is shared
between two Contexts.

Use of third-party libraries

Configuration presets can be loaded from YAML (gopkg.in/yaml.v3). Breadcrumb
error chains are built on github.com/pkg/errors. Fixpoint iterations,
explicit collection passes and interrupted evaluations are logged through
a structured go.uber.org/zap logger that is a no-op by default. The Expression
homomorphism variant compiles user expressions with
github.com/expr-lang/expr. None of this is required to use the library: a
Context created with no options needs no configuration file and logs
nothing.

Automatic memory management

The library is written in pure Go. We take care of unique-table sizing and
LFU cache eviction directly in the library; ordinary Go garbage collection
manages the node arena itself, and Context.Collect runs an explicit
mark-sweep pass over the SDD unique table, keeping only nodes reachable
from the roots it is given (there is no background collection of
unreachable unique-table entries, and the homomorphism table is not
swept).
*/
package sdd
