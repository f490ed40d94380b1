// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "go.uber.org/zap"

// logFixpointRound emits one debug line per Fixpoint iteration. The
// default logger is zap.NewNop(), so this costs nothing unless a caller
// opted into logging via WithLogger, mirroring the teacher's own
// debug-build-tag-gated logging (debug.go) without needing a build tag.
func (c *Context[Id]) logFixpointRound(round int, x *SDD) {
	c.logger.Debug("fixpoint round", zap.Int("round", round), zap.Uint64("sdd", x.serial))
}

// logCollect reports the before/after interior-node counts of a Collect
// pass.
func (c *Context[Id]) logCollect(before, after int) {
	c.logger.Info("collect", zap.Int("nodes_before", before), zap.Int("nodes_after", after))
}

// logInterrupted reports a cooperative-cancellation abort.
func (c *Context[Id]) logInterrupted() {
	c.logger.Warn("evaluation interrupted")
}
