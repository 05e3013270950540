package testutil

import "fmt"

// FixedIDGenerator hands out a predetermined sequence of run IDs, so tests
// that record history get byte-identical rows on every execution. When the
// sequence runs out it continues with numbered fallbacks rather than
// failing mid-test.
//
// Implements history.IDGenerator.
type FixedIDGenerator struct {
	IDs []string
	i   int
}

// NewRunID returns the next predetermined ID.
func (g *FixedIDGenerator) NewRunID() string {
	if g.i < len(g.IDs) {
		id := g.IDs[g.i]
		g.i++
		return id
	}
	g.i++
	return fmt.Sprintf("fixed-run-%04d", g.i)
}
