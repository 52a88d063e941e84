package pipeline

import (
	"context"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// State is everything one run knows about one PDF. Nodes fill it in order.
type State struct {
	PDF        []byte
	OCREnabled bool

	Text      TextLayer
	Pages     []tables.PageResult
	Collector tables.Collector

	OCRPages    []int // 0-based, pages where OCR ran
	OCRFailures []int // 0-based, pages where rendering or recognition failed

	Dataset *tables.Dataset
}

type node struct {
	stage string
	run   func(context.Context, *State) error
}

// RunWorkflow executes the nodes in order and stops at the first error.
func RunWorkflow(ctx context.Context, s *State, nodes []node) error {
	for _, n := range nodes {
		if err := n.run(ctx, s); err != nil {
			return fail(n.stage, err)
		}
	}
	return nil
}
