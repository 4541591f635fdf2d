package ssaback

// This file emits a rendering of the SSA graph in graphviz dot form, one
// subgraph per block.  Phis are pink, spill pseudo ops blue, everything
// else plain; control edges are bold, data edges open arrows.

import (
	"fmt"
	"io"
)

// WriteDot writes f to w as a dot digraph.
func WriteDot(w io.Writer, f *Func) error {
	if _, err := fmt.Fprintf(w, "digraph %q {\n", f.Name); err != nil {
		return err
	}
	fmt.Fprintln(w, `  node [shape="box",fontname="monospace"];`)
	fmt.Fprintln(w, `  edge [arrowhead="open"];`)

	for _, b := range f.Blocks {
		fmt.Fprintf(w, "  subgraph cluster_%d {\n", b.ID)
		fmt.Fprintf(w, "    label=%q;\n", b.String())

		emit := func(v *Value) {
			var fill string
			switch v.Op {
			case OpPhi:
				fill = "#ffe0e0"
			case OpSpill, OpReload:
				fill = "#e0f0ff"
			default:
				fill = "#ffffff"
			}
			fmt.Fprintf(w, "    n%d [style=filled,fillcolor=%q,label=%q];\n",
				v.ID, fill, v.LongString())
		}
		for _, v := range b.Phis {
			emit(v)
		}
		for _, v := range b.Values {
			emit(v)
		}
		fmt.Fprintln(w, "  }")
	}

	// Data edges, drawn from user to operand.
	for _, b := range f.Blocks {
		for _, v := range b.Phis {
			for _, a := range v.Args {
				fmt.Fprintf(w, "  n%d -> n%d;\n", v.ID, a.ID)
			}
		}
		for _, v := range b.Values {
			for _, a := range v.Args {
				fmt.Fprintf(w, "  n%d -> n%d;\n", v.ID, a.ID)
			}
		}
	}

	// Control edges between block anchors.  A block with no values at
	// all gets a bare point node so the edge has somewhere to land.
	anchor := func(blk *Block) string {
		if len(blk.Values) > 0 {
			return fmt.Sprintf("n%d", blk.Values[0].ID)
		}
		if len(blk.Phis) > 0 {
			return fmt.Sprintf("n%d", blk.Phis[0].ID)
		}
		return fmt.Sprintf("empty%d", blk.ID)
	}
	for _, b := range f.Blocks {
		if len(b.Values) == 0 && len(b.Phis) == 0 {
			fmt.Fprintf(w, "  empty%d [shape=point,label=\"\"];\n", b.ID)
		}
	}
	for _, b := range f.Blocks {
		for _, e := range b.Succs {
			fmt.Fprintf(w, "  %s -> %s [style=bold,ltail=cluster_%d,lhead=cluster_%d];\n",
				anchor(b), anchor(e.Block()), b.ID, e.Block().ID)
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
