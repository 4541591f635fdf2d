package main

// This file defines the main control flow: a demonstration driver that
// builds a sample function, runs the back-end passes over it, and renders
// the result.

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/arl/ssaback"
)

var (
	nregs    = flag.Int("nregs", 2, "register count of the demo class")
	graphdir = flag.String("graphdir", "", "enable graph rendering, using this output directory")
	print    = flag.Bool("print", false, "print the pass results to stdout")
	debug    = flag.Bool("debug", false, "enable pass debug logging")
)

const usage = `Usage: ssaback [flags...]

ssaback builds a demonstration SSA function and runs the back-end core
over it: phi-SCC cleanup, Belady spilling, frame layout, stack-pointer
simulation and SP rewiring.

Flags:
 -nregs=n	Size of the register class the spiller works against.
 -print		Print a summary of each pass to the standard output.
 -graphdir=dir	Write before/after dot renderings to this directory.
 -debug		Enable debug logging of the passes.
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if err := doMain(); err != nil {
		fmt.Fprintf(os.Stderr, "ssaback: %s\n", err)
		os.Exit(1)
	}
}

func doMain() error {
	cls := ssaback.NewRegClass("r", *nregs)
	gp := ssaback.NewRegClass("gp", 8)
	sp := gp.Regs[0]

	f := buildDemo(cls, sp)

	if err := render(f, "before"); err != nil {
		return err
	}

	if err := ssaback.RemovePhiSCCs(f); err != nil {
		return err
	}
	report(f, "phi-scc")

	if err := ssaback.SpillBelady(f, cls); err != nil {
		return err
	}
	report(f, "belady")

	ssaback.SortFrameEntities(f.Frame, true)
	if err := ssaback.LayoutFrameType(f.Frame, 0, 0); err != nil {
		return err
	}
	report(f, "frame")

	if err := ssaback.SimStackPointer(f, 0, nil); err != nil {
		return err
	}
	if err := ssaback.FixStackNodes(f, sp); err != nil {
		return err
	}
	report(f, "stack")

	return render(f, "after")
}

// buildDemo constructs a small loop with more live values than registers,
// a redundant phi cycle, and stack adjustment around the body.
func buildDemo(cls *ssaback.RegClass, sp *ssaback.Register) *ssaback.Func {
	f := ssaback.NewFunc("demo")

	entry := f.NewBlock()
	loop := f.NewBlock()
	done := f.NewBlock()
	entry.AddEdgeTo(loop)
	loop.AddEdgeTo(loop)
	loop.AddEdgeTo(done)

	spv := f.NewValue(entry, ssaback.OpSP, ssaback.ModePtr)
	spv.Reg = sp
	alloc := f.NewValue(entry, ssaback.OpIncSP, ssaback.ModePtr, spv)
	alloc.AuxInt = -24
	alloc.AuxAlign = 4
	alloc.Reg = sp

	c1 := f.NewValue(entry, ssaback.OpConst, ssaback.ModeInt)
	c1.AuxInt = 1
	c2 := f.NewValue(entry, ssaback.OpConst, ssaback.ModeInt)
	c2.AuxInt = 2
	c3 := f.NewValue(entry, ssaback.OpConst, ssaback.ModeInt)
	c3.AuxInt = 3

	// acc accumulates around the loop; r1/r2 are a redundant cycle over c1.
	acc := f.NewPhi(loop, ssaback.ModeInt, c2, nil)
	r1 := f.NewPhi(loop, ssaback.ModeInt, c1, nil)
	r2 := f.NewPhi(loop, ssaback.ModeInt, r1, r1)
	r1.SetArg(1, r2)

	t1 := f.NewValue(loop, ssaback.OpGeneric, ssaback.ModeInt, acc, r1)
	t2 := f.NewValue(loop, ssaback.OpGeneric, ssaback.ModeInt, t1, c3)
	next := f.NewValue(loop, ssaback.OpGeneric, ssaback.ModeInt, t2, c1)
	acc.SetArg(1, next)

	dealloc := f.NewValue(done, ssaback.OpIncSP, ssaback.ModePtr, alloc)
	dealloc.AuxInt = 24
	dealloc.Reg = sp
	f.NewValue(done, ssaback.OpGeneric, ssaback.ModeInt, next)

	for _, v := range []*ssaback.Value{c1, c2, c3, acc, r1, r2, t1, t2, next} {
		v.Class = cls
	}
	return f
}

func report(f *ssaback.Func, pass string) {
	if !*print {
		return
	}
	values := 0
	for _, b := range f.Blocks {
		values += len(b.Phis) + len(b.Values)
	}
	fmt.Printf("after %-8s %d blocks, %d values, %d frame entities, frame size %d\n",
		pass+":", len(f.Blocks), values, len(f.Frame.Entities), f.Frame.Size)
}

func render(f *ssaback.Func, stage string) error {
	if *graphdir == "" {
		return nil
	}
	if err := os.MkdirAll(*graphdir, 0755); err != nil {
		return err
	}
	name := filepath.Join(*graphdir, stage+".dot")
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := ssaback.WriteDot(out, f); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", name)
	return nil
}
