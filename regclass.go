package ssaback

// This file defines register classes.

import "strconv"

// A Register is one physical register.
type Register struct {
	Name  string
	Index int
	Class *RegClass
}

func (r *Register) String() string { return r.Name }

// A RegClass is a set of interchangeable physical registers sharing a mode.
// The spiller works on one class at a time; NumRegs bounds the working set.
type RegClass struct {
	Name string
	Regs []*Register
}

// NumRegs returns the cardinality of the class.
func (c *RegClass) NumRegs() int { return len(c.Regs) }

func (c *RegClass) String() string { return c.Name }

// NewRegClass creates a class of n registers named name0..name<n-1>.
func NewRegClass(name string, n int) *RegClass {
	c := &RegClass{Name: name}
	for i := 0; i < n; i++ {
		c.Regs = append(c.Regs, &Register{
			Name:  name + strconv.Itoa(i),
			Index: i,
			Class: c,
		})
	}
	return c
}
