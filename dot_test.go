package ssaback

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDot(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("x", OpConst, ModeInt, 1),
			If("t1", "t2")),
		Bloc("t1", Goto("join")),
		Bloc("t2", Goto("join")),
		Bloc("join",
			Phi("p", ModeInt, "x", "x"),
			Valu("u", OpGeneric, ModeInt, 0, "p"),
			Exit()))

	var buf bytes.Buffer
	require.NoError(t, WriteDot(&buf, fn.f))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph"))
	assert.Contains(t, out, "subgraph cluster_0")
	// One data edge per argument: u -> p, p -> x twice.
	p := fn.value(t, "p")
	u := fn.value(t, "u")
	assert.Contains(t, out, nodeRef(u)+" -> "+nodeRef(p))
	assert.Equal(t, 2, strings.Count(out, nodeRef(p)+" -> "+nodeRef(fn.value(t, "x"))))
	// Empty blocks still anchor their control edges.
	assert.Contains(t, out, "empty1")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}

func nodeRef(v *Value) string {
	return fmt.Sprintf("n%d", v.ID)
}
