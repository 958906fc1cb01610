package catalog

import (
	"context"
	"testing"

	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mark(key string) miniflow.NodeFunc {
	return func(ctx miniflow.Context, s miniflow.State) (miniflow.Result, error) {
		s[key] = true
		return miniflow.Continue(), nil
	}
}

func TestRegisterAndLookup(t *testing.T) {
	c := New()
	c.Register("util.mark", mark("m"))

	fn, ok := c.Lookup("util.mark")
	require.True(t, ok)

	s := miniflow.State{}
	_, err := fn(miniflow.NewContext(context.Background()), s)
	require.NoError(t, err)
	assert.Equal(t, true, s["m"])

	_, ok = c.Lookup("util.missing")
	assert.False(t, ok)
}

func TestKeysSorted(t *testing.T) {
	c := New()
	c.Register("z.last", mark("z"))
	c.Register("a.first", mark("a"))

	assert.Equal(t, []string{"a.first", "z.last"}, c.Keys())
}

func TestResolve_KeepsOrder(t *testing.T) {
	c := New()
	c.Register("k1", mark("1"))
	c.Register("k2", mark("2"))

	nodes, err := c.Resolve([]NodeRef{
		{Name: "second", Key: "k2"},
		{Name: "first", Key: "k1"},
		{Name: "again", Key: "k2"},
	})
	require.NoError(t, err)

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
		assert.NotNil(t, n.Fn)
	}
	assert.Equal(t, []string{"second", "first", "again"}, names)
}

func TestResolve_UnknownKey(t *testing.T) {
	c := New()
	c.Register("k1", mark("1"))

	_, err := c.Resolve([]NodeRef{
		{Name: "ok", Key: "k1"},
		{Name: "bad", Key: "nope"},
		{Name: "worse", Key: "also-nope"},
	})

	var unknown *UnknownKeyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bad", unknown.Node)
	assert.Equal(t, "nope", unknown.Key)
	assert.Equal(t, `unknown function key "nope" for node bad`, err.Error())
}

func TestPresets(t *testing.T) {
	c := New()
	edges := miniflow.Edges{"a": "b"}
	c.RegisterPreset("pair", Preset{
		Nodes: []NodeRef{{Name: "a", Key: "k"}, {Name: "b", Key: "k"}},
		Edges: edges,
		Start: "a",
	})

	// The stored preset is isolated from the caller's map.
	edges["a"] = "changed"

	p, err := c.Preset("pair")
	require.NoError(t, err)
	assert.Equal(t, miniflow.Edges{"a": "b"}, p.Edges)
	assert.Equal(t, "a", p.Start)
	assert.Len(t, p.Nodes, 2)

	p.Edges["a"] = "mutated"
	again, _ := c.Preset("pair")
	assert.Equal(t, "b", again.Edges["a"])

	assert.Equal(t, []string{"pair"}, c.Presets())
}

func TestPreset_Unknown(t *testing.T) {
	_, err := New().Preset("nope")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestDefault_CodeReview(t *testing.T) {
	c := Default(nil)

	assert.Equal(t, []string{
		"code_review.complexity",
		"code_review.extract",
		"code_review.issues",
		"code_review.suggest",
	}, c.Keys())
	assert.Equal(t, []string{CodeReview}, c.Presets())

	p, err := c.Preset(CodeReview)
	require.NoError(t, err)
	assert.Equal(t, "extract", p.Start)
	assert.Equal(t, []NodeRef{
		{Name: "extract", Key: "code_review.extract"},
		{Name: "complexity", Key: "code_review.complexity"},
		{Name: "issues", Key: "code_review.issues"},
		{Name: "suggest", Key: "code_review.suggest"},
	}, p.Nodes)

	nodes, err := c.Resolve(p.Nodes)
	require.NoError(t, err)
	g, err := miniflow.New(nodes, p.Edges, p.Start)
	require.NoError(t, err)

	result, err := g.Run(context.Background(), miniflow.State{"code": "def f():\n    pass\n"})
	require.NoError(t, err)
	assert.Equal(t, miniflow.HaltNoSuccessor, result.Halt)
}
