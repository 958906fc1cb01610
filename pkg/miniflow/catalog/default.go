package catalog

import (
	"github.com/randalmurphal/miniflow/pkg/miniflow/tools"
	"github.com/randalmurphal/miniflow/pkg/miniflow/workflows/codereview"
)

// CodeReview is the name of the code review preset and the prefix of its
// function keys.
const CodeReview = "code_review"

// Default returns a catalog holding the built-in workflows. Their nodes
// call tools from reg; a nil reg uses tools.Default().
func Default(reg *tools.Registry) *Catalog {
	c := New()
	AddCodeReview(c, reg)
	return c
}

// AddCodeReview registers the code review nodes as "code_review.<node>"
// and the "code_review" preset.
func AddCodeReview(c *Catalog, reg *tools.Registry) {
	wf := codereview.New(reg)

	refs := make([]NodeRef, 0, 4)
	for _, n := range wf.Nodes() {
		key := CodeReview + "." + n.Name
		c.Register(key, n.Fn)
		refs = append(refs, NodeRef{Name: n.Name, Key: key})
	}

	c.RegisterPreset(CodeReview, Preset{
		Nodes: refs,
		Edges: codereview.Edges(),
		Start: codereview.Start,
	})
}
