package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CraigKelly/unitcube/model"
)

func TestModelShape(t *testing.T) {
	assert := assert.New(t)

	g := New(1)
	sawTP, sawNoTP := false, false
	for i := 0; i < 50; i++ {
		m := g.Model("synth")
		assert.NoError(m.Doc.Check())
		assert.True(len(m.Params) >= 1 && len(m.Params) <= g.MaxParams)

		p, err := model.SplitBlock(m.Doc, model.ParametersBlock)
		assert.NoError(err)
		for _, n := range m.Params.Names() {
			found := false
			for _, ln := range p.Body {
				decls, err := model.ParseDeclarations(ln)
				assert.NoError(err, ln)
				for _, d := range decls {
					if d.Names[0] == n {
						found = true
					}
				}
			}
			assert.True(found, n)
		}

		tp, err := model.SplitBlock(m.Doc, model.TransformedParametersBlock)
		assert.NoError(err)
		assert.Equal(m.HasTransformed, tp.Found)
		sawTP = sawTP || tp.Found
		sawNoTP = sawNoTP || !tp.Found
	}
	assert.True(sawTP)
	assert.True(sawNoTP)
}

func TestModelReplay(t *testing.T) {
	assert := assert.New(t)

	a := New(99).Model("a")
	b := New(99).Model("a")
	assert.Equal(a.Doc.Lines, b.Doc.Lines)
	assert.Equal(a.Params, b.Params)

	c := New(100).Model("a")
	assert.NotEqual(a.Doc.Lines, c.Doc.Lines)
}

func TestMaxParamsFloor(t *testing.T) {
	assert := assert.New(t)

	g := New(3)
	g.MaxParams = 0
	m := g.Model("one")
	assert.Len(m.Params, 1)
}
