package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeclarations(t *testing.T) {
	cases := []struct {
		line      string
		typ       string
		bounds    string
		hasBounds bool
		dims      string
		isArray   bool
		arrayDims string
		names     []string
	}{
		{"  real mu;", "real", "", false, "", false, "", []string{"mu"}},
		{"  real<lower=0> sigma;", "real", "lower=0", true, "", false, "", []string{"sigma"}},
		{"  vector<lower=-1, upper=1>[N] beta;", "vector", "lower=-1, upper=1", true, "N", false, "", []string{"beta"}},
		{"  matrix[N, M] z; // latent", "matrix", "", false, "N, M", false, "", []string{"z"}},
		{"  array[K] real<lower=0> lambda;", "real", "lower=0", true, "", true, "K", []string{"lambda"}},
		{"  real<offset=mu, multiplier=tau> alpha;", "real", "offset=mu, multiplier=tau", true, "", false, "", []string{"alpha"}},
		{"  real a, b;", "real", "", false, "", false, "", []string{"a", "b"}},
		{"real<lower=0.5e-3>x;", "real", "lower=0.5e-3", true, "", false, "", []string{"x"}},
	}

	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			assert := assert.New(t)

			decls, err := ParseDeclarations(c.line)
			require.NoError(t, err)
			require.Len(t, decls, 1)

			d := decls[0]
			assert.Equal(c.line, d.Text)
			assert.Equal(c.typ, d.Type)
			assert.Equal(c.bounds, d.Bounds)
			assert.Equal(c.hasBounds, d.HasBounds)
			assert.Equal(c.dims, d.Dims)
			assert.Equal(c.isArray, d.IsArray)
			assert.Equal(c.arrayDims, d.ArrayDims)
			assert.Equal(c.names, d.Names)
		})
	}
}

func TestParseDeclarationsNonDecl(t *testing.T) {
	assert := assert.New(t)

	for _, ln := range []string{"", "   ", "  // just a comment", "  /* block */"} {
		decls, err := ParseDeclarations(ln)
		assert.NoError(err, ln)
		assert.Empty(decls, ln)
	}

	// The annotation ends at the first ">", so a comparison inside the
	// bounds is refused rather than guessed at
	for _, ln := range []string{"  mu = 1;", "  target += normal_lpdf(y | 0, 1);", "  real mu", "  real<lower=0, upper=(2 > 1 ? 3 : 4)> sigma;"} {
		_, err := ParseDeclarations(ln)
		assert.Error(err, ln)
	}
}

func TestParseDeclarationsMultiple(t *testing.T) {
	assert := assert.New(t)

	decls, err := ParseDeclarations("  real a; vector[2] b;")
	assert.NoError(err)
	assert.Len(decls, 2)
	assert.Equal([]string{"a"}, decls[0].Names)
	assert.Equal([]string{"b"}, decls[1].Names)
	assert.Equal("vector", decls[1].Type)
	assert.Equal("2", decls[1].Dims)
}

func TestDeclarationRewrite(t *testing.T) {
	cases := []struct {
		line string
		exp  string
	}{
		{"  real<lower=0> sigma;", "  real<lower=0, upper=1> unit_sigma;"},
		{"  real mu;", "  real<lower=0, upper=1> unit_mu;"},
		{"  vector<upper=10>[N] beta;", "  vector<lower=0, upper=1>[N] unit_beta;"},
		{"  matrix[2, 3] z; // latent", "  matrix<lower=0, upper=1>[2, 3] unit_z; // latent"},
		{"\treal<lower=-5, upper=5>   x ;", "\treal<lower=0, upper=1>   unit_x ;"},
	}

	for _, c := range cases {
		assert := assert.New(t)

		decls, err := ParseDeclarations(c.line)
		assert.NoError(err)
		assert.Len(decls, 1)

		out, err := decls[0].Rewrite("<lower=0, upper=1>", "unit_"+decls[0].Names[0])
		assert.NoError(err)
		assert.Equal(c.exp, out)
	}

	decls, err := ParseDeclarations("  real a, b;")
	assert.NoError(t, err)
	_, err = decls[0].Rewrite("<lower=0, upper=1>", "unit_a")
	assert.Error(t, err)
}

func TestDeclarationPhysicalType(t *testing.T) {
	cases := []struct {
		line string
		exp  string
	}{
		{"  real mu;", "real"},
		{"  real<lower=0> sigma; // scale", "real<lower=0>"},
		{"  vector[J] eta;", "vector[J]"},
		{"	matrix<lower=-1, upper=1>[2, 3]  z ;", "matrix<lower=-1, upper=1>[2, 3]"},
		{"  vector<offset=mu, multiplier=tau>[J] theta;", "vector[J]"},
		{"  real<multiplier=2> s;", "real"},
	}

	for _, c := range cases {
		assert := assert.New(t)

		decls, err := ParseDeclarations(c.line)
		assert.NoError(err)
		if assert.Len(decls, 1) {
			assert.Equal(c.exp, decls[0].PhysicalType(), c.line)
		}
	}
}
