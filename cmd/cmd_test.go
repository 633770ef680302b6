package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/CraigKelly/unitcube/model"
)

const sigmaModel = `data {
  int N;
}
parameters {
  real mu;
  real<lower=0> sigma;
}
model {
  mu ~ normal(0, 1);
}
`

const sigmaUnit = `data {
  int N;
}
parameters {
  real<lower=0, upper=1> unit_mu;
  real<lower=0, upper=1> unit_sigma;
}
transformed parameters {
  real mu = INVERSE_TRANSFORM(unit_mu);
  real<lower=0> sigma = INVERSE_TRANSFORM(unit_sigma);
}
model {
  mu ~ normal(0, 1);
}
`

const sigmaInfo = `{
  "inputs": { "N": { "type": "int", "dimensions": 0 } },
  "parameters": {
    "mu": { "type": "real", "dimensions": 0 },
    "sigma": { "type": "real", "dimensions": 0 }
  },
  "transformed parameters": {},
  "generated quantities": {}
}`

// runCmd runs a fresh command tree with a clean home directory
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeModel(t *testing.T, dir string, name string, text string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(text), 0o644))
	return fn
}

// fakeStanc writes a shell script that formats by echoing the file back and
// reports the sigma model parameters
func fakeStanc(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler is a shell script")
	}
	script := `#!/bin/sh
case "$1" in
--info)
cat <<'EOF'
` + sigmaInfo + `
EOF
;;
--auto-format) cat "$2" ;;
*) exit 2 ;;
esac
`
	fn := writeModel(t, t.TempDir(), "stanc", script)
	require.NoError(t, os.Chmod(fn, 0o755))
	return fn
}

func TestConvertStdout(t *testing.T) {
	assert := assert.New(t)

	fn := writeModel(t, t.TempDir(), "sigma.stan", sigmaModel)
	stdout, _, err := runCmd(t, "convert", "--plain", "-p", "mu,sigma", fn)
	assert.NoError(err)
	assert.Equal(sigmaUnit, stdout)
}

func TestConvertOutputFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	fn := writeModel(t, dir, "sigma.stan", sigmaModel)
	outFn := filepath.Join(dir, "sigma_unit.stan")

	stdout, _, err := runCmd(t, "convert", "--plain", "--param", "mu", "--param", "sigma", "-o", outFn, fn)
	assert.NoError(err)
	assert.Empty(stdout)

	data, err := os.ReadFile(outFn)
	assert.NoError(err)
	assert.Equal(sigmaUnit, string(data))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	assert.NoError(err)
	assert.Len(entries, 2)
}

func TestConvertFailureWritesNothing(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	fn := writeModel(t, dir, "bad.stan", "parameters {\n  real mu;\n")
	outFn := filepath.Join(dir, "out.stan")

	stdout, _, err := runCmd(t, "convert", "--plain", "-p", "mu", "-o", outFn, fn)
	var mbe *model.MalformedBlockError
	assert.True(errors.As(err, &mbe))
	assert.Empty(stdout)
	assert.NoFileExists(outFn)

	// Name reported but never declared
	fn = writeModel(t, dir, "sigma.stan", sigmaModel)
	_, _, err = runCmd(t, "convert", "--plain", "-p", "mu,tau", fn)
	var ef *model.ExtractionFailure
	assert.True(errors.As(err, &ef))
	assert.Equal([]string{"tau"}, ef.Names)
}

func TestConvertSymbols(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	fn := writeModel(t, dir, "sigma.stan", sigmaModel)

	stdout, _, err := runCmd(t, "convert", "--plain", "-p", "mu,sigma", "--transform", "prior_ppf", "--prefix", "u_", fn)
	assert.NoError(err)
	assert.Contains(stdout, "  real<lower=0, upper=1> u_sigma;\n")
	assert.Contains(stdout, "  real<lower=0> sigma = prior_ppf(u_sigma);\n")

	// Config file, with the flag winning
	cfgFn := writeModel(t, dir, "unitcube.yaml", "inverse_transform: ppf\nunit_prefix: z_\n")
	stdout, _, err = runCmd(t, "convert", "-c", cfgFn, "--plain", "-p", "mu,sigma", "--prefix", "w_", fn)
	assert.NoError(err)
	assert.Contains(stdout, "  real mu = ppf(w_mu);\n")

	// Bare assignments from the config file or the flag
	cfgFn = writeModel(t, dir, "bare.yaml", "declare: false\n")
	stdout, _, err = runCmd(t, "convert", "-c", cfgFn, "--plain", "-p", "mu,sigma", fn)
	assert.NoError(err)
	assert.Contains(stdout, "\n  sigma = INVERSE_TRANSFORM(unit_sigma);\n")
	stdout, _, err = runCmd(t, "convert", "--bare", "--plain", "-p", "mu,sigma", fn)
	assert.NoError(err)
	assert.Contains(stdout, "\n  mu = INVERSE_TRANSFORM(unit_mu);\n")

	_, _, err = runCmd(t, "convert", "--plain", "-p", "mu", "--prefix", "9bad", fn)
	assert.Error(err)

	_, _, err = runCmd(t, "convert", "-c", filepath.Join(dir, "missing.yaml"), "--plain", "-p", "mu", fn)
	assert.Error(err)
}

func TestConvertCRLF(t *testing.T) {
	assert := assert.New(t)

	fn := writeModel(t, t.TempDir(), "sigma.stan", strings.ReplaceAll(sigmaModel, "\n", "\r\n"))
	stdout, _, err := runCmd(t, "convert", "--plain", "-p", "mu,sigma", fn)
	assert.NoError(err)
	assert.Equal(sigmaUnit, stdout)
}

func TestConvertWithStanc(t *testing.T) {
	assert := assert.New(t)

	stancFn := fakeStanc(t)
	fn := writeModel(t, t.TempDir(), "sigma.stan", sigmaModel)

	stdout, stderr, err := runCmd(t, "convert", "-v", "--stanc", stancFn, fn)
	assert.NoError(err)
	assert.Equal(sigmaUnit, stdout)
	assert.Contains(stderr, "Parameters extracted")

	stdout, _, err = runCmd(t, "names", "--stanc", stancFn, fn)
	assert.NoError(err)
	assert.Equal("mu\treal\t0\nsigma\treal\t0\n", stdout)
}

func TestNamesStatic(t *testing.T) {
	assert := assert.New(t)

	stdout, _, err := runCmd(t, "names", "-p", "tau,mu", "unused.stan")
	assert.NoError(err)
	assert.Equal("mu\t\t0\ntau\t\t0\n", stdout)

	_, _, err = runCmd(t, "names", "-p", "mu,mu", "unused.stan")
	assert.Error(err)
}

func TestBatch(t *testing.T) {
	defer goleak.VerifyNone(t)
	assert := assert.New(t)

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "converted")

	good1 := writeModel(t, in, "a.stan", sigmaModel)
	good2 := writeModel(t, in, "b.stan", strings.Replace(sigmaModel, "normal(0, 1)", "normal(0, 2)", 1))
	bad := writeModel(t, in, "c.stan", "data {\n}\n")

	stdout, stderr, err := runCmd(t, "batch", "--plain", "-p", "mu,sigma", "-j", "2", "-d", out, good1, bad, good2)
	assert.Error(err)
	assert.Contains(err.Error(), "1 of 3 models failed")
	var missing *model.MissingParametersBlockError
	assert.True(errors.As(err, &missing))

	assert.Contains(stdout, "Converted 2 of 3 models")
	assert.Contains(stderr, "Model failed")

	data, err := os.ReadFile(filepath.Join(out, "a.stan"))
	assert.NoError(err)
	assert.Equal(sigmaUnit, string(data))
	assert.FileExists(filepath.Join(out, "b.stan"))
	assert.NoFileExists(filepath.Join(out, "c.stan"))

	assert.Equal("3", progressMap().Get("Files-Queued").String())
	assert.Equal("1", progressMap().Get("Files-Failed").String())
	assert.Equal("2", progressMap().Get("Files-Converted").String())

	// A clean run succeeds
	stdout, _, err = runCmd(t, "batch", "--plain", "-p", "mu,sigma", "-d", out, good1, good2)
	assert.NoError(err)
	assert.Contains(stdout, "Converted 2 of 2 models")
}

func TestBatchPlan(t *testing.T) {
	assert := assert.New(t)

	_, err := planBatch("out", []string{"x/a.stan", "y/a.stan"})
	assert.Error(err)

	_, err = planBatch("x", []string{"x/a.stan"})
	assert.Error(err)

	targets, err := planBatch("out", []string{"x/a.stan", "y/b.stan"})
	assert.NoError(err)
	assert.Equal([]batchTarget{
		{input: "x/a.stan", output: filepath.Join("out", "a.stan")},
		{input: "y/b.stan", output: filepath.Join("out", "b.stan")},
	}, targets)

	_, _, err = runCmd(t, "batch", "--plain", "-p", "mu", "x/a.stan")
	assert.Error(err) // --out-dir is required

	_, _, err = runCmd(t, "batch", "--plain", "-p", "mu", "-j", "0", "-d", t.TempDir(), "x/a.stan")
	assert.Error(err)
}

func TestMonitorServe(t *testing.T) {
	assert := assert.New(t)

	m := newMonitor(zap.NewNop())
	m.FilesQueued.Set(7)
	require.NoError(t, m.Serve("127.0.0.1:0"))
	defer m.Stop()
	assert.Error(m.Serve("127.0.0.1:0"))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + m.addr.String() + "/debug/vars")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	assert.NoError(err)
	assert.Contains(string(body), `"unitcube-progress"`)
	assert.Contains(string(body), `"Files-Queued": 7`)
}

func TestSelfCheck(t *testing.T) {
	assert := assert.New(t)

	stdout, _, err := runCmd(t, "selfcheck", "-n", "25", "-r", "10")
	assert.NoError(err)
	assert.Equal("Checked 25 models (seeds 10-34): 0 failed\n", stdout)

	stdout, _, err = runCmd(t, "selfcheck", "-n", "10", "--transform", "prior_ppf", "--prefix", "u_", "--max-params", "2")
	assert.NoError(err)
	assert.Contains(stdout, "0 failed")

	_, _, err = runCmd(t, "selfcheck", "-n", "0")
	assert.Error(err)
}

func TestWriteAtomic(t *testing.T) {
	assert := assert.New(t)

	fn := filepath.Join(t.TempDir(), "out.stan")
	assert.NoError(writeAtomic(fn, "first\n"))
	assert.NoError(writeAtomic(fn, "second\n"))

	data, err := os.ReadFile(fn)
	assert.NoError(err)
	assert.Equal("second\n", string(data))

	assert.Error(writeAtomic(filepath.Join(t.TempDir(), "no", "such", "dir.stan"), "x"))
}
