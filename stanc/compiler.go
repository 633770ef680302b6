// Package stanc adapts the Stan compiler to the model.Formatter and
// model.Oracle interfaces. Both shell out to the stanc binary.
package stanc

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CraigKelly/unitcube/model"
)

// DefaultPath is used when no compiler path is configured
const DefaultPath = "stanc"

// Compiler runs a stanc binary
type Compiler struct {
	Path         string   // Path to stanc
	IncludePaths []string // Passed as --include-paths
	Logger       *zap.Logger
}

// New returns a compiler for the given binary
func New(path string, includes []string, logger *zap.Logger) *Compiler {
	if len(path) < 1 {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		Path:         path,
		IncludePaths: includes,
		Logger:       logger,
	}
}

// info is the part of `stanc --info` output we use
type info struct {
	Parameters map[string]struct {
		Type       string `json:"type"`
		Dimensions int    `json:"dimensions"`
	} `json:"parameters"`
}

// Names implements model.Oracle using `stanc --info`
func (c *Compiler) Names(ctx context.Context, filename string) (model.ParameterSet, error) {
	out, err := c.run(ctx, "--info", filename)
	if err != nil {
		return nil, &model.ExtractionFailure{File: filename, Err: err}
	}

	return ParseInfo(out, filename)
}

// ParseInfo decodes `stanc --info` JSON into a parameter set
func ParseInfo(data []byte, filename string) (model.ParameterSet, error) {
	var inf info
	if err := json.Unmarshal(data, &inf); err != nil {
		return nil, &model.ExtractionFailure{
			File: filename,
			Err:  errors.Wrap(err, "Could not PARSE stanc --info output"),
		}
	}

	ps := make(model.ParameterSet, len(inf.Parameters))
	for name, p := range inf.Parameters {
		err := ps.Add(model.Parameter{Name: name, Type: p.Type, Dimensions: p.Dimensions})
		if err != nil {
			return nil, &model.ExtractionFailure{File: filename, Err: err}
		}
	}

	return ps, nil
}

// Format implements model.Formatter using `stanc --auto-format`
func (c *Compiler) Format(ctx context.Context, filename string) (string, error) {
	out, err := c.run(ctx, "--auto-format", filename)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Version returns the compiler version string
func (c *Compiler) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Compiler) run(ctx context.Context, args ...string) ([]byte, error) {
	var full []string
	if len(c.IncludePaths) > 0 && len(args) > 1 {
		full = append(full, "--include-paths="+strings.Join(c.IncludePaths, ","))
	}
	full = append(full, args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, full...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.Logger.Debug("Running stanc", zap.String("path", c.Path), zap.Strings("args", full))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 0 {
			return nil, errors.Wrapf(err, "%s %s failed: %s", c.Path, strings.Join(full, " "), msg)
		}
		return nil, errors.Wrapf(err, "%s %s failed", c.Path, strings.Join(full, " "))
	}

	return stdout.Bytes(), nil
}
