package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.cue
var schemaCUE string

// Load error codes.
const (
	CodeNotFound   = "not_found"
	CodeFormat     = "unsupported_format"
	CodeParse      = "parse_failed"
	CodeConstraint = "constraint_failed"
)

// LoadError reports a tuning file that could not be read or decoded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a tuning file. The format follows the extension: .yaml and .yml
// are YAML, .cue is CUE checked against the embedded schema. Fields the file
// omits keep their Default values. The result is validated before return.
func Load(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Tuning{}, &LoadError{Code: CodeNotFound, Message: fmt.Sprintf("tuning file not found: %s", path)}
		}
		return Tuning{}, fmt.Errorf("read tuning %s: %w", path, err)
	}

	var t Tuning
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		t, err = ParseYAML(data)
	case ".cue":
		t, err = ParseCUE(filepath.Base(path), data)
	default:
		return Tuning{}, &LoadError{Code: CodeFormat, Message: fmt.Sprintf("unsupported tuning format %q (want .yaml, .yml or .cue)", filepath.Ext(path))}
	}
	if err != nil {
		return Tuning{}, err
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// ParseYAML decodes YAML over Default. Unknown fields are rejected.
func ParseYAML(data []byte) (Tuning, error) {
	t := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		// An empty document decodes to io.EOF; that is all defaults.
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return Tuning{}, &LoadError{Code: CodeParse, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return t, nil
}

// ParseCUE unifies a CUE document with the #Tuning schema and decodes the
// result. Schema defaults fill omitted fields.
func ParseCUE(filename string, data []byte) (Tuning, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("tuning.cue"))
	if err := schema.Err(); err != nil {
		return Tuning{}, fmt.Errorf("compile tuning schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Tuning"))

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return Tuning{}, cueLoadError(CodeParse, err)
	}

	v := def.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Tuning{}, cueLoadError(CodeConstraint, err)
	}

	var t Tuning
	if err := v.Decode(&t); err != nil {
		return Tuning{}, cueLoadError(CodeConstraint, err)
	}
	return t, nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Pos = errs[0].Position()
		le.Message = errs[0].Error()
	}
	return le
}
