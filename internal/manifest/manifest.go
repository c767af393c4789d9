// Package manifest loads session manifests from CUE files. A manifest
// declares the initial document and script pair a session starts from:
//
//	session: {
//	    name:     "sales-report"
//	    document: "total is {{total}}"
//	    writer:   "async ({ store }) => { ... }"
//	    reader:   "async ({ store }) => ({ total: '...' })"
//	}
//
// description and history are optional; history names the session
// directory the CLI should use.
package manifest

import (
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Manifest is a compiled session declaration.
type Manifest struct {
	Name        string
	Description string
	Document    string
	Writer      string
	Reader      string
	History     string
}

// Load reads and compiles the manifest at path. Failures are reported
// as *LoadError with a stable code and, where CUE provides one, a
// source position.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "resolving manifest path: " + err.Error()}
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "manifest not found: " + path}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "accessing manifest: " + err.Error()}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: filepath.Dir(abs)}
	instances := load.Instances([]string{filepath.Base(abs)}, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeBadCUE, Message: "no CUE instance loaded from " + path}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, convertCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, convertCUEError(err)
	}

	sessionVal := value.LookupPath(cue.ParsePath("session"))
	if !sessionVal.Exists() {
		return nil, &LoadError{
			Code:    ErrCodeMissingField,
			Message: "manifest must declare a session block",
			Pos:     value.Pos(),
		}
	}
	return Compile(sessionVal)
}

// Compile parses the session struct of an already-built CUE value.
// Split from Load so tests and embedders can compile values they built
// themselves, e.g.:
//
//	v := cuecontext.New().CompileString(src)
//	m, err := Compile(v.LookupPath(cue.ParsePath("session")))
func Compile(v cue.Value) (*Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, convertCUEError(err)
	}

	m := &Manifest{}
	var err error

	if m.Name, err = requiredString(v, "name"); err != nil {
		return nil, err
	}
	if m.Document, err = requiredString(v, "document"); err != nil {
		return nil, err
	}
	if m.Writer, err = requiredString(v, "writer"); err != nil {
		return nil, err
	}
	if m.Reader, err = requiredString(v, "reader"); err != nil {
		return nil, err
	}
	if m.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if m.History, err = optionalString(v, "history"); err != nil {
		return nil, err
	}

	return m, nil
}

// requiredString reads a string field that must be present and concrete.
func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &LoadError{
			Code:    ErrCodeMissingField,
			Message: "session." + field + " is required",
			Pos:     v.Pos(),
		}
	}
	return stringValue(fv, field)
}

// optionalString reads a string field that may be absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	return stringValue(fv, field)
}

func stringValue(fv cue.Value, field string) (string, error) {
	s, err := fv.String()
	if err == nil {
		return s, nil
	}

	code := ErrCodeWrongType
	if !fv.IsConcrete() {
		code = ErrCodeNotConcrete
	}
	return "", &LoadError{
		Code:    code,
		Message: "session." + field + ": " + err.Error(),
		Pos:     fv.Pos(),
	}
}
