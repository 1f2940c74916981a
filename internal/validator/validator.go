package validator

// =============================================================================
// CRASH EARLY, CRASH LOUD
// =============================================================================
//
// The CUE contracts guard both ends of generation: the fabric model coming in
// and the device document going out.
//
// Without them a renamed field or a null list decodes to a zero value, the
// builder happily emits a device with no tiles, and place-and-route fails far
// away with no hint of the cause.
//
// When validation fails, fix the producer. Do not loosen the schema to make
// an error go away.
// =============================================================================

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

//go:embed fabric_schema.cue
var fabricSchemaFS embed.FS

//go:embed device_schema.cue
var deviceSchemaFS embed.FS

// Validator checks fabric models and device documents against the embedded
// CUE contracts. A Validator is not safe for concurrent use.
type Validator struct {
	ctx    *cue.Context
	fabric cue.Value
	device cue.Value
}

// New compiles the embedded schemas
func New() (*Validator, error) {
	ctx := cuecontext.New()

	fabricSchema, err := compileSchema(ctx, fabricSchemaFS, "fabric_schema.cue", "#Fabric")
	if err != nil {
		return nil, err
	}
	deviceSchema, err := compileSchema(ctx, deviceSchemaFS, "device_schema.cue", "#Device")
	if err != nil {
		return nil, err
	}

	return &Validator{
		ctx:    ctx,
		fabric: fabricSchema,
		device: deviceSchema,
	}, nil
}

func compileSchema(ctx *cue.Context, fs embed.FS, file, def string) (cue.Value, error) {
	schemaBytes, err := fs.ReadFile(file)
	if err != nil {
		return cue.Value{}, fmt.Errorf("loading embedded schema %s: %w", file, err)
	}
	schema := ctx.CompileBytes(schemaBytes, cue.Filename(file))
	if schema.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling schema %s: %w", file, schema.Err())
	}
	defValue := schema.LookupPath(cue.ParsePath(def))
	if defValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("looking up %s definition: %w", def, defValue.Err())
	}
	return defValue, nil
}

// ContractError lists every violation found in one validated value
type ContractError struct {
	Subject    string
	Violations []string
	err        error
}

func (e *ContractError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: schema validation failed", e.Subject)
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v)
	}
	return b.String()
}

func (e *ContractError) Unwrap() error { return e.err }

// ValidateFabric checks a fabric model before generation
func (v *Validator) ValidateFabric(dev *fabric.Device) error {
	return v.validate("fabric model", v.fabric, dev)
}

// ValidateDocument checks a generated document before it is written. A
// contract failure is a *ContractError.
func (v *Validator) ValidateDocument(doc *device.Document) error {
	return v.validate("device document", v.device, doc)
}

func (v *Validator) validate(subject string, def cue.Value, data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%s: marshaling data to JSON: %w", subject, err)
	}
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("%s: compiling data as CUE: %w", subject, dataValue.Err())
	}
	if err := def.Unify(dataValue).Validate(); err != nil {
		return &ContractError{Subject: subject, Violations: violations(err), err: err}
	}
	return nil
}

// violations flattens a CUE error, prefixing each message with its path
func violations(err error) []string {
	var out []string
	for _, e := range errors.Errors(err) {
		if path := e.Path(); len(path) > 0 {
			out = append(out, strings.Join(path, ".")+": "+e.Error())
			continue
		}
		out = append(out, e.Error())
	}
	return out
}
