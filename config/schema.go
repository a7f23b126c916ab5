package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// schema constrains plexc.toml. Definitions are closed, so unknown tables
// and keys are rejected along with out-of-range values.
const schema = `
#Config: {
	compiler?: {
		"max-depth"?:          int & >=0
		ids?:                  "sequential" | "uuid"
		"warnings-as-errors"?: bool
	}
	decompiler?: {
		indent?:      string
		"max-depth"?: int & >=0
	}
	output?: format?: "xml" | "cbor"
	store?: path?:    string & !=""
	log?: {
		verbosity?: int & >=-4 & <=2
		file?:      string
	}
}
`

// validate checks decoded TOML against the schema.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("internal error: config schema: %w", err)
	}

	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %s", errors.Details(err, nil))
	}
	return nil
}
