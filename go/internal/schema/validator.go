package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/mcdev12/leaguesync/go/internal/models"
)

//go:embed schema.cue
var source string

// ErrInvalidDocument is wrapped by every ValidationError
var ErrInvalidDocument = errors.New("invalid document")

// ValidationError reports a document that does not match its collection's
// schema. The projector skips such documents.
type ValidationError struct {
	Collection string
	ID         string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s/%s: %v: %v", e.Collection, e.ID, ErrInvalidDocument, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidDocument, e.Err}
}

var definitions = map[string]string{
	models.CollectionPlayers: "#Player",
	models.CollectionTeams:   "#Team",
	models.CollectionGames:   "#Game",
	models.CollectionVotes:   "#Vote",
	models.CollectionUsers:   "#User",
}

// Validator checks raw documents against the compiled CUE definitions.
// A cue.Context is not safe for concurrent use, so access is serialized.
type Validator struct {
	mu   sync.Mutex
	ctx  *cue.Context
	defs map[string]cue.Value
}

// New compiles the embedded schema
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(source, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	defs := make(map[string]cue.Value, len(definitions))
	for collection, name := range definitions {
		def := root.LookupPath(cue.ParsePath(name))
		if err := def.Err(); err != nil {
			return nil, fmt.Errorf("failed to look up %s: %w", name, err)
		}
		defs[collection] = def
	}

	return &Validator{ctx: ctx, defs: defs}, nil
}

// MustNew is New for package-level setup; the schema is embedded, so a
// failure is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate unifies doc with its collection's definition and returns the
// attributes as JSON with defaults filled in
func (v *Validator) Validate(collection string, doc models.RawDocument) ([]byte, error) {
	def, ok := v.defs[collection]
	if !ok {
		return nil, fmt.Errorf("no schema for collection %q", collection)
	}

	attrs := doc.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, &ValidationError{Collection: collection, ID: doc.ID, Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	value := v.ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return nil, &ValidationError{Collection: collection, ID: doc.ID, Err: err}
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &ValidationError{Collection: collection, ID: doc.ID, Err: err}
	}

	out, err := unified.MarshalJSON()
	if err != nil {
		return nil, &ValidationError{Collection: collection, ID: doc.ID, Err: err}
	}
	return out, nil
}
