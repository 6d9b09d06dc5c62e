// Package formrun turns declarative form schemas into runtime behavior:
// compiled validation, conditional visibility, step navigation, and the
// draft/submit lifecycle. Rendering and persistence stay with the embedding
// application; this package exposes the runtime they drive.
package formrun

import (
	"context"

	"github.com/goliatone/go-formrun/pkg/openapi"
	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/session"
)

// Form aliases the schema document type for callers that only need the
// top-level API.
type Form = schema.Form

// Submission aliases the record produced by a completed fill session.
type Submission = schema.Submission

// ValidationError aliases the field-scoped error shape.
type ValidationError = schema.ValidationError

// Session aliases one in-progress fill.
type Session = session.Session

// Option configures a session.
type Option = session.Option

// LoadSchema parses, sanitizes, and validates a schema document (JSON or
// YAML). A schema.ConfigProblems error means the document must be fixed at
// the authoring layer before any session can run it.
func LoadSchema(raw []byte) (Form, error) {
	return schema.Parse(raw)
}

// NewSession starts a fill session for a loaded schema, restoring a stored
// draft when one exists.
func NewSession(form Form, opts ...Option) (*Session, error) {
	return session.New(form, opts...)
}

// ImportOpenAPI converts an OpenAPI operation's request body into a form
// schema ready for NewSession.
func ImportOpenAPI(ctx context.Context, raw []byte, operationID string, opts ...openapi.Option) (Form, error) {
	return openapi.Import(ctx, raw, operationID, opts...)
}
