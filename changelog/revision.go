package changelog

import (
	"context"
	"strings"

	"github.com/bertrandchenal/lakota/digest"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
)

// Revision is one edge of the changelog DAG: a parent RevID a commit
// was built on, and the child RevID it produced. A merge is recorded
// as several Revisions that share the same Child but carry distinct
// Parent values.
type Revision struct {
	Parent RevID
	Child  RevID
}

// Filename is the on-pod name of the revision edge: "{parent}.{child}".
func (r Revision) Filename() string {
	return r.Parent.String() + "." + r.Child.String()
}

// ParseRevisionFilename is Filename's inverse.
func ParseRevisionFilename(name string) (Revision, error) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return Revision{}, &lkerr.IntegrityError{Context: "malformed revision filename " + name}
	}
	parent, err := ParseRevID(parts[0])
	if err != nil {
		return Revision{}, &lkerr.IntegrityError{Context: "revision filename " + name, Err: err}
	}
	child, err := ParseRevID(parts[1])
	if err != nil {
		return Revision{}, &lkerr.IntegrityError{Context: "revision filename " + name, Err: err}
	}
	return Revision{Parent: parent, Child: child}, nil
}

// LoadedRevision pairs a Revision edge with its decoded Payload, read
// lazily since most changelog walks only need the RevID graph.
type LoadedRevision struct {
	Revision
	Payload Payload
}

// load reads and verifies a revision's payload: the file's bytes must
// hash to the revision's declared child digest.
func load(ctx context.Context, p pod.Pod, s *schema.Schema, rev Revision) (*LoadedRevision, error) {
	data, err := p.Read(ctx, rev.Filename())
	if err != nil {
		return nil, err
	}
	if got := digest.Of(data); got != rev.Child.Digest {
		return nil, &lkerr.IntegrityError{Context: "revision " + rev.Filename() + " payload digest mismatch"}
	}
	payload, err := Decode(s, data)
	if err != nil {
		return nil, &lkerr.IntegrityError{Context: "revision " + rev.Filename() + " payload decode failed", Err: err}
	}
	return &LoadedRevision{Revision: rev, Payload: payload}, nil
}
