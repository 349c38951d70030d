// Package repo is the top-level entry point: a pod-rooted registry of
// named collections, each with its own schema and changelog. The
// registry is itself stored as a KV-mode collection, so creating or
// listing collections is just another series write/read rather than a
// separate metadata format.
package repo

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bertrandchenal/lakota/collection"
	"github.com/bertrandchenal/lakota/config"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
)

const registryLabel = "collections"

var registrySchema = mustSchema()

func mustSchema() *schema.Schema {
	s, err := schema.New(schema.KindKV,
		schema.Column{Name: "name", Type: schema.String, IsKey: true},
		schema.Column{Name: "definition", Type: schema.String},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Repo is a pod-rooted set of named collections.
type Repo struct {
	root     pod.Pod
	registry *collection.Collection
	cfg      *config.Config
	log      *logrus.Logger
}

// Open roots a Repo at p. The registry collection lives at
// "registry" under p, alongside the collections it tracks. cfg is
// threaded into every collection.Collection this Repo opens; a nil
// cfg falls back to config.Default().
func Open(p pod.Pod, cfg *config.Config, log *logrus.Logger) *Repo {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	reg := collection.Open(p, "registry", registrySchema, cfg, log)
	return &Repo{root: p, registry: reg, cfg: cfg, log: log}
}

// CreateCollection registers name with schema s and returns a handle
// to it. Calling it again with an identical schema is a no-op that
// returns the existing collection; calling it with a different schema
// is a SchemaError.
func (r *Repo) CreateCollection(ctx context.Context, name, author string, s *schema.Schema) (*collection.Collection, error) {
	existingDef, err := r.lookup(ctx, name)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	def := encodeSchema(s)
	if existingDef != "" {
		if existingDef != def {
			return nil, &lkerr.SchemaError{Reason: "collection " + name + " already exists with a different schema"}
		}
		return collection.Open(r.root, name, s, r.cfg, r.log), nil
	}

	f, err := frame.New(registrySchema, map[string]interface{}{
		"name":       []string{name},
		"definition": []string{def},
	})
	if err != nil {
		return nil, err
	}
	if _, err := r.registry.WriteKV(ctx, registryLabel, author, f); err != nil {
		return nil, err
	}
	return collection.Open(r.root, name, s, r.cfg, r.log), nil
}

// Collection resolves a previously created collection by name.
func (r *Repo) Collection(ctx context.Context, name string) (*collection.Collection, error) {
	def, err := r.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if def == "" {
		return nil, &lkerr.NotFound{Key: name}
	}
	s, err := decodeSchema(def)
	if err != nil {
		return nil, err
	}
	return collection.Open(r.root, name, s, r.cfg, r.log), nil
}

// Ls lists every registered collection name, sorted.
func (r *Repo) Ls(ctx context.Context) ([]string, error) {
	ser := r.registry.Series(registryLabel)
	f, err := ser.Read(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, f.Len())
	for i := 0; i < f.Len(); i++ {
		names[i] = f.ValueAt("name", i).(string)
	}
	return names, nil
}

// Search lists every registered collection name containing substr.
func (r *Repo) Search(ctx context.Context, substr string) ([]string, error) {
	all, err := r.Ls(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range all {
		if strings.Contains(name, substr) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (r *Repo) lookup(ctx context.Context, name string) (string, error) {
	ser := r.registry.Series(registryLabel)
	f, err := ser.Read(ctx, frame.Key{name}, frame.Key{name})
	if err != nil {
		return "", err
	}
	for i := 0; i < f.Len(); i++ {
		if f.ValueAt("name", i).(string) == name {
			return f.ValueAt("definition", i).(string), nil
		}
	}
	return "", nil
}

func isNotFound(err error) bool {
	_, ok := err.(*lkerr.NotFound)
	return ok
}
