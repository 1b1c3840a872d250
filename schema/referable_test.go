package schema

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

type mapLoader struct {
	srcs   map[string]string
	parses atomic.Int32

	mu   sync.Mutex
	docs map[string]*Document
}

func (l *mapLoader) Load(_ context.Context, uri string) (*Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := l.docs[uri]; ok {
		return d, nil
	}
	src, ok := l.srcs[uri]
	if !ok {
		return nil, nil
	}
	l.parses.Add(1)
	d, err := Parse(uri, []byte(src))
	if err != nil {
		return nil, err
	}
	if l.docs == nil {
		l.docs = map[string]*Document{}
	}
	l.docs[uri] = d
	return d, nil
}

func TestResolveDefinitions(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"type": "object",
		"properties": {
			"a": {"$ref": "#/definitions/name"},
			"b": {"$ref": "#/$defs/port", "title": "Port", "deprecated": true},
			"c": {"$ref": "#/properties/a~1b"},
			"d": {"$ref": "#/properties/a%20b"},
			"a/b": {"type": "integer"},
			"a b": {"type": "boolean"}
		},
		"definitions": {"name": {"type": "string", "title": "Name"}},
		"$defs": {"port": {"type": "integer", "title": "A port", "description": "TCP port"}}
	}`)
	root := rootValue(t, doc)
	tests := []struct {
		key   string
		typ   Type
		title string
		desc  string
		depr  bool
	}{
		{"a", StringType, "Name", "", false},
		{"b", IntegerType, "Port", "", true},
		{"c", IntegerType, "", "", false},
		{"d", BooleanType, "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			cur, err := root.Property(tc.key).Resolve(context.Background(), doc.URI, doc.Definitions, nil)
			if err != nil {
				t.Fatal(err)
			}
			s := cur.Schema
			if s.Type != tc.typ || s.Title != tc.title || s.Description != tc.desc || s.Deprecated != tc.depr {
				t.Errorf("got %s %q %q %v", s.Type, s.Title, s.Description, s.Deprecated)
			}
		})
	}
	port := doc.Definitions.Get("#/$defs/port").Value()
	if port.Title != "A port" || port.Deprecated {
		t.Error("definition must not be modified by a referencing node")
	}
}

func TestResolveErrors(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"type": "object",
		"properties": {
			"missing": {"$ref": "#/definitions/nope"},
			"cycle": {"$ref": "#/definitions/a"},
			"malformed": {"$ref": "http://[::1/s.json"}
		},
		"definitions": {
			"a": {"$ref": "#/definitions/b"},
			"b": {"$ref": "#/definitions/a"}
		}
	}`)
	root := rootValue(t, doc)
	tests := []struct {
		key  string
		want error
	}{
		{"missing", ErrRefNotFound},
		{"cycle", ErrRefCycle},
		{"malformed", ErrUnsupportedRef},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			r := root.Property(tc.key)
			_, err := r.Resolve(context.Background(), doc.URI, doc.Definitions, &mapLoader{})
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v want %v", err, tc.want)
			}
			if r.IsResolved() {
				t.Error("failed resolution must leave the cell unresolved")
			}
		})
	}
}

func TestResolveOtherDocument(t *testing.T) {
	l := &mapLoader{srcs: map[string]string{
		"https://example.com/a.json": `{
			"type": "object",
			"properties": {"dep": {"$ref": "b.json#/definitions/dep"}}
		}`,
		"https://example.com/b.json": `{
			"definitions": {
				"dep": {"anyOf": [{"type": "string"}, {"$ref": "#/definitions/detail"}]},
				"detail": {"type": "object"}
			}
		}`,
	}}
	ctx := context.Background()
	a, _ := l.Load(ctx, "https://example.com/a.json")
	root, err := a.Root.Resolve(ctx, a.URI, a.Definitions, l)
	if err != nil {
		t.Fatal(err)
	}
	cur, err := root.Schema.Property("dep").Resolve(ctx, root.URI, root.Definitions, l)
	if err != nil {
		t.Fatal(err)
	}
	if cur.URI != "https://example.com/b.json" {
		t.Errorf("uri %s", cur.URI)
	}
	// members resolve against the document they live in
	if got := cur.Schema.ValueType().String(); got != "String | Table" {
		t.Errorf("type %s", got)
	}
	if n := l.parses.Load(); n != 2 {
		t.Errorf("parsed %d documents", n)
	}
}

func TestResolveLoaderScheme(t *testing.T) {
	l := &mapLoader{srcs: map[string]string{
		"mem://s/a.json": `{"type": "object", "properties": {"b": {"$ref": "mem://s/b.json"}, "c": {"$ref": "c.json"}}}`,
		"mem://s/b.json": `{"type": "integer"}`,
		"mem://s/c.json": `{"type": "boolean"}`,
	}}
	ctx := context.Background()
	a, _ := l.Load(ctx, "mem://s/a.json")
	root, err := a.Root.Resolve(ctx, a.URI, a.Definitions, l)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key string
		uri string
		typ Type
	}{
		{"b", "mem://s/b.json", IntegerType},
		{"c", "mem://s/c.json", BooleanType},
	}
	for _, tc := range tests {
		cur, err := root.Schema.Property(tc.key).Resolve(ctx, root.URI, root.Definitions, l)
		if err != nil {
			t.Fatalf("%s: %v", tc.key, err)
		}
		if cur.URI != tc.uri || cur.Schema.Type != tc.typ {
			t.Errorf("%s: got %s %v", tc.key, cur.URI, cur.Schema.Type)
		}
	}
}

func TestResolveOffline(t *testing.T) {
	doc := mustParse(t, "https://example.com/a.json", `{"$ref": "https://example.com/gone.json"}`)
	cur, err := doc.Root.Resolve(context.Background(), doc.URI, doc.Definitions, &mapLoader{})
	if err != nil || cur != nil {
		t.Errorf("got %v, %v", cur, err)
	}
}

func TestResolveConcurrent(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"$ref": "#/definitions/t",
		"definitions": {"t": {"oneOf": [{"$ref": "#/definitions/s"}, {"type": "integer"}]}, "s": {"type": "string"}}
	}`)
	var g errgroup.Group
	var seen [32]*ValueSchema
	ctx := context.Background()
	for i := range seen {
		g.Go(func() error {
			cur, err := doc.Root.Resolve(ctx, doc.URI, doc.Definitions, nil)
			if err != nil {
				return err
			}
			seen[i] = cur.Schema
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i := range seen {
		if seen[i] != seen[0] {
			t.Fatalf("resolution %d returned a different schema", i)
		}
	}
	if got := seen[0].ValueType().String(); got != "String ^ Integer" {
		t.Errorf("type %s", got)
	}
}

func TestFollowPointer(t *testing.T) {
	doc := Object{
		{Key: "a", Value: []any{int64(1), Object{{Key: "b~c", Value: "x"}}}},
	}
	tests := []struct {
		ptr  string
		want any
		ok   bool
	}{
		{"#/a/0", int64(1), true},
		{"#/a/1/b~0c", "x", true},
		{"#/a/2", nil, false},
		{"#/z", nil, false},
	}
	for _, tc := range tests {
		got, ok := followPointer(doc, tc.ptr)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got %v, %v", tc.ptr, got, ok)
		}
	}
}
