package schemastore

import (
	"bytes"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
)

// AddOverlay registers a patch applied to the document at uri before it is
// parsed. An object is a JSON merge patch, an array a JSON patch. Either
// may be written in YAML. The patched document loses its key order, so
// schema key order falls back to the order of the patched JSON.
func (s *Store) AddOverlay(uri string, patch []byte) error {
	p, err := toJSON(patch)
	if err != nil {
		return fmt.Errorf("overlay for %s: %w", uri, err)
	}
	switch firstByte(p) {
	case '{':
	case '[':
		if _, err := jsonpatch.DecodePatch(p); err != nil {
			return fmt.Errorf("overlay for %s: %w", uri, err)
		}
	default:
		return fmt.Errorf("overlay for %s: a patch must be an object or an array", uri)
	}
	uri = docURI(uri)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays[uri] = append(s.overlays[uri], p)
	delete(s.docs, uri)
	return nil
}

func applyOverlays(data []byte, patches [][]byte) ([]byte, error) {
	doc, err := toJSON(data)
	if err != nil {
		return nil, err
	}
	for _, p := range patches {
		if firstByte(p) == '[' {
			jp, err := jsonpatch.DecodePatch(p)
			if err != nil {
				return nil, err
			}
			if doc, err = jp.Apply(doc); err != nil {
				return nil, err
			}
			continue
		}
		if doc, err = jsonpatch.MergePatch(doc, p); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func toJSON(data []byte) ([]byte, error) {
	switch firstByte(data) {
	case '{', '[':
		return data, nil
	}
	return yaml.YAMLToJSON(data)
}

func firstByte(data []byte) byte {
	t := bytes.TrimSpace(data)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}
