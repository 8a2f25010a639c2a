// ABOUTME: JSON-LD helpers for the field extractor
// ABOUTME: Flattens ld+json script blocks into node maps and reads typed fields from them

package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type ldNode = map[string]interface{}

// jsonLDNodes returns the top-level objects of every ld+json block on the page,
// in document order. Blocks that fail to decode are skipped.
func jsonLDNodes(doc *goquery.Document) []ldNode {
	var nodes []ldNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		switch v := data.(type) {
		case map[string]interface{}:
			nodes = append(nodes, v)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					nodes = append(nodes, m)
				}
			}
		}
	})
	return nodes
}

// withGraph expands each node's @graph members after the node itself.
func withGraph(nodes []ldNode) []ldNode {
	out := make([]ldNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
		if graph, ok := n["@graph"].([]interface{}); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]interface{}); ok {
					out = append(out, m)
				}
			}
		}
	}
	return out
}

// ldString returns the first non-empty string value among keys.
func ldString(n ldNode, keys ...string) string {
	for _, k := range keys {
		if v, ok := n[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// personName reads name or givenName from a person-like object.
func personName(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return ldString(m, "name", "givenName")
}

// ldAuthorNames collects author names from one node: the first present field
// among author, creator and contributor, read as object, list or string.
func ldAuthorNames(n ldNode) []string {
	var names []string
	for _, field := range []string{"author", "creator", "contributor"} {
		v, ok := n[field]
		if !ok || v == nil {
			continue
		}
		switch a := v.(type) {
		case map[string]interface{}:
			if name := personName(a); name != "" {
				names = append(names, name)
			}
		case []interface{}:
			for _, p := range a {
				switch pv := p.(type) {
				case string:
					if s := strings.TrimSpace(pv); s != "" {
						names = append(names, s)
					}
				default:
					if name := personName(pv); name != "" {
						names = append(names, name)
					}
				}
			}
		case string:
			if s := strings.TrimSpace(a); s != "" {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			break
		}
	}
	return names
}

// isPerson reports whether a node's @type names a Person.
func isPerson(n ldNode) bool {
	switch t := n["@type"].(type) {
	case string:
		return strings.Contains(t, "Person")
	case []interface{}:
		for _, x := range t {
			if s, ok := x.(string); ok && strings.Contains(s, "Person") {
				return true
			}
		}
	}
	return false
}

// graphPersons returns the names of Person nodes inside a node's @graph.
func graphPersons(n ldNode) []string {
	graph, ok := n["@graph"].([]interface{})
	if !ok {
		return nil
	}
	var names []string
	for _, g := range graph {
		m, ok := g.(map[string]interface{})
		if !ok || !isPerson(m) {
			continue
		}
		if name := ldString(m, "name", "givenName"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
