// ABOUTME: Parsing and best-effort repair of oracle-generated config text
// ABOUTME: Decodes leniently with mapstructure so loosely typed answers still map onto SourceConfig

package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"newsfeed-canon/core/domain"
)

// unclosedMetaSelector matches a quoted "meta[..." selector missing its closing bracket.
var unclosedMetaSelector = regexp.MustCompile(`"(meta\[[^\]"]*)"`)

// ParseOracleConfig turns raw oracle text into a SourceConfig. It tries the
// text as is, then the outermost {...} substring, then both again after
// RepairJSON. The result is not validated.
func ParseOracleConfig(raw string) (*domain.SourceConfig, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("oracle config: empty response")
	}

	repaired := RepairJSON(cleaned)
	var lastErr error
	for _, candidate := range []string{cleaned, outermostObject(cleaned), repaired, outermostObject(repaired)} {
		if candidate == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &m); err != nil {
			lastErr = err
			continue
		}
		return decodeConfigMap(m)
	}
	return nil, fmt.Errorf("oracle config: %w", lastErr)
}

// RepairJSON fixes the usual defects of model output: attribute selectors
// like "meta[name='author'" missing their "]", a dangling string, and
// unclosed objects or arrays, which are closed in nesting order.
func RepairJSON(s string) string {
	s = unclosedMetaSelector.ReplaceAllString(s, `"$1]"`)

	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(s, " \t\r\n,"))
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// StripFences removes a surrounding markdown code fence, with or without a
// json language tag, from a model answer.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.Trim(s, "`")
		if strings.HasPrefix(strings.ToLower(s), "json") {
			s = s[4:]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// decodeConfigMap maps a generic JSON object onto SourceConfig. Older key
// names (list_link_selector, content_paragraph_selectors, article.prefer_rss_date)
// are folded into their current places first.
func decodeConfigMap(m map[string]interface{}) (*domain.SourceConfig, error) {
	if sel, ok := m["list_link_selector"]; ok {
		disc, _ := m["discovery"].(map[string]interface{})
		if disc == nil {
			disc = map[string]interface{}{}
		}
		if _, set := disc["link_selector"]; !set {
			disc["link_selector"] = sel
		}
		m["discovery"] = disc
		delete(m, "list_link_selector")
	}
	if art, ok := m["article"].(map[string]interface{}); ok {
		if paras, ok := art["content_paragraph_selectors"]; ok {
			if _, set := art["paragraph_selectors"]; !set {
				art["paragraph_selectors"] = paras
			}
			delete(art, "content_paragraph_selectors")
		}
		if prefer, ok := art["prefer_rss_date"]; ok {
			if _, set := m["prefer_rss_date"]; !set {
				m["prefer_rss_date"] = prefer
			}
			delete(art, "prefer_rss_date")
		}
	}

	var cfg domain.SourceConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       joinListHook,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("oracle config: decode: %w", err)
	}
	return &cfg, nil
}

// joinListHook lets a list of selectors fill a single selector field.
func joinListHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String || from.Kind() != reflect.Slice {
		return data, nil
	}
	items, ok := data.([]interface{})
	if !ok {
		return data, nil
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ", "), nil
}
