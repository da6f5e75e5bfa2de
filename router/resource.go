// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

type segmentKind int

const (
	staticSegment segmentKind = iota
	dynamicSegment
	mixedSegment
	tailSegment
)

type segment struct {
	kind segmentKind

	// literal value for static segments
	literal string
	folded  string

	// capture name for dynamic and tail segments
	name string

	// only set for constrained dynamic segments and mixed segments
	re    *regexp.Regexp
	names []string
}

// token is either a literal chunk of the pattern or a placeholder
// which gets substituted during URL generation.
type token struct {
	literal     string
	placeholder bool
}

// ResourceDef describes a path pattern.
//
// Patterns are made of "/" separated segments. A segment is either static,
// e.g. "users", or dynamic. Dynamic segments are written as "{name}" and
// match exactly one path segment. A dynamic segment may be constrained with
// a regular expression, "{id:[0-9]+}". The last segment of a pattern may be
// a tail, "{rest}*", which captures the remainder of the path including any "/".
type ResourceDef struct {
	pattern  string
	name     string
	segments []segment
	tokens   []token
}

// InvalidPatternError is returned when a pattern can not be parsed.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

// Error implements the [builtin.error] interface.
func (e InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid resource pattern %q: %s", e.Pattern, e.Reason)
}

// MustParse is like [Parse] but panics if pattern is invalid.
func MustParse(pattern string) ResourceDef {
	def, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return def
}

// Parse parses the given pattern into a [ResourceDef].
func Parse(pattern string) (ResourceDef, error) {
	tokens, err := tokenize(pattern)
	if err != nil {
		return ResourceDef{}, err
	}

	def := ResourceDef{
		pattern: pattern,
		tokens:  tokens,
	}

	parts := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	for i, part := range parts {
		seg, err := parseSegment(pattern, part)
		if err != nil {
			return ResourceDef{}, err
		}
		if seg.kind == tailSegment && i != len(parts)-1 {
			return ResourceDef{}, InvalidPatternError{
				Pattern: pattern,
				Reason:  "tail segment must be the last segment",
			}
		}
		def.segments = append(def.segments, seg)
	}
	return def, nil
}

func tokenize(pattern string) ([]token, error) {
	var tokens []token
	var lit strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '}' {
			return nil, InvalidPatternError{Pattern: pattern, Reason: "unexpected '}'"}
		}
		if pattern[i] != '{' {
			lit.WriteByte(pattern[i])
			continue
		}

		end, err := closingBrace(pattern, i)
		if err != nil {
			return nil, err
		}
		if lit.Len() > 0 {
			tokens = append(tokens, token{literal: lit.String()})
			lit.Reset()
		}
		tokens = append(tokens, token{placeholder: true, literal: pattern[i : end+1]})
		i = end
		if i+1 < len(pattern) && pattern[i+1] == '*' {
			i++
		}
	}
	if lit.Len() > 0 {
		tokens = append(tokens, token{literal: lit.String()})
	}
	return tokens, nil
}

// closingBrace returns the index of the brace which closes the one at start.
// Regular expressions inside placeholders may contain their own braces.
func closingBrace(pattern string, start int) (int, error) {
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, InvalidPatternError{Pattern: pattern, Reason: "unclosed '{'"}
}

func parseSegment(pattern, part string) (segment, error) {
	if !strings.ContainsRune(part, '{') {
		return segment{
			kind:    staticSegment,
			literal: part,
			folded:  cases.Fold().String(part),
		}, nil
	}

	if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}*") {
		name, expr := splitPlaceholder(part[1 : len(part)-2])
		if expr != "" || strings.ContainsAny(name, "{}") {
			return segment{}, InvalidPatternError{Pattern: pattern, Reason: "tail segments can not be constrained"}
		}
		return segment{kind: tailSegment, name: name}, nil
	}

	end, err := closingBrace(part, strings.IndexByte(part, '{'))
	if err != nil {
		return segment{}, InvalidPatternError{Pattern: pattern, Reason: "unclosed '{'"}
	}
	if part[0] == '{' && end == len(part)-1 {
		name, expr := splitPlaceholder(part[1:end])
		if expr == "" {
			return segment{kind: dynamicSegment, name: name}, nil
		}
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return segment{}, InvalidPatternError{Pattern: pattern, Reason: err.Error()}
		}
		return segment{kind: dynamicSegment, name: name, re: re}, nil
	}

	return parseMixedSegment(pattern, part)
}

func parseMixedSegment(pattern, part string) (segment, error) {
	var expr strings.Builder
	var names []string
	expr.WriteByte('^')
	for i := 0; i < len(part); i++ {
		if part[i] != '{' {
			expr.WriteString(regexp.QuoteMeta(string(part[i])))
			continue
		}
		end, err := closingBrace(part, i)
		if err != nil {
			return segment{}, err
		}
		name, sub := splitPlaceholder(part[i+1 : end])
		if sub == "" {
			sub = "[^/]+"
		}
		expr.WriteString("(" + sub + ")")
		names = append(names, name)
		i = end
	}
	expr.WriteByte('$')

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return segment{}, InvalidPatternError{Pattern: pattern, Reason: err.Error()}
	}
	return segment{kind: mixedSegment, re: re, names: names}, nil
}

func splitPlaceholder(s string) (name, expr string) {
	name, expr, _ = strings.Cut(s, ":")
	return name, expr
}

// Pattern returns the pattern the [ResourceDef] was parsed from.
func (d ResourceDef) Pattern() string {
	return d.pattern
}

// Name returns the name used for URL generation. It is empty for unnamed resources.
func (d ResourceDef) Name() string {
	return d.name
}

// WithName returns a copy of d with the given name.
func (d ResourceDef) WithName(name string) ResourceDef {
	d.name = name
	return d
}

// Match tests path against the pattern and returns the captured dynamic segments.
//
// If caseInsensitive is true, static segments are compared under Unicode case
// folding. Captured values are always returned exactly as they appear in path.
func (d ResourceDef) Match(path string, caseInsensitive bool) (Path, bool) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")

	var fold cases.Caser
	if caseInsensitive {
		fold = cases.Fold()
	}

	var p Path
	for i, seg := range d.segments {
		if seg.kind == tailSegment {
			p.params = append(p.params, Param{Name: seg.name, Value: strings.Join(parts[i:], "/")})
			return p, true
		}
		if i >= len(parts) {
			return Path{}, false
		}

		part := parts[i]
		switch seg.kind {
		case staticSegment:
			if part == seg.literal {
				continue
			}
			if !caseInsensitive || fold.String(part) != seg.folded {
				return Path{}, false
			}
		case dynamicSegment:
			if part == "" {
				return Path{}, false
			}
			if seg.re != nil && !seg.re.MatchString(part) {
				return Path{}, false
			}
			p.params = append(p.params, Param{Name: seg.name, Value: part})
		case mixedSegment:
			groups := seg.re.FindStringSubmatch(part)
			if groups == nil {
				return Path{}, false
			}
			for j, name := range seg.names {
				p.params = append(p.params, Param{Name: name, Value: groups[j+1]})
			}
		}
	}
	if len(parts) != len(d.segments) {
		return Path{}, false
	}
	return p, true
}

// NotEnoughElementsError is returned when URL generation is given fewer
// elements than the pattern has dynamic segments.
type NotEnoughElementsError struct {
	Resource string
	Want     int
	Got      int
}

// Error implements the [builtin.error] interface.
func (e NotEnoughElementsError) Error() string {
	return fmt.Sprintf("resource %q requires %d elements but got %d", e.Resource, e.Want, e.Got)
}

// Generate substitutes the dynamic segments of the pattern, in order, with elems.
func (d ResourceDef) Generate(elems ...string) (string, error) {
	want := 0
	for _, t := range d.tokens {
		if t.placeholder {
			want++
		}
	}
	if len(elems) < want {
		return "", NotEnoughElementsError{Resource: d.name, Want: want, Got: len(elems)}
	}

	var sb strings.Builder
	i := 0
	for _, t := range d.tokens {
		if !t.placeholder {
			sb.WriteString(t.literal)
			continue
		}
		sb.WriteString(elems[i])
		i++
	}
	return sb.String(), nil
}
