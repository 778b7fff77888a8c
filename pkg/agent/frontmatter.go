package agent

import (
	"bytes"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// routeDirective matches handoff directives in agent bodies, e.g.
// "ROUTE TO: @implementation-agent".
var routeDirective = regexp.MustCompile(`ROUTE TO:\s*@([A-Za-z0-9][A-Za-z0-9_-]*)`)

// Parse converts the raw bytes of an agent markdown file into a Definition.
// The file must open with a "---" delimited YAML frontmatter block carrying
// at least name and description; everything below is the prompt body.
func Parse(data []byte) (*Definition, error) {
	header, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(header, &def); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	if def.Name == "" {
		return nil, fmt.Errorf("agent missing name")
	}
	if def.Description == "" {
		return nil, fmt.Errorf("agent %q missing description", def.Name)
	}

	def.Body = string(body)
	def.Routes = mergeRoutes(def.Routes, ExtractRoutes(def.Body))

	return &def, nil
}

// ExtractRoutes returns agent names mentioned as "ROUTE TO: @name" in text,
// in order of first appearance, deduplicated.
func ExtractRoutes(text string) []string {
	matches := routeDirective.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var routes []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			routes = append(routes, m[1])
		}
	}
	return routes
}

func mergeRoutes(declared, mentioned []string) []string {
	seen := make(map[string]bool, len(declared)+len(mentioned))
	var out []string
	for _, r := range declared {
		if r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, r := range mentioned {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// splitFrontmatter separates the YAML header from the markdown body.
func splitFrontmatter(data []byte) (header, body []byte, err error) {
	trimmed := bytes.TrimLeft(data, "\r\n \t")
	if !bytes.HasPrefix(trimmed, frontmatterDelim) {
		return nil, nil, fmt.Errorf("missing frontmatter: file must start with ---")
	}

	// Skip the opening delimiter line.
	rest := trimmed[len(frontmatterDelim):]
	if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		return nil, nil, fmt.Errorf("missing frontmatter: no closing ---")
	}

	// Find the closing delimiter on its own line.
	for offset := 0; ; {
		idx := bytes.Index(rest[offset:], frontmatterDelim)
		if idx < 0 {
			return nil, nil, fmt.Errorf("missing frontmatter: no closing ---")
		}
		at := offset + idx
		lineStart := at == 0 || rest[at-1] == '\n'
		lineEnd := at+len(frontmatterDelim) >= len(rest) || rest[at+len(frontmatterDelim)] == '\n' || rest[at+len(frontmatterDelim)] == '\r'
		if lineStart && lineEnd {
			header = rest[:at]
			body = rest[at+len(frontmatterDelim):]
			body = bytes.TrimPrefix(body, []byte("\r"))
			body = bytes.TrimPrefix(body, []byte("\n"))
			return header, body, nil
		}
		offset = at + len(frontmatterDelim)
	}
}
