package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true,
}

// document is the subset of a swagger 2.0 file that affects clients.
type document struct {
	Paths map[string]map[string]operation
}

type operation struct {
	Responses map[string]bool
	// Required holds "in:name" for each required parameter.
	Required map[string]bool
	Secured  bool
}

type rawParameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"`
	Required bool   `yaml:"required"`
}

type rawOperation struct {
	Parameters []rawParameter        `yaml:"parameters"`
	Responses  map[string]yaml.Node  `yaml:"responses"`
	Security   []map[string][]string `yaml:"security"`
}

type rawDocument struct {
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

func loadDocument(path string) (*document, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDocument(raw)
}

// parseDocument accepts YAML or JSON since swag emits both.
func parseDocument(raw []byte) (*document, error) {
	var rd rawDocument
	if err := yaml.Unmarshal(raw, &rd); err != nil {
		return nil, err
	}
	if rd.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	doc := &document{Paths: make(map[string]map[string]operation, len(rd.Paths))}
	for path, entries := range rd.Paths {
		ops := make(map[string]operation)
		for method, node := range entries {
			method = strings.ToLower(strings.TrimSpace(method))
			if !httpMethods[method] {
				continue
			}
			var ro rawOperation
			if err := node.Decode(&ro); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), path, err)
			}
			op := operation{
				Responses: make(map[string]bool, len(ro.Responses)),
				Required:  make(map[string]bool),
				Secured:   len(ro.Security) > 0,
			}
			for code := range ro.Responses {
				op.Responses[strings.ToLower(strings.TrimSpace(code))] = true
			}
			for _, p := range ro.Parameters {
				if p.Required {
					op.Required[p.In+":"+p.Name] = true
				}
			}
			ops[method] = op
		}
		if len(ops) > 0 {
			doc.Paths[path] = ops
		}
	}
	return doc, nil
}

func (d *document) operationCount() int {
	n := 0
	for _, ops := range d.Paths {
		n += len(ops)
	}
	return n
}

// breakingChanges lists what revision removes or tightens relative to base.
func breakingChanges(base, revision *document) []string {
	var issues []string
	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, "removed path: "+path)
			continue
		}
		for method, baseOp := range baseOps {
			name := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, "removed operation: "+name)
				continue
			}
			for code := range baseOp.Responses {
				if !revOp.Responses[code] {
					issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", name, strings.ToUpper(code)))
				}
			}
			for param := range revOp.Required {
				if !baseOp.Required[param] {
					issues = append(issues, fmt.Sprintf("new required parameter: %s -> %s", name, param))
				}
			}
			if revOp.Secured && !baseOp.Secured {
				issues = append(issues, "now requires auth: "+name)
			}
		}
	}
	sort.Strings(issues)
	return issues
}
