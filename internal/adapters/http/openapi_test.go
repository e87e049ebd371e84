package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates the openapi.yaml file by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()

	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := map[string][]string{
		"/v1/health":          {"GET"},
		"/v1/ready":           {"GET"},
		"/v1/routes/optimize": {"POST"},
		"/v1/routes/simulate": {"POST"},
		"/v1/insights":        {"POST"},
		"/v1/weather":         {"POST"},
		"/v1/history":         {"GET"},
		"/v1/route/history":   {"GET"},
		"/v1/routes/{id}":     {"GET", "DELETE"},
		"/graphql":            {"POST"},
		"/ws":                 {"GET"},
	}
	for path, methods := range expectedPaths {
		item := spec.Paths.Find(path)
		if item == nil {
			t.Errorf("expected path %s not found in spec", path)
			continue
		}
		for _, m := range methods {
			if item.GetOperation(m) == nil {
				t.Errorf("expected %s %s in spec", m, path)
			}
		}
	}

	if op := spec.Paths.Find("/v1/route/history").Get; op == nil || !op.Deprecated {
		t.Error("expected legacy history path to be marked deprecated")
	}

	expectedSchemas := []string{
		"APIError",
		"Pagination",
		"RouteCandidate",
		"Insight",
		"OptimizeRequest",
		"OptimizeResponse",
		"SimulateResponse",
		"SavedRoute",
		"TrafficUpdate",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "ZimRoute API" {
		t.Errorf("expected title 'ZimRoute API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}
	if len(spec.Servers) == 0 {
		t.Fatal("expected at least one server")
	}
	if spec.Components.SecuritySchemes["bearerAuth"] == nil {
		t.Error("expected bearerAuth security scheme")
	}
}
