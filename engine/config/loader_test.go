package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periplon/metis/engine/autoload"
	"github.com/periplon/metis/engine/core"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load inline manifest sections", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "project.yaml", `
server:
  host: 0.0.0.0
  port: 8090
tools:
  - name: greet
    input_schema:
      type: object
    mock:
      strategy: template
      template: "Hello, {{name}}!"
`)
		loader := NewLoader(root, nil)
		snap, err := loader.Load(context.Background(), filepath.Join(root, "project.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 8090, snap.Server.Port)
		tool, ok := snap.Tools["greet"]
		require.True(t, ok)
		assert.Equal(t, StrategyTemplate, tool.Mock.Strategy)
	})

	t.Run("Should load autoload-discovered fragments via engine/autoload", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "project.yaml", `
autoload:
  enabled: true
  include:
    - "tools/*.yaml"
`)
		writeFile(t, root, "tools/greet.yaml", `
resource: tool
name: greet
input_schema:
  type: object
mock:
  strategy: template
  template: "Hello, {{name}}!"
`)
		loader := NewLoader(root, &autoload.Config{Enabled: true, Strict: true, Include: []string{"tools/*.yaml"}})
		snap, err := loader.Load(context.Background(), filepath.Join(root, "project.yaml"))
		require.NoError(t, err)
		tool, ok := snap.Tools["greet"]
		require.True(t, ok)
		assert.Equal(t, core.ConfigTool, tool.Component())
	})

	t.Run("Should reject a workflow referencing an unknown tool", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "project.yaml", `
workflows:
  - name: pipeline
    steps:
      - id: a
        tool: missing
`)
		loader := NewLoader(root, nil)
		_, err := loader.Load(context.Background(), filepath.Join(root, "project.yaml"))
		require.Error(t, err)
	})

	t.Run("Should reject a workflow with a dependency cycle", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "project.yaml", `
tools:
  - name: echo
    input_schema:
      type: object
    mock:
      strategy: template
      template: "{{x}}"
workflows:
  - name: pipeline
    steps:
      - id: a
        tool: echo
        depends_on: ["b"]
      - id: b
        tool: echo
        depends_on: ["a"]
`)
		loader := NewLoader(root, nil)
		_, err := loader.Load(context.Background(), filepath.Join(root, "project.yaml"))
		require.Error(t, err)
	})
}
