package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/cache/redis"
	"github.com/davidbz/creditmeter/internal/catalog"
	"github.com/davidbz/creditmeter/internal/cli"
	"github.com/davidbz/creditmeter/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Catalog: config.CatalogConfig{SeedDefaults: true},
		Redis:   redis.Config{CatalogKey: "catalog:models"},
	}
}

// run executes costctl with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := cli.NewRootCommand(testConfig)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCalc(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		out, err := run(t, "", "calc", "--model", "openai/gpt-4o", "--input", "1000", "--output", "500")

		require.NoError(t, err)
		require.Contains(t, out, "openai/gpt-4o/language: 0.0075000000")
		require.Contains(t, out, "RESOLUTION")
	})

	t.Run("record on stdin with provider metadata", func(t *testing.T) {
		record := `{"providerId":"anthropic","modelId":"claude-sonnet-4","inputTokens":1000,"outputTokens":100,` +
			`"providerMetadata":{"anthropic":{"cacheCreationInputTokens":1000}}}`

		out, err := run(t, record, "calc", "--file", "-", "--format", "json")
		require.NoError(t, err)

		var view struct {
			Cost       string `json:"cost"`
			NoCost     bool   `json:"noCost"`
			Components []struct {
				Axis       string `json:"axis"`
				Resolution string `json:"resolution"`
			} `json:"components"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &view))

		// 1000 × 3 + 100 × 15 + 1000 × 6 (cache write at the highest tier)
		require.Equal(t, "0.0105000000", view.Cost)
		require.False(t, view.NoCost)
		require.Len(t, view.Components, 4)
		require.Equal(t, "cacheWrite", view.Components[3].Axis)
		require.Equal(t, "max_tier", view.Components[3].Resolution)
	})

	t.Run("raw provider response", func(t *testing.T) {
		message := `{"id":"msg_01","type":"message","role":"assistant","model":"claude-sonnet-4-20250514","content":[],
			"usage":{"input_tokens":12,"output_tokens":7,"cache_read_input_tokens":30,"cache_creation_input_tokens":5,
			"cache_creation":{"ephemeral_5m_input_tokens":5,"ephemeral_1h_input_tokens":0}}}`

		out, err := run(t, message, "calc", "--response", "anthropic", "--file", "-", "--model", "claude-sonnet-4")

		require.NoError(t, err)
		require.Contains(t, out, "anthropic/claude-sonnet-4/language: 0.0001687500")

		_, err = run(t, message, "calc", "--response", "anthropic", "--file", "-")
		require.Error(t, err)
		require.Contains(t, err.Error(), "claude-sonnet-4-20250514")
	})

	t.Run("bare model id", func(t *testing.T) {
		out, err := run(t, "", "calc", "--model", "gpt-4o", "--input", "1000", "--output", "500")

		require.NoError(t, err)
		require.Contains(t, out, "openai/gpt-4o/language: 0.0075000000")
	})

	t.Run("unchargeable model", func(t *testing.T) {
		out, err := run(t, "", "calc", "--model", "echo/echo4", "--input", "10")

		require.NoError(t, err)
		require.Equal(t, "echo/echo4/language: no cost\n", out)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want string
		}{
			{"unknown model", []string{"calc", "--model", "openai/gpt-9"}, "not found"},
			{"bad model", []string{"calc", "--model", "/gpt-4o"}, "provider/model"},
			{"bare id not in catalog", []string{"calc", "--model", "gpt-9"}, "no provider found"},
			{"no usage", []string{"calc"}, "--model or --file"},
			{"bad metadata", []string{"calc", "--model", "openai/gpt-4o", "--metadata", "{"}, "invalid --metadata"},
			{"bad format", []string{"calc", "--model", "openai/gpt-4o", "--format", "xml"}, "unknown format"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := run(t, "", tt.args...)
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.want)
			})
		}
	})
}

func TestEstimate(t *testing.T) {
	t.Run("prompt flag", func(t *testing.T) {
		out, err := run(t, "", "estimate", "--model", "openai/gpt-4o", "--prompt", "hi")

		require.NoError(t, err)
		// `[{"role":"user","content":"hi"}]` -> 8 tokens + 32 overhead, × 2.5
		require.Equal(t, "openai/gpt-4o/language: at most 0.0001000000 (40 input tokens)\n", out)
	})

	t.Run("piped prompt", func(t *testing.T) {
		out, err := run(t, "hi\n", "estimate", "--model", "openai/gpt-4o", "--format", "json")

		require.NoError(t, err)
		require.JSONEq(t,
			`{"model":"openai/gpt-4o/language","estimate":{"kind":"amount","amount":"0.0001000000","estimatedTokens":40}}`,
			out)
	})

	t.Run("prompt file", func(t *testing.T) {
		path := writeFile(t, "prompt.json", `[{"role":"user","content":"hi"}]`)

		out, err := run(t, "", "estimate", "--model", "openai/gpt-4o", "--prompt-file", path)
		require.NoError(t, err)
		require.Contains(t, out, "(40 input tokens)")
	})

	t.Run("other modalities are unknown", func(t *testing.T) {
		out, err := run(t, "", "estimate", "--model", "openai/gpt-image-1", "--modality", "image", "--prompt", "a cat")

		require.NoError(t, err)
		require.Equal(t, "openai/gpt-image-1/image: unknown\n", out)
	})

	t.Run("model is required", func(t *testing.T) {
		_, err := run(t, "", "estimate", "--prompt", "hi")
		require.Error(t, err)
	})
}

func TestBackfill(t *testing.T) {
	log := `{"providerId":"openai","modelId":"gpt-4o","inputTokens":1000,"outputTokens":500}
{"modelId":"echo4","inputTokens":3,"outputTokens":3}
{"providerId":"openai","modelId":"gpt-4o","inputTokens":1000,"outputTokens":500}
`

	t.Run("text", func(t *testing.T) {
		out, err := run(t, "", "backfill", "--concurrency", "2", writeFile(t, "usage.jsonl", log))

		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 4)
		require.Equal(t, "1\topenai/gpt-4o/language\t0.0075000000", lines[0])
		require.Equal(t, "2\techo/echo4/language\tno cost", lines[1])
		require.Equal(t, "total 0.0150000000 over 2 charged of 3 records", lines[3])
	})

	t.Run("json from stdin", func(t *testing.T) {
		out, err := run(t, log, "backfill", "-", "--format", "json")
		require.NoError(t, err)

		var view struct {
			Records int    `json:"records"`
			Charged int    `json:"charged"`
			Total   string `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		require.Equal(t, 3, view.Records)
		require.Equal(t, 2, view.Charged)
		require.Equal(t, "0.0150000000", view.Total)
	})

	t.Run("unknown model stops the run", func(t *testing.T) {
		_, err := run(t, `{"providerId":"openai","modelId":"gpt-9"}`, "backfill", "-")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})

	t.Run("malformed log", func(t *testing.T) {
		_, err := run(t, "{", "backfill", "-")
		require.Error(t, err)
		require.Contains(t, err.Error(), "record 1")
	})
}

func TestModels(t *testing.T) {
	t.Run("markdown table off a terminal", func(t *testing.T) {
		out, err := run(t, "", "models")

		require.NoError(t, err)
		require.Contains(t, out, "| Model | Modality |")
		require.Contains(t, out, "| anthropic/claude-sonnet-4 | language | yes | 3 | 15 | 0.3 | 5m 3.75, 1h 6 |")
		require.Contains(t, out, "| echo/echo4 | language | no |")
	})

	t.Run("json with a catalog overlay", func(t *testing.T) {
		path := writeFile(t, "catalog.json",
			`[{"providerId":"acme","modelId":"tiny","modality":"language","inputTokenPrice":"0.1","chargeable":true}]`)

		out, err := run(t, "", "models", "--catalog", path, "--format", "json")
		require.NoError(t, err)

		models, err := catalog.Load(strings.NewReader(out))
		require.NoError(t, err)
		require.Greater(t, len(models), 1)
		require.Equal(t, "acme", models[0].ProviderID)
	})
}

func TestCatalogLint(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		path := writeFile(t, "catalog.hcl", `
model "acme" "tiny" {
  modality           = "language"
  chargeable         = true
  input_token_price  = "0.1"
  output_token_price = "0.4"
}
`)
		out, err := run(t, "", "catalog", "lint", path)

		require.NoError(t, err)
		require.Equal(t, "1 models, no issues\n", out)
	})

	t.Run("issues fail the command", func(t *testing.T) {
		path := writeFile(t, "catalog.json",
			`[{"providerId":"acme","modelId":"tiny","modality":"language","inputTokenPrice":"abc","outputTokenPrice":{"x":1}}]`)

		out, err := run(t, "", "catalog", "lint", path)

		require.ErrorIs(t, err, cli.ErrCatalogIssues)
		require.Contains(t, out, "malformed price abc")
		require.Contains(t, out, "unrecognized price shape")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "", "catalog", "lint", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}

func TestCatalogExportAndSchema(t *testing.T) {
	out, err := run(t, "", "catalog", "export")
	require.NoError(t, err)

	models, err := catalog.Load(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, models, len(catalog.Defaults()))

	path := filepath.Join(t.TempDir(), "export.json")
	_, err = run(t, "", "catalog", "export", "--out", path)
	require.NoError(t, err)
	require.FileExists(t, path)

	out, err = run(t, "", "catalog", "schema")
	require.NoError(t, err)
	require.Contains(t, out, `"providerId"`)
	require.Contains(t, out, `"oneOf"`)
}

func TestCatalogImport(t *testing.T) {
	path := writeFile(t, "catalog.json",
		`[{"providerId":"acme","modelId":"tiny","modality":"language","inputTokenPrice":"1","chargeable":true}]`)

	t.Run("requires a shared catalog", func(t *testing.T) {
		_, err := run(t, "", "catalog", "import", path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "--redis")
	})

	t.Run("replaces the redis catalog", func(t *testing.T) {
		server := miniredis.RunT(t)
		server.HSet("catalog:models", "stale/model/language", `{"providerId":"stale","modelId":"model","modality":"language"}`)

		out, err := run(t, "", "--redis", server.Addr(), "catalog", "import", path)
		require.NoError(t, err)
		require.Contains(t, out, "imported 1 models into redis://")

		require.Empty(t, server.HGet("catalog:models", "stale/model/language"))
		require.NotEmpty(t, server.HGet("catalog:models", "acme/tiny/language"))

		out, err = run(t, "", "--redis", server.Addr(), "calc", "--model", "acme/tiny", "--input", "1000000")
		require.NoError(t, err)
		require.Contains(t, out, "acme/tiny/language: 1.0000000000")
	})

	t.Run("merge keeps existing entries", func(t *testing.T) {
		server := miniredis.RunT(t)
		server.HSet("catalog:models", "other/model/language", `{"providerId":"other","modelId":"model","modality":"language"}`)

		_, err := run(t, "", "--redis", server.Addr(), "catalog", "import", "--merge", path)
		require.NoError(t, err)
		require.NotEmpty(t, server.HGet("catalog:models", "other/model/language"))
		require.NotEmpty(t, server.HGet("catalog:models", "acme/tiny/language"))
	})
}
