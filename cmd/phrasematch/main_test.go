package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/phrasematch"
	"github.com/poiesic/phrasematch/ai/mock"
	"github.com/poiesic/phrasematch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testCorpus = `phrase,topics
утеряна сим-карта,Блокировка СИМ
pay не работает,Платежи
перевод денег за границу,Переводы
`

// writeTestConfig writes a corpus and a config pointing at it, and returns
// the config path.
func writeTestConfig(t *testing.T, groups string) string {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(corpusPath, []byte(testCorpus), 0o644))

	content := "sources:\n  - " + corpusPath + "\nembedding:\n  retry_delay: 1ms\nsynonym_groups:\n" + groups
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

const testGroups = `  - [симка, симку, сим карта]
  - [потерять, потерял, утеряна]
  - [пэй, pay, оплата]
`

// runApp runs the CLI against a mock embedder and returns its stdout.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	previous := engineOptions
	engineOptions = []phrasematch.EngineOption{phrasematch.WithEmbedder(mock.NewMockEmbedder())}
	t.Cleanup(func() { engineOptions = previous })

	var out, errOut bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"phrasematch", "--env-file", ""}, args...))
	return out.String(), err
}

func TestRenderResults(t *testing.T) {
	semantic := core.MatchResult{Score: 0.8123, DisplayPhrase: "утеряна сим-карта", Topics: []string{"Блокировка СИМ"}}
	exact := core.MatchResult{Score: 1, DisplayPhrase: "pay не работает", Topics: []string{"Платежи", "Сервисы"}, Exact: true}

	tests := []struct {
		name    string
		results []core.MatchResult
		want    string
	}{
		{
			name: "nothing found",
			want: "Nothing found.\n",
		},
		{
			name:    "semantic only",
			results: []core.MatchResult{semantic},
			want:    "1. [0.812] утеряна сим-карта\n   topics: Блокировка СИМ\n",
		},
		{
			name:    "keyword only",
			results: []core.MatchResult{exact},
			want:    "Additional keyword matches:\n- pay не работает\n  topics: Платежи, Сервисы\n",
		},
		{
			name:    "both",
			results: []core.MatchResult{semantic, exact},
			want: "1. [0.812] утеряна сим-карта\n   topics: Блокировка СИМ\n\n" +
				"Additional keyword matches:\n- pay не работает\n  topics: Платежи, Сервисы\n",
		},
		{
			name:    "no topics",
			results: []core.MatchResult{{Score: 0.5, DisplayPhrase: "x"}},
			want:    "1. [0.500] x\n   topics: -\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderResults(&buf, tt.results)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	var configFlag *cli.StringFlag
	for _, flag := range app.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "config" {
			configFlag = f
		}
	}
	require.NotNil(t, configFlag)
	assert.Equal(t, "config.yaml", configFlag.Value)
	assert.Equal(t, []string{"PHRASEMATCH_CONFIG"}, configFlag.EnvVars)

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"search", "repl", "warm", "validate-synonyms"}, names)
}

func TestSearchCommand(t *testing.T) {
	configPath := writeTestConfig(t, testGroups)

	t.Run("semantic match", func(t *testing.T) {
		out, err := runApp(t, "", "-c", configPath, "search", "потерял", "симку")
		require.NoError(t, err)
		assert.Contains(t, out, "1. [1.000] утеряна сим-карта")
		assert.Contains(t, out, "topics: Блокировка СИМ")
	})

	t.Run("keyword match", func(t *testing.T) {
		out, err := runApp(t, "", "-c", configPath, "search", "оплата")
		require.NoError(t, err)
		assert.Contains(t, out, "Additional keyword matches:\n- pay не работает")
	})

	t.Run("explain", func(t *testing.T) {
		out, err := runApp(t, "", "-c", configPath, "search", "--explain", "Оплата")
		require.NoError(t, err)
		assert.Contains(t, out, `normalized: "пэй"`)
		assert.Contains(t, out, "keyword:    1 hits")
	})

	t.Run("threshold override", func(t *testing.T) {
		out, err := runApp(t, "", "-c", configPath, "search", "--threshold", "1.5", "перевод")
		require.Error(t, err)
		assert.Empty(t, out)
		assert.Contains(t, err.Error(), "threshold")
	})

	t.Run("nothing found", func(t *testing.T) {
		out, err := runApp(t, "", "-c", configPath, "search", "ипотечный калькулятор")
		require.NoError(t, err)
		assert.Equal(t, "Nothing found.\n", out)
	})

	t.Run("query is required", func(t *testing.T) {
		_, err := runApp(t, "", "-c", configPath, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := runApp(t, "", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "search", "pay")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source")
	})
}

func TestReplCommand(t *testing.T) {
	configPath := writeTestConfig(t, testGroups)

	out, err := runApp(t, "потерял симку\n\nexit\nне дойдёт\n", "-c", configPath, "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "Ready: 3 phrases indexed.")
	assert.Contains(t, out, "утеряна сим-карта")
	assert.NotContains(t, out, "Nothing found.")
}

func TestWarmCommand(t *testing.T) {
	configPath := writeTestConfig(t, testGroups)

	out, err := runApp(t, "", "-c", configPath, "warm")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries:        3\n")
	assert.Contains(t, out, "Cache hits:     0\n")

	_, err = runApp(t, "", "-c", configPath, "warm", "--report-interval", "0")
	assert.Error(t, err)
}

func TestValidateSynonymsCommand(t *testing.T) {
	t.Run("no conflicts", func(t *testing.T) {
		out, err := runApp(t, "", "-c", writeTestConfig(t, testGroups), "validate-synonyms")
		require.NoError(t, err)
		assert.Contains(t, out, "No conflicts.")
	})

	t.Run("conflicts", func(t *testing.T) {
		groups := "  - [кредитка, карта]\n  - [карточка, карта]\n"
		out, err := runApp(t, "", "-c", writeTestConfig(t, groups), "validate-synonyms")
		require.Error(t, err)
		assert.Contains(t, out, `"карта": group "карточка" overrides group "кредитка"`)

		var exitErr cli.ExitCoder
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.ExitCode())
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, tc := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}
				require.NoError(t, app.Run([]string{"test", "--log-level", tc}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := runApp(t, "", "--log-level", "loud", "validate-synonyms")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
