package testintegration

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fredbi/pivotviz/internal/pkg/chart"
	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/export"
	"github.com/fredbi/pivotviz/internal/pkg/organizer"
	"github.com/fredbi/pivotviz/internal/pkg/pipeline"
	"github.com/fredbi/pivotviz/internal/pkg/session"
	"github.com/fredbi/pivotviz/internal/pkg/source"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestPivotviz(t *testing.T) {
	t.Run("with power generation example", func(t *testing.T) {
		fixtureDir := filepath.Join("..", "..", "..", "examples", "power")
		outDir := t.TempDir()

		t.Run("should load config", func(t *testing.T) {
			cfg, err := config.Load(filepath.Join(fixtureDir, "pivotviz.yaml"))
			require.NoError(t, err)
			require.NotNil(t, cfg)

			writeData(t, outDir, "test_config.json", cfg)

			t.Run("should load data", func(t *testing.T) {
				file := filepath.Join(fixtureDir, cfg.Data.Path)
				raw, err := source.New(source.WithFormat(cfg.Data.Format)).LoadFiles(file)
				require.NoError(t, err)
				require.Equal(t, 48, raw.Len())

				cls := table.Classify(raw, cfg.Classifier.Thresholds())
				writeData(t, outDir, "test_report.json", source.Describe(raw, cls))

				for _, preset := range cfg.FindPresets(file) {
					t.Run("should derive and render preset "+preset.ID, func(t *testing.T) {
						w, err := view.Merge(cfg.Defaults, preset.Widgets)
						require.NoError(t, err)

						v, err := view.Build(w, cls)
						require.NoError(t, err)
						require.Empty(t, v.Warnings)

						derived, err := pipeline.New(cls).Run(raw, v)
						require.NoError(t, err)
						require.False(t, derived.IsEmpty())
						writeData(t, outDir, "test_derived_"+preset.ID+".json", derived)

						t.Run("the pipeline is idempotent", func(t *testing.T) {
							again, err := pipeline.New(cls).Run(raw, v)
							require.NoError(t, err)
							assert.Equal(t, derived.Records(), again.Records())
						})

						scenario := organizer.New(organizer.WithName(preset.Title)).Scenarize(derived, v)
						require.NotEmpty(t, scenario.Charts)

						page := chart.New(cfg, scenario).BuildPage()
						require.Len(t, page.Charts, len(scenario.Charts))

						var buf bytes.Buffer
						require.NoError(t, page.Render(&buf))
						assert.Contains(t, buf.String(), preset.Title)

						writeResult(t, outDir, "test_"+preset.ID+".html", &buf)
					})
				}

				t.Run("should export a session", func(t *testing.T) {
					cfg.Export.Dir = outDir
					sess := session.New(cfg, raw, session.WithClassification(cls))
					require.NoError(t, sess.ApplyPreset("stacked-generation"))

					file, err := sess.Export()
					require.NoError(t, err)

					content, err := os.ReadFile(file)
					require.NoError(t, err)

					var buf bytes.Buffer
					require.NoError(t, export.WriteCSV(&buf, sess.Derived()))
					assert.Equal(t, buf.String(), string(content))
				})
			})
		})
	})
}

func writeData(t *testing.T, dir, name string, data any) {
	t.Helper()

	buf, err := json.MarshalIndent(data, "", "  ")
	require.NoError(t, err)

	rdr := bytes.NewReader(buf)
	writeResult(t, dir, name, rdr)
}

func writeResult(t *testing.T, dir, name string, rdr io.Reader) {
	t.Helper()

	file, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer func() {
		_ = file.Close()
	}()

	_, err = io.Copy(file, rdr)
	require.NoError(t, err)
}
