package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/backend"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
)

func TestNewServices(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		svc, err := app.NewServices(&config.Config{}, backend.Repositories{}, app.Options{})
		require.NoError(t, err)

		assert.NotNil(t, svc.Vehicles)
		assert.NotNil(t, svc.Export)
		assert.Equal(t, []importer.Format{importer.FormatCGD, importer.FormatFleet}, svc.Importer.Formats())
	})

	t.Run("Rules File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: fuel\n    keywords: [adblue]\n"), 0o600))

		cfg := &config.Config{}
		cfg.Finance.RulesFile = path

		_, err := app.NewServices(cfg, backend.Repositories{}, app.Options{})
		require.NoError(t, err)
	})

	t.Run("Bad Rules File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: snacks\n"), 0o600))

		cfg := &config.Config{}
		cfg.Finance.RulesFile = path

		_, err := app.NewServices(cfg, backend.Repositories{}, app.Options{})
		assert.ErrorContains(t, err, "loading category rules")
	})
}
