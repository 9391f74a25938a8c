package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sjsage522/partsworker/config"
	"sjsage522/partsworker/internal/crawler"
	"sjsage522/partsworker/services/cache"
	"sjsage522/partsworker/services/worker"
)

func TestInitializeServicesWithoutBackends(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.MemcacheAddr = ""
	cfg.RedisAddr = ""

	services, err := initializeServices(context.Background(), cfg, filepath.Join(t.TempDir(), "parts.db"))
	require.NoError(t, err)
	defer services.Cleanup()

	assert.IsType(t, &cache.MemoryCache{}, services.Cache)
	assert.Nil(t, services.Publisher)
	require.NotNil(t, services.Store)

	sinks := services.sinks(&worker.JSONSink{Dir: "."})
	require.Len(t, sinks, 2)
	assert.Equal(t, "sqlite", sinks[0].Name())
	assert.Equal(t, "json", sinks[1].Name())

	scraper, err := services.ScraperFactory(cfg)()
	require.NoError(t, err)
	scraper.Close()
}

func TestInitializeServicesRedisUnavailable(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := initializeServices(context.Background(), cfg, "")
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	result := &worker.Result{
		Search:     worker.Search{Plate: "27XHVX", Part: "koplamp"},
		Vehicle:    crawler.VehicleRef{Plate: "27XHVX", ModelType: "12345", Description: "Peugeot 206 1.4"},
		Records:    []crawler.PartRecord{{Title: "Koplamp"}, {Title: "Koplamp unit", Category: "Koplampen"}},
		Truncation: "page 2: [network] onderdelenlijn: server error 503",
		Stats:      crawler.Stats{Pages: 1},
	}

	var out bytes.Buffer
	printSummary(&out, result, "out.json", "")

	assert.Contains(t, out.String(), "Peugeot 206 1.4 (27XHVX, modeltype 12345)")
	assert.Contains(t, out.String(), "Records:   2 over 1 page(s)")
	assert.Contains(t, out.String(), "Complete:  no (page 2")
	assert.Contains(t, out.String(), "JSON:      out.json")
	assert.NotContains(t, out.String(), "Database:")
}

func TestScrapeRejectsUnknownOutput(t *testing.T) {
	rootCmd.SetArgs([]string{"scrape", "--plate", "27XHVX", "--part", "koplamp", "--output", "csv"})
	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "invalid --output")
}
