package main

import (
	"github.com/OK-LG/berlin-open-data/internal/config"
	"github.com/OK-LG/berlin-open-data/internal/lookup"
	"github.com/OK-LG/berlin-open-data/internal/opendata"
	"github.com/OK-LG/berlin-open-data/internal/resilience"
	"github.com/OK-LG/berlin-open-data/internal/tools"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// toolEnv bundles the WFS client and the registry built on it.
type toolEnv struct {
	Client   *wfs.Client
	Registry *tools.Registry
}

// newToolEnv wires the WFS client, domain service, orchestrator and tool
// registry from configuration.
func newToolEnv(c *config.Config) *toolEnv {
	client := wfs.NewClient(
		wfs.WithTimeout(c.WFS.Timeout()),
		wfs.WithRetryDelay(c.WFS.RetryDelay()),
		wfs.WithMaxRetries(c.WFS.MaxRetries),
		wfs.WithRateLimit(c.WFS.RateLimit),
		wfs.WithCircuitBreaker(resilience.FromCircuitConfig(c.WFS.CircuitFailureThreshold, c.WFS.CircuitResetSecs)),
		wfs.WithUserAgent(c.WFS.UserAgent),
	)
	svc := opendata.NewService(client, wfs.NewCatalog(c.WFS.BaseURL, c.WFS.LandValueYear))
	return &toolEnv{
		Client:   client,
		Registry: tools.NewRegistry(svc, lookup.New(svc)),
	}
}
