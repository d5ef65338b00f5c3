package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// textfileExporter collects OTel instruments into a private Prometheus
// registry that is dumped to a node_exporter textfile.
type textfileExporter struct {
	path     string
	registry *prometheus.Registry
	reader   sdkmetric.Reader
}

func newTextfileExporter(path string) (*textfileExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &textfileExporter{path: path, registry: registry, reader: exporter}, nil
}

// write gathers the registry into the textfile, creating its directory.
func (e *textfileExporter) write() error {
	err := os.MkdirAll(filepath.Dir(e.path), 0o750)
	if err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}

	err = prometheus.WriteToTextfile(e.path, e.registry)
	if err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
