package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends every registered metric to a Pushgateway under the given job.
func Push(uri, job string) error {
	err := push.New(uri, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		return fmt.Errorf("could not push metrics, %w", err)
	}
	return nil
}

// WriteTextfile writes every registered metric in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("could not write metrics textfile, %w", err)
	}
	return nil
}
