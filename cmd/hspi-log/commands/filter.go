package commands

import (
	"fmt"

	"github.com/hspi-sdk/hspi-go/pkg/log"
)

// RunFilter copies the matching events of path into a new capture file
// and returns how many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := opts.Filter()
	if err != nil {
		return 0, err
	}

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	err = eachEvent(path, filter, func(event log.Event) error {
		logger.Log(event)
		return nil
	})
	if cerr := logger.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return logger.Written(), nil
}
