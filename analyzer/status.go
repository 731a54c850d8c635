package analyzer

import (
	"errors"

	"github.com/netsampler/flowtop/artifact"
	"github.com/netsampler/flowtop/source"
)

// Status is the outcome of an analysis. Zero means the artifact was written.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidInputPath
	StatusSourceParseError
	StatusDiscoveryError
	StatusNoInputFiles
	StatusAggregationError
	StatusOutputWriteError
)

var statusNames = map[Status]string{
	StatusOK:               "OK",
	StatusInvalidInputPath: "InvalidInputPath",
	StatusSourceParseError: "SourceParseError",
	StatusDiscoveryError:   "DiscoveryError",
	StatusNoInputFiles:     "NoInputFiles",
	StatusAggregationError: "AggregationError",
	StatusOutputWriteError: "OutputWriteError",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// StatusOf maps an error returned by the pipeline to its status.
// Unrecognized errors are reported as aggregation failures.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, source.ErrInvalidRoot):
		return StatusInvalidInputPath
	case errors.Is(err, source.ErrParse):
		return StatusSourceParseError
	case errors.Is(err, source.ErrDiscovery):
		return StatusDiscoveryError
	case errors.Is(err, source.ErrNoInputFiles):
		return StatusNoInputFiles
	case errors.Is(err, artifact.ErrWrite):
		return StatusOutputWriteError
	default:
		return StatusAggregationError
	}
}
