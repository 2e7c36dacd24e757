package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Failure statuses recorded on the api_calls counter. "error" covers non-zero
// exits, "exception" everything unexpected.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusTimeout   = "timeout"
	StatusParse     = "parse_error"
	StatusException = "exception"
)

// Source provides the three read-only cluster queries feeding a collection
// cycle. Each call returns the decoded list or an error; callers decide the
// degrade policy.
type Source interface {
	EgressIPs(ctx context.Context) ([]EgressIP, error)
	CloudPrivateIPConfigs(ctx context.Context) ([]CloudPrivateIPConfig, error)
	EgressNodes(ctx context.Context) ([]string, error)
}

// QueryError carries the failure classification alongside the cause so the
// collector can label its counters without string matching.
type QueryError struct {
	Status string // StatusError | StatusTimeout | StatusParse | StatusException
	Err    error
}

func (e *QueryError) Error() string { return e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// ClassifyStatus returns the QueryError status for err, or StatusException
// when err carries no classification.
func ClassifyStatus(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Status
	}
	return StatusException
}

// ExecSource queries the cluster by running the CLI (`oc get ... -o json`)
// with a per-call timeout. The binary path and node selector come from
// configuration.
type ExecSource struct {
	ocPath       string
	nodeSelector string
	timeout      time.Duration

	// runner executes a prepared command and returns its stdout. Tests
	// substitute a fake; production uses runCommand.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewExecSource builds an ExecSource for the given CLI path, node label
// selector, and per-query timeout.
func NewExecSource(ocPath, nodeSelector string, timeout time.Duration) *ExecSource {
	return &ExecSource{
		ocPath:       ocPath,
		nodeSelector: nodeSelector,
		timeout:      timeout,
		runner:       runCommand,
	}
}

// EgressIPs lists all EgressIP resources.
func (s *ExecSource) EgressIPs(ctx context.Context) ([]EgressIP, error) {
	data, err := s.query(ctx, "get", "eip", "-o", "json")
	if err != nil {
		return nil, err
	}
	out, err := DecodeEgressIPs(data)
	if err != nil {
		return nil, parseError(err, data)
	}
	return out, nil
}

// CloudPrivateIPConfigs lists all CloudPrivateIPConfig resources.
func (s *ExecSource) CloudPrivateIPConfigs(ctx context.Context) ([]CloudPrivateIPConfig, error) {
	data, err := s.query(ctx, "get", "cloudprivateipconfig", "-o", "json")
	if err != nil {
		return nil, err
	}
	out, err := DecodeCPICs(data)
	if err != nil {
		return nil, parseError(err, data)
	}
	return out, nil
}

// EgressNodes lists the names of nodes carrying the egress-assignable label.
func (s *ExecSource) EgressNodes(ctx context.Context) ([]string, error) {
	data, err := s.query(ctx, "get", "nodes", "-l", s.nodeSelector, "-o", "json")
	if err != nil {
		return nil, err
	}
	out, err := DecodeNodes(data)
	if err != nil {
		return nil, parseError(err, data)
	}
	return out, nil
}

// query runs one CLI invocation under the source timeout and classifies
// failures into the QueryError taxonomy.
func (s *ExecSource) query(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.runner(ctx, s.ocPath, args...)
	if err == nil {
		return out, nil
	}

	status := StatusException
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		status = StatusTimeout
		err = fmt.Errorf("%s %v: timed out after %s", s.ocPath, args, s.timeout)
	case errors.As(err, &exitErr):
		status = StatusError
		err = fmt.Errorf("%s %v: exit %d: %s",
			s.ocPath, args, exitErr.ExitCode(), bytes.TrimSpace(exitErr.Stderr))
	default:
		err = fmt.Errorf("%s %v: %w", s.ocPath, args, err)
	}
	return nil, &QueryError{Status: status, Err: err}
}

// parseError wraps a decode failure, logging a prefix of the offending
// payload for diagnosis.
func parseError(err error, payload []byte) error {
	const prefixLen = 200
	prefix := payload
	if len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}
	slog.Error("cluster: malformed payload", "err", err, "payload_prefix", string(prefix))
	return &QueryError{Status: StatusParse, Err: err}
}

// runCommand executes name with args and returns stdout. Stderr is captured
// into the ExitError for classification.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
