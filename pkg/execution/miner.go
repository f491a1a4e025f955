/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: miner.go
Description: Runner for the external frequent-itemset miner. The configured command
receives the training data path, the target attribute and the mining thresholds as
flags, runs under a context deadline and must write the seed rules in arules CSV
form. A non-zero exit is surfaced with the command line, exit code and stderr.
*/

package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrMinerFailed is the sentinel behind every MinerError
var ErrMinerFailed = errors.New("frequent itemset miner failed")

// maxStderr caps the stderr kept in a MinerError
const maxStderr = 4096

// MinerError describes a failed miner run
type MinerError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *MinerError) Error() string {
	msg := fmt.Sprintf("%v: %s exited with code %d", ErrMinerFailed, e.Command, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap exposes ErrMinerFailed and the underlying cause
func (e *MinerError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMinerFailed}
	}
	return []error{ErrMinerFailed, e.Err}
}

// MinerOptions configures the command
type MinerOptions struct {
	Command string
	Args    []string // leading arguments, typically the script path
	Timeout time.Duration
}

// MineRequest holds the per-run inputs passed as flags
type MineRequest struct {
	DataPath      string
	Target        string
	Output        string
	MinSupport    float64
	MinConfidence float64
	MaxLength     int
}

// MineResult reports a successful run
type MineResult struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
	Stdout   string        `json:"stdout,omitempty"`
}

// Miner runs the external miner
type Miner struct {
	options MinerOptions
	logger  *logrus.Logger
}

// NewMiner creates a runner for the configured command
func NewMiner(options MinerOptions, logger *logrus.Logger) (*Miner, error) {
	if strings.TrimSpace(options.Command) == "" {
		return nil, fmt.Errorf("miner command is empty")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Miner{options: options, logger: logger}, nil
}

// Args returns the full argument list for a request
func (m *Miner) Args(req MineRequest) []string {
	args := append([]string(nil), m.options.Args...)
	args = append(args,
		"--data="+req.DataPath,
		"--target="+req.Target,
		"--output="+req.Output,
		"--support="+strconv.FormatFloat(req.MinSupport, 'g', -1, 64),
		"--confidence="+strconv.FormatFloat(req.MinConfidence, 'g', -1, 64),
	)
	if req.MaxLength > 0 {
		args = append(args, "--maxlen="+strconv.Itoa(req.MaxLength))
	}
	return args
}

// Run executes the miner and waits for it to finish or for the deadline
func (m *Miner) Run(ctx context.Context, req MineRequest) (*MineResult, error) {
	if req.DataPath == "" || req.Target == "" || req.Output == "" {
		return nil, fmt.Errorf("miner request needs data path, target and output")
	}
	if m.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.options.Timeout)
		defer cancel()
	}

	args := m.Args(req)
	commandLine := strings.Join(append([]string{m.options.Command}, args...), " ")
	cmd := exec.CommandContext(ctx, m.options.Command, args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	m.logger.WithFields(logrus.Fields{
		"command": commandLine,
		"timeout": m.options.Timeout,
	}).Info("Starting frequent itemset miner")

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		minerErr := &MinerError{
			Command:  commandLine,
			ExitCode: -1,
			Stderr:   tail(stderr.String(), maxStderr),
		}
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			minerErr.Err = ctx.Err()
		case errors.As(err, &exitErr):
			minerErr.ExitCode = exitErr.ExitCode()
		default:
			minerErr.Err = err
		}
		m.logger.WithFields(logrus.Fields{
			"command":   commandLine,
			"exit_code": minerErr.ExitCode,
			"duration":  duration,
		}).Error("Frequent itemset miner failed")
		return nil, minerErr
	}

	m.logger.WithFields(logrus.Fields{
		"output":   req.Output,
		"duration": duration,
	}).Info("Frequent itemset miner finished")
	return &MineResult{
		Command:  commandLine,
		Output:   req.Output,
		Duration: duration,
		Stdout:   stdout.String(),
	}, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
