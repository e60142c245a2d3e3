// Package pipeline runs child processes and streams their output to
// caller-supplied consumers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/shared/observability"
	"brokenpkg/internal/shared/util"

	"golang.org/x/sync/errgroup"
)

// StatusInternalError is returned when no real exit status is available.
// Real exit codes are always in [0, 255].
const StatusInternalError = -1

// Discard drains r and drops everything read.
func Discard(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

type Pipeline struct {
	limiter *util.Limiter
	env     []string
}

type Option func(*Pipeline)

// WithSpawnLimit caps how many children may be started per second.
func WithSpawnLimit(perSecond float64, burst int) Option {
	return func(p *Pipeline) {
		if perSecond > 0 {
			p.limiter = util.NewLimiter(perSecond, burst)
		}
	}
}

// WithEnv replaces the environment passed to children.
func WithEnv(env []string) Option {
	return func(p *Pipeline) {
		p.env = append([]string(nil), env...)
	}
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ ports.Runner = (*Pipeline)(nil)

// Run executes argv without a shell. Both output streams are drained
// concurrently and to completion before the child is reaped, so neither
// stream can stall the child. A child exiting with code N yields (N, nil)
// unless a consumer failed; spawn and wait failures, as well as death by
// signal, yield StatusInternalError and a SPAWN_ERROR.
func (p *Pipeline) Run(ctx context.Context, argv []string, stdout, stderr ports.Consumer) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return StatusInternalError, domainerrors.New(domainerrors.CodeSpawn, "empty argument vector")
	}
	if stdout == nil {
		stdout = Discard
	}
	if stderr == nil {
		stderr = Discard
	}
	command := filepath.Base(argv[0])

	if err := p.limiter.Wait(ctx, 1); err != nil {
		return StatusInternalError, spawnError(err, argv[0], "spawn cancelled")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if p.env != nil {
		cmd.Env = p.env
	}
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		observability.ProcessSpawnFailuresTotal.WithLabelValues(command).Inc()
		return StatusInternalError, spawnError(err, argv[0], "stdout pipe")
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		observability.ProcessSpawnFailuresTotal.WithLabelValues(command).Inc()
		return StatusInternalError, spawnError(err, argv[0], "stderr pipe")
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		observability.ProcessSpawnFailuresTotal.WithLabelValues(command).Inc()
		slog.Error("failed to spawn process", "command", argv[0], "error", err)
		return StatusInternalError, spawnError(err, argv[0], "spawn failed")
	}
	observability.ProcessSpawnsTotal.WithLabelValues(command).Inc()

	var g errgroup.Group
	g.Go(func() error { return drain(stderr, errPipe) })
	g.Go(func() error { return drain(stdout, outPipe) })
	consumeErr := g.Wait()

	waitErr := cmd.Wait()
	observability.ProcessDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())

	status, err := exitStatus(ctx, argv[0], waitErr)
	if err != nil {
		observability.ProcessSpawnFailuresTotal.WithLabelValues(command).Inc()
		slog.Error("process did not exit normally", "command", argv[0], "error", err)
		return status, err
	}
	slog.Debug("process exited", "command", argv[0], "status", status, "duration", time.Since(start))
	if consumeErr != nil {
		return status, fmt.Errorf("consume output of %s: %w", command, consumeErr)
	}
	return status, nil
}

// drain runs consume and then discards whatever it left unread.
func drain(consume ports.Consumer, r io.Reader) error {
	err := consume(r)
	if _, copyErr := io.Copy(io.Discard, r); err == nil && copyErr != nil && !errors.Is(copyErr, io.ErrClosedPipe) {
		err = copyErr
	}
	return err
}

func exitStatus(ctx context.Context, name string, waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return StatusInternalError, spawnError(ctxErr, name, "process cancelled")
		}
		return StatusInternalError, spawnError(waitErr, name, "process terminated by signal")
	}
	return StatusInternalError, spawnError(waitErr, name, "wait failed")
}

func spawnError(err error, name, msg string) error {
	return domainerrors.AddContext(domainerrors.Wrap(err, domainerrors.CodeSpawn, msg), domainerrors.CtxCommand, name)
}
