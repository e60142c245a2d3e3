package pacman

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/core/stream"
)

// DefaultBinary is the package manager executable looked up on PATH.
const DefaultBinary = "pacman"

// Client drives the pacman command line tool.
type Client struct {
	Binary    string
	Runner    ports.Runner
	ChunkSize int
}

func NewClient(binary string, runner ports.Runner, chunkSize int) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Client{Binary: binary, Runner: runner, ChunkSize: chunkSize}
}

// StreamOptions returns the tokenizer options matching ChunkSize.
func (c *Client) StreamOptions() []stream.Option {
	if c.ChunkSize > 0 {
		return []stream.Option{stream.WithChunkSize(c.ChunkSize)}
	}
	return nil
}

// ConfigPaths asks pacman for its default root and database directory.
func (c *Client) ConfigPaths(ctx context.Context) (PathPair, error) {
	var (
		paths      PathPair
		extractErr error
	)
	argv := []string{c.Binary, "--verbose"}
	status, err := c.Runner.Run(ctx, argv, func(r io.Reader) error {
		paths, extractErr = ExtractConfigPaths(r, c.StreamOptions()...)
		return nil
	}, nil)
	if err != nil {
		return paths, domainerrors.Wrap(err, domainerrors.CodeStartupConfig, "run pacman --verbose")
	}
	if extractErr != nil {
		return paths, extractErr
	}
	// pacman --verbose without an operation exits non-zero after printing
	// the configuration, so only the parsed values matter here.
	slog.Debug("pacman configuration", "status", status, "root", paths.Root.String(), "dbpath", paths.DBPath.String())
	return paths, nil
}

// ForeignPackages lists packages not found in any sync database.
func (c *Client) ForeignPackages(ctx context.Context, paths *PathPair) ([]string, error) {
	var (
		names      []string
		collectErr error
		stderr     bytes.Buffer
	)
	argv := []string{
		c.Binary,
		"--root", paths.Root.String(),
		"--dbpath", paths.DBPath.String(),
		"--query",
		"--foreign",
		"--quiet",
	}
	status, err := c.Runner.Run(ctx, argv, func(r io.Reader) error {
		names, collectErr = CollectPackageNames(r, c.StreamOptions()...)
		return collectErr
	}, func(r io.Reader) error {
		_, err := io.Copy(&stderr, io.LimitReader(r, 4096))
		return err
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeQuery, "query foreign packages")
	}
	// pacman exits 1 without a diagnostic when the query matched nothing.
	if status == 1 && len(names) == 0 && strings.TrimSpace(stderr.String()) == "" {
		return nil, nil
	}
	if status != 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", status)
		}
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeQuery, "query foreign packages: "+msg),
			domainerrors.CtxStatus, status)
	}
	return names, nil
}
