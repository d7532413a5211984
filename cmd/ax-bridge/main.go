// Package main implements ax-bridge, the AX Transport wire-protocol binary
// described in spec.md §6: it reads a JSON array of operations from stdin,
// applies them through the Accessibility API, and writes a JSON array of
// resulting frames for any operation marked "save" or "read_only" to
// stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codexwm/codex/internal/ax"
	"github.com/codexwm/codex/internal/axproto"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var debug bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "ax-bridge",
		Short: "Apply window move/resize/read operations via the Accessibility API",
		Long: `ax-bridge reads a JSON array of operations from stdin, one per window:

  {"wid": 123, "pid": 456, "x": 0, "y": 0, "w": 800, "h": 600, "save": true}

A zero width and height moves the window without resizing it. Operations
with "save" or "read_only" set have their resulting frame written back as
a JSON array on stdout, in input order.`,
		Version:      fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), os.Stdin, os.Stdout, os.Stderr)
		},
	}
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := log.New(stderr)
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	var ops []axproto.Op
	if err := json.Unmarshal(raw, &ops); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	if !ax.IsTrusted() {
		logger.Warn("process is not accessibility-trusted; writes will be skipped per window")
	}

	transport := ax.New(ax.NewDarwinBackend(), logger)

	var moves []tiling.MoveOp
	var queries []tiling.FrameQuery
	report := make([]bool, len(ops))

	for i, op := range ops {
		wid := state.WinID(op.WinID)
		pid := state.PID(op.PID)
		if op.ReadOnly {
			queries = append(queries, tiling.FrameQuery{WinID: wid, PID: pid})
			report[i] = true
			continue
		}
		moves = append(moves, tiling.MoveOp{
			WinID:        wid,
			PID:          pid,
			Frame:        geom.Frame{X: op.X, Y: op.Y, W: op.W, H: op.H},
			PositionOnly: op.PositionOnly(),
		})
		if op.Save {
			queries = append(queries, tiling.FrameQuery{WinID: wid, PID: pid})
			report[i] = true
		}
	}

	if len(moves) > 0 {
		if err := transport.MoveWindows(moves); err != nil {
			logger.Warn("move batch reported an error", "err", err)
		}
	}

	var frames map[state.WinID]geom.Frame
	if len(queries) > 0 {
		frames, err = transport.ReadFrames(queries)
		if err != nil {
			logger.Warn("read batch reported an error", "err", err)
		}
	}

	out := make([]axproto.Frame, 0, len(queries))
	for i, op := range ops {
		if !report[i] {
			continue
		}
		f, ok := frames[state.WinID(op.WinID)]
		if !ok {
			continue
		}
		out = append(out, axproto.Frame{WinID: op.WinID, X: f.X, Y: f.Y, W: f.W, H: f.H})
	}

	enc := json.NewEncoder(stdout)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
