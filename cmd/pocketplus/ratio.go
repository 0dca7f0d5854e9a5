package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/pocketplus"
	"github.com/mycophonic/pocketplus/baseline"
	"github.com/mycophonic/pocketplus/version"
)

func ratioCommand() *cli.Command {
	return &cli.Command{
		Name:      "ratio",
		Usage:     "Size a capture against general-purpose compressors",
		ArgsUsage: "<file>",
		Flags:     sessionFlags(),
		Action:    runRatio,
	}
}

func runRatio(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	path := cmd.Args().First()

	data, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified packet captures.
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	params, err := sessionParams(cmd)
	if err != nil {
		return err
	}

	packets, err := splitPackets(data, params.PacketBytes())
	if err != nil {
		return err
	}

	stream, err := pocketplus.Compress(params, packets)
	if err != nil {
		return fmt.Errorf("compressing: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "%-12s %10s %8s\n", "codec", "bytes", "ratio")
	_, _ = fmt.Fprintf(os.Stdout, "%-12s %10d %8.3f\n", "raw", len(data), 1.0)
	_, _ = fmt.Fprintf(os.Stdout, "%-12s %10d %8.3f\n", version.Name(), len(stream), ratioOf(len(stream), len(data)))

	// The baselines see the whole capture as one buffer, the most
	// favorable framing for them.
	for _, name := range baseline.Names() {
		codec, err := baseline.ByName(name)
		if err != nil {
			return err
		}

		compressed := codec.Compress(data)
		_, _ = fmt.Fprintf(os.Stdout, "%-12s %10d %8.3f\n", name, len(compressed), ratioOf(len(compressed), len(data)))
	}

	return nil
}

func ratioOf(compressed, raw int) float64 {
	if raw == 0 {
		return 0
	}

	return float64(compressed) / float64(raw)
}
