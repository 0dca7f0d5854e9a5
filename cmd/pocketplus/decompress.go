package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/pocketplus"
)

func decompressCommand() *cli.Command {
	return &cli.Command{
		Name:      "decompress",
		Usage:     "Reconstruct the packets of a compressed stream",
		ArgsUsage: "<file>",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "output file path (- for stdout)",
			},
		),
		Action: runDecompress,
	}
}

func runDecompress(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	path := cmd.Args().First()

	stream, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified packet streams.
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	params, err := sessionParams(cmd)
	if err != nil {
		return err
	}

	packets, err := pocketplus.Decompress(params, stream)
	if err != nil {
		return fmt.Errorf("decompressing: %w", err)
	}

	out := make([]byte, 0, len(packets)*params.PacketBytes())
	for _, packet := range packets {
		out = append(out, packet...)
	}

	return writeOutput(cmd.String("output"), out)
}
