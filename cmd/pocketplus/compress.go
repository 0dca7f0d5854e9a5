package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/pocketplus"
	"github.com/mycophonic/pocketplus/profile"
)

var (
	errInvalidArgCount = errors.New("expected exactly one argument: file path")
	errPacketAlignment = errors.New("capture size is not a multiple of the packet size")
)

func compressCommand() *cli.Command {
	return &cli.Command{
		Name:      "compress",
		Usage:     "Compress a capture of fixed-size packets",
		ArgsUsage: "<file>",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "output file path (- for stdout)",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print session statistics to stderr",
			},
		),
		Action: runCompress,
	}
}

func runCompress(_ context.Context, cmd *cli.Command) error {
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

	if cmd.Bool("stats") {
		_, _ = fmt.Fprintf(os.Stderr, "packets:    %d\n", len(packets))
		_, _ = fmt.Fprintf(os.Stderr, "raw:        %d bytes\n", len(data))
		_, _ = fmt.Fprintf(os.Stderr, "compressed: %d bytes\n", len(stream))
		_, _ = fmt.Fprintf(os.Stderr, "ratio:      %.3f\n", ratioOf(len(stream), len(data)))
	}

	return writeOutput(cmd.String("output"), stream)
}

// sessionFlags declares the parameters shared by every subcommand. Both
// ends of a link must use identical values.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "YAML session profile (flags below override it)",
		},
		&cli.IntFlag{
			Name:    "packet-bits",
			Aliases: []string{"F"},
			Usage:   "fixed packet size in bits",
		},
		&cli.IntFlag{
			Name:    "robustness",
			Aliases: []string{"r"},
			Usage:   "lost packets the stream must tolerate (0-7)",
		},
		&cli.IntFlag{
			Name:  "new-mask-every",
			Usage: "restart mask learning every N packets (0 disables)",
		},
		&cli.IntFlag{
			Name:  "send-mask-every",
			Usage: "retransmit the full mask every N packets (0 disables)",
		},
		&cli.IntFlag{
			Name:  "uncompressed-every",
			Usage: "send a verbatim packet every N packets (0 disables)",
		},
		&cli.StringFlag{
			Name:  "initial-mask",
			Usage: "preload the change mask (hex)",
		},
	}
}

// sessionParams resolves the session parameters from the profile file, if
// any, with explicitly set flags taking precedence.
func sessionParams(cmd *cli.Command) (pocketplus.Params, error) {
	prof := &profile.Profile{}

	if path := cmd.String("profile"); path != "" {
		loaded, err := profile.Load(path)
		if err != nil {
			return pocketplus.Params{}, fmt.Errorf("loading profile: %w", err)
		}

		prof = loaded
	}

	if cmd.IsSet("packet-bits") {
		prof.PacketBits = cmd.Int("packet-bits")
	}

	if cmd.IsSet("robustness") {
		prof.Robustness = cmd.Int("robustness")
	}

	if cmd.IsSet("new-mask-every") {
		prof.NewMaskEvery = cmd.Int("new-mask-every")
	}

	if cmd.IsSet("send-mask-every") {
		prof.SendMaskEvery = cmd.Int("send-mask-every")
	}

	if cmd.IsSet("uncompressed-every") {
		prof.UncompressedEvery = cmd.Int("uncompressed-every")
	}

	if cmd.IsSet("initial-mask") {
		prof.InitialMask = cmd.String("initial-mask")
	}

	return prof.Params()
}

func splitPackets(data []byte, packetBytes int) ([][]byte, error) {
	if len(data)%packetBytes != 0 {
		return nil, fmt.Errorf("%w: %d bytes with %d-byte packets", errPacketAlignment, len(data), packetBytes)
	}

	packets := make([][]byte, 0, len(data)/packetBytes)
	for i := 0; i < len(data); i += packetBytes {
		packets = append(packets, data[i:i+packetBytes])
	}

	return packets, nil
}

func writeOutput(output string, data []byte) error {
	if output == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}

		return nil
	}

	file, err := os.Create(output) //nolint:gosec // CLI tool creates user-specified output files.
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	if _, err = file.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}
