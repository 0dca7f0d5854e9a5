package main_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/mycophonic/agar/pkg/agar"
)

func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed

	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// binaryPath returns the absolute path to the pocketplus binary.
func binaryPath() string {
	return filepath.Join(projectRoot(), "bin", "pocketplus")
}

// setup creates a test case configured to run the pocketplus binary,
// skipping when it has not been built.
func setup(t *testing.T) *test.Case {
	t.Helper()

	if _, err := os.Stat(binaryPath()); err != nil {
		t.Skip("pocketplus binary not built")
	}

	return agar.Setup(binaryPath())
}

// telemetryCapture builds packets shaped like housekeeping telemetry: a
// counter, a toggling status byte, constant filler.
func telemetryCapture(packetBytes, packets int) []byte {
	data := make([]byte, 0, packetBytes*packets)

	for i := range packets {
		packet := make([]byte, packetBytes)
		packet[0] = byte(i >> 8)
		packet[1] = byte(i)

		if i%3 == 0 {
			packet[4] = 0xFF
		}

		for j := 5; j < packetBytes; j++ {
			packet[j] = 0x5A
		}

		data = append(data, packet...)
	}

	return data
}

func writeTempFile(data test.Data, helpers test.Helpers, name string, content []byte) string {
	path := data.Temp().Path(name)

	if err := os.WriteFile(path, content, 0o600); err != nil {
		helpers.T().Log("writing " + name + ": " + err.Error())
		helpers.T().Fail()
	}

	return path
}

// compareFiles returns a comparator that reads two files from the test's
// temp directory and requires them to match byte-for-byte.
func compareFiles(data test.Data, wantName, gotName string) test.Comparator {
	return func(_ string, t tig.T) {
		t.Helper()

		want, err := os.ReadFile(data.Temp().Path(wantName))
		if err != nil {
			t.Log("reading " + wantName + ": " + err.Error())
			t.Fail()

			return
		}

		got, err := os.ReadFile(data.Temp().Path(gotName))
		if err != nil {
			t.Log("reading " + gotName + ": " + err.Error())
			t.Fail()

			return
		}

		if !bytes.Equal(want, got) {
			t.Log(fmt.Sprintf("%s and %s differ: %d bytes vs %d bytes", wantName, gotName, len(want), len(got)))
			t.Fail()
		}
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	t.Parallel()

	testCase := setup(t)
	testCase.Description = "compress round trip"
	testCase.SubTests = []*test.Case{
		{
			Description: "compress then decompress reproduces the capture",
			Setup: func(data test.Data, helpers test.Helpers) {
				capture := writeTempFile(data, helpers, "capture.raw", telemetryCapture(8, 48))

				helpers.Command("compress",
					"--packet-bits", "64",
					"--robustness", "1",
					"-o", data.Temp().Path("stream.pkt"),
					capture,
				).Run(&test.Expected{ExitCode: expect.ExitCodeSuccess})
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("decompress",
					"--packet-bits", "64",
					"--robustness", "1",
					"-o", data.Temp().Path("restored.raw"),
					data.Temp().Path("stream.pkt"),
				)
			},
			Expected: func(data test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   compareFiles(data, "capture.raw", "restored.raw"),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestCompressWithProfile(t *testing.T) {
	t.Parallel()

	const sessionProfile = "packet_bits: 64\nrobustness: 2\nsend_mask_every: 16\n"

	testCase := setup(t)
	testCase.Description = "profile driven session"
	testCase.SubTests = []*test.Case{
		{
			Description: "both ends share a YAML profile",
			Setup: func(data test.Data, helpers test.Helpers) {
				capture := writeTempFile(data, helpers, "capture.raw", telemetryCapture(8, 32))
				prof := writeTempFile(data, helpers, "session.yaml", []byte(sessionProfile))

				helpers.Command("compress",
					"--profile", prof,
					"-o", data.Temp().Path("stream.pkt"),
					capture,
				).Run(&test.Expected{ExitCode: expect.ExitCodeSuccess})
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("decompress",
					"--profile", data.Temp().Path("session.yaml"),
					"-o", data.Temp().Path("restored.raw"),
					data.Temp().Path("stream.pkt"),
				)
			},
			Expected: func(data test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   compareFiles(data, "capture.raw", "restored.raw"),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestRatioListsCodecs(t *testing.T) {
	t.Parallel()

	testCase := setup(t)
	testCase.Description = "ratio report"
	testCase.SubTests = []*test.Case{
		{
			Description: "sizes the capture against every baseline",
			Setup: func(data test.Data, helpers test.Helpers) {
				writeTempFile(data, helpers, "capture.raw", telemetryCapture(8, 64))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("ratio", "--packet-bits", "64", data.Temp().Path("capture.raw"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expect.Contains("pocketplus"),
						expect.Contains("zstd"),
						expect.Contains("s2"),
						expect.Contains("snappy"),
					),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestRejectedInputs(t *testing.T) {
	t.Parallel()

	testCase := setup(t)
	testCase.Description = "invalid invocations fail"
	testCase.SubTests = []*test.Case{
		{
			Description: "compress without a capture path",
			Command: func(_ test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("compress", "--packet-bits", "64")
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{ExitCode: expect.ExitCodeGenericFail}
			},
		},
		{
			Description: "capture does not split evenly into packets",
			Setup: func(data test.Data, helpers test.Helpers) {
				writeTempFile(data, helpers, "capture.raw", make([]byte, 11))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("compress", "--packet-bits", "64", data.Temp().Path("capture.raw"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{ExitCode: expect.ExitCodeGenericFail}
			},
		},
		{
			Description: "garbage stream",
			Setup: func(data test.Data, helpers test.Helpers) {
				writeTempFile(data, helpers, "stream.pkt", bytes.Repeat([]byte{0xFF}, 16))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("decompress", "--packet-bits", "64", data.Temp().Path("stream.pkt"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{ExitCode: expect.ExitCodeGenericFail}
			},
		},
	}

	testCase.Run(t)
}

func TestVersionFlag(t *testing.T) {
	t.Parallel()

	testCase := setup(t)
	testCase.Description = "version flag"
	testCase.SubTests = []*test.Case{
		{
			Description: "reports the binary name",
			Command: func(_ test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("--version")
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expect.Contains("pocketplus"),
				}
			},
		},
	}

	testCase.Run(t)
}
