package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbmc/pldm-fwup/pkg/fwup/format_dsp0267"
	"github.com/openbmc/pldm-fwup/pkg/logging"
)

const version = "0.1.0"

var (
	packagePath string
	outputPath  string
	verify      bool
	logLevel    string
	versionFlag bool
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "pldmfw-unpack --package pkg.bin --output metadata.json",
		Short: "Parse PLDM firmware update (DSP0267) packages",
		Long: `Parse a PLDM firmware update (DSP0267) package and write the decoded
manifest as JSON. With --verify the header CRC32 and the component
image offset chain are checked as well.`,
		Run: unpackPackage,
	}

	rootCmd.Flags().StringVarP(&packagePath, "package", "p", "", "Path to the package (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path for the manifest JSON (required)")
	rootCmd.Flags().BoolVar(&verify, "verify", false, "Recompute the header checksum and check image bounds")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	if err := rootCmd.MarkFlagRequired("package"); err != nil {
		panic(err)
	}
	if err := rootCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("pldmfw-unpack %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func unpackPackage(cmd *cobra.Command, args []string) {
	if versionFlag {
		fmt.Printf("pldmfw-unpack %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return
	}

	logger := logging.NewCLILogger("pldmfw-unpack", logLevel)
	if err := format_dsp0267.UnpackFile(logger, packagePath, outputPath, verify); err != nil {
		logger.Error("❌ Failed to unpack package", "error", err)
		os.Exit(1)
	}
}
