package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbmc/pldm-fwup/pkg"
	"github.com/openbmc/pldm-fwup/pkg/logging"
)

const version = "0.1.0"

var (
	metadataPath string
	outputPath   string
	logLevel     string
	versionFlag  bool
	rootCmd      *cobra.Command
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
		Use:   "pldmfw-pack --metadata metadata.json [--output pkg.bin] image...",
		Short: "Build PLDM firmware update (DSP0267) packages",
		Long: `Build a PLDM firmware update (DSP0267) package from a metadata JSON
description plus one firmware image file per component entry, in the
same order as the ComponentImageInformationArea section.`,
		Args: cobra.MinimumNArgs(1),
		Run:  packPackage,
	}

	rootCmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Path to metadata JSON file (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "pldm-fwup-pkg.bin", "Output path for the package")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	if err := rootCmd.MarkFlagRequired("metadata"); err != nil {
		panic(err)
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("pldmfw-pack %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func packPackage(cmd *cobra.Command, args []string) {
	if versionFlag {
		fmt.Printf("pldmfw-pack %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return
	}

	logger := logging.NewCLILogger("pldmfw-pack", logLevel)
	if err := pkg.PackPackageWithLogger(metadataPath, outputPath, args, logger); err != nil {
		logger.Error("❌ Failed to build package", "error", err)
		os.Exit(1)
	}
}
