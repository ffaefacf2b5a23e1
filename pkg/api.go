package pkg

import (
	"github.com/hashicorp/go-hclog"

	"github.com/openbmc/pldm-fwup/pkg/fwup/format_dsp0267"
)

// PackPackage builds a firmware update package from a metadata JSON
// description and one image file per component entry.
func PackPackage(metadataPath, outputPath string, imagePaths []string) error {
	return PackPackageWithLogger(metadataPath, outputPath, imagePaths, hclog.NewNullLogger())
}

// PackPackageWithLogger is PackPackage with a custom logger.
func PackPackageWithLogger(metadataPath, outputPath string, imagePaths []string, logger hclog.Logger) error {
	return format_dsp0267.PackFile(logger, metadataPath, outputPath, imagePaths)
}

// UnpackPackage parses a package and writes its manifest as JSON.
func UnpackPackage(packagePath, outputPath string) error {
	return UnpackPackageWithLogger(packagePath, outputPath, hclog.NewNullLogger())
}

// UnpackPackageWithLogger is UnpackPackage with a custom logger.
func UnpackPackageWithLogger(packagePath, outputPath string, logger hclog.Logger) error {
	return format_dsp0267.UnpackFile(logger, packagePath, outputPath, false)
}
