package pkg

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/openbmc/pldm-fwup/pkg/fwup/format_dsp0267"
	"github.com/openbmc/pldm-fwup/pkg/logging"
)

// VerifyPackageWithLogger walks every integrity check over a package:
// the parse itself, the recorded header checksum, and the component
// image offset chain. All failures are reported, not just the first.
func VerifyPackageWithLogger(packagePath string, logger hclog.Logger) error {
	reader, err := format_dsp0267.NewReaderWithLogger(packagePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Debug("Failed to close reader", "error", err)
		}
	}()

	logger.Info("Verifying package integrity", "package", packagePath)

	var failures []error

	manifest, err := reader.ReadManifest()
	if err != nil {
		logger.Error("Package parse failed", "error", err)
		return err
	}
	logger.Info("✓ Package parses",
		"devices", len(manifest.FirmwareDeviceIdentificationArea),
		"components", len(manifest.ComponentImageInformationArea))

	if err := reader.VerifyChecksum(); err != nil {
		failures = append(failures, err)
		logger.Error("Header checksum verification failed", "error", err)
	} else {
		logger.Info("✓ Header checksum valid",
			"crc32", fmt.Sprintf("0x%08x", manifest.PackageHeaderChecksum))
	}

	if err := reader.VerifyImageBounds(); err != nil {
		failures = append(failures, err)
		logger.Error("Component image verification failed", "error", err)
	} else {
		logger.Info("✓ Component images in bounds")
	}

	if len(failures) == 0 {
		logger.Info("✓ Package verification passed")
		return nil
	}
	logger.Error("✗ Package verification failed", "error_count", len(failures))
	return errors.Join(failures...)
}

// VerifyPackage verifies a package using default logger settings.
func VerifyPackage(packagePath string) error {
	logger := logging.NewLogger("pldmfw-verify", logging.GetLogLevel(), nil)
	return VerifyPackageWithLogger(packagePath, logger)
}
