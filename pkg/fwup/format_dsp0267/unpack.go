package format_dsp0267

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// UnpackFile parses a package and writes its manifest to outputPath as
// JSON. With verify set, the header checksum and the component offset
// chain are checked first.
func UnpackFile(logger hclog.Logger, packagePath, outputPath string, verify bool) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	reader, err := NewReaderWithLogger(packagePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Debug("Failed to close reader", "error", err)
		}
	}()

	logger.Info("📂 Unpacking firmware update package", "package", packagePath)

	manifest, err := reader.ReadManifest()
	if err != nil {
		return err
	}

	if verify {
		if err := reader.VerifyChecksum(); err != nil {
			return err
		}
		if err := reader.VerifyImageBounds(); err != nil {
			return err
		}
		logger.Info("✓ Package integrity verified",
			"crc32", fmt.Sprintf("0x%08x", manifest.PackageHeaderChecksum))
	}

	encoded, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, append(encoded, '\n'), 0644); err != nil {
		os.Remove(outputPath)
		return err
	}

	logger.Info("✅ Manifest written",
		"output", outputPath,
		"devices", len(manifest.FirmwareDeviceIdentificationArea),
		"components", len(manifest.ComponentImageInformationArea))
	return nil
}
