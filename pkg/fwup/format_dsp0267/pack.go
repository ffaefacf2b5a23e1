package format_dsp0267

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// PackFile reads a metadata JSON description, resolves it against the
// image files (one per component entry, in component order), and writes
// the package to outputPath. On error the partially written output is
// removed.
func PackFile(logger hclog.Logger, metadataPath, outputPath string, imagePaths []string) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	metadataBytes, err := os.ReadFile(metadataPath)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	var metadata Metadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}

	if len(imagePaths) != len(metadata.ComponentImageInformationArea) {
		return fmt.Errorf("%w: %d images for %d components",
			fwuperrors.ErrImageCountMismatch,
			len(imagePaths), len(metadata.ComponentImageInformationArea))
	}

	manifest, err := metadata.Manifest(time.Now())
	if err != nil {
		return err
	}

	images := make([]ImageSource, len(imagePaths))
	for i, path := range imagePaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open component image: %w", err)
		}
		defer f.Close()
		stat, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat component image: %w", err)
		}
		images[i] = ImageSource{Size: stat.Size(), Data: f}
		logger.Debug("Component image", "index", i, "path", path, "size", stat.Size())
	}

	logger.Info("📦 Packing firmware update package",
		"metadata", metadataPath,
		"output", outputPath,
		"components", len(images))

	out, err := os.OpenFile(outputPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := WritePackage(out, manifest, images, logger); err != nil {
		out.Close()
		os.Remove(outputPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	logger.Info("✅ Package written", "output", outputPath)
	return nil
}
