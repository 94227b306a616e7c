package fadc

import (
	"path/filepath"
	"strings"
)

const (
	AcquisitionExt   = ".h5"
	productionSuffix = ".prod"
)

// AcquisitionFilename appends AcquisitionExt to an output base name.
func AcquisitionFilename(base string) string {
	if strings.HasSuffix(base, AcquisitionExt) {
		return base
	}
	return base + AcquisitionExt
}

// ProductionFilename names the production output of an acquisition file:
// ".prod" is inserted before the extension unless already present.
func ProductionFilename(input string) string {
	ext := filepath.Ext(input)
	if ext == productionSuffix {
		return input
	}
	stem := strings.TrimSuffix(input, ext)
	if strings.HasSuffix(stem, productionSuffix) {
		return input
	}
	return stem + productionSuffix + ext
}
