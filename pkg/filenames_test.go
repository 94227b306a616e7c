package fadc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquisitionFilename(t *testing.T) {
	assert.Equal(t, "run_001.h5", AcquisitionFilename("run_001"))
	assert.Equal(t, "run_001.h5", AcquisitionFilename("run_001.h5"))
	assert.Equal(t, "data/run.v2.h5", AcquisitionFilename("data/run.v2"))
}

func TestProductionFilename(t *testing.T) {
	tests := map[string]string{
		"run.h5":           "run.prod.h5",
		"data/run_001.h5":  "data/run_001.prod.h5",
		"run.prod.h5":      "run.prod.h5",
		"run.prod":         "run.prod",
		"run":              "run.prod",
		"data.v2/run_7.h5": "data.v2/run_7.prod.h5",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ProductionFilename(input), input)
	}
}
