package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Demo(t *testing.T) {
	result, err := RunWithGolden(t, DemoScenario())
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRunWithGolden_MissingAndDuplicates(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/missing_and_duplicates.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestMarshalSnapshot_TrailingNewline(t *testing.T) {
	data, err := MarshalSnapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"scenario\": \"empty\",\n  \"pass\": true,\n  \"trace\": []\n}\n", string(data))
}
