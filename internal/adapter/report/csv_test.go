package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
)

func testRecord(id string) domain.AssessmentRecord {
	delta := -0.25
	return domain.AssessmentRecord{
		ID:            id,
		EventType:     "drought",
		Lat:           26.2,
		Lon:           91.7,
		RadiusKm:      1,
		BaselineStart: "2023-06-01",
		BaselineEnd:   "2023-06-20",
		EventStart:    "2023-07-05",
		EventEnd:      "2023-07-25",
		NDVIDelta:     &delta,
		Label:         "Drought stress detected",
		Confidence:    domain.ConfidenceHigh,
		Explanation:   "NDVI changed by -0.250, at or below the -0.200 threshold.",
		GeneratedAt:   time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessments.csv")
	log := NewCSVLog(path)
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, testRecord("drought-1111111111111111")))
	require.NoError(t, log.Record(ctx, testRecord("drought-2222222222222222")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "one header plus two rows")
	assert.Contains(t, lines[0], "ndvi_delta")
	assert.Equal(t, 1, strings.Count(string(data), "ndvi_delta"), "header must not repeat on append")
	assert.Contains(t, lines[1], "drought-1111111111111111")
	assert.Contains(t, lines[2], "drought-2222222222222222")
	assert.Contains(t, lines[1], "Drought stress detected")
}

func TestCSVLogName(t *testing.T) {
	assert.Equal(t, "csv", NewCSVLog("x.csv").Name())
}
