package files

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"emissions-stats/domain/emissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := write(&buf, []emissions.FileInfo{
		{ID: 2, Name: "q2.xlsx", UploadDate: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)},
		{ID: 1, Name: "q1.csv", UploadDate: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "UPLOADED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2", "q2.xlsx", "2024-06-01T09:30:00Z"}, strings.Fields(lines[1]))
}
