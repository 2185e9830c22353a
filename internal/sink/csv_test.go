/*
DESCRIPTION
  csv_test.go checks CSVSink's header row, field ordering and flush-on-close
  behaviour.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ausocean/miniscope/internal/config"
	"github.com/ausocean/miniscope/internal/header"
)

func testHeaderFormat() config.HeaderFormat {
	return config.HeaderFormat{
		{Name: config.FieldFrameNum, BitStart: 0, BitLength: 16},
		{Name: config.FieldBufferCount, BitStart: 16, BitLength: 8},
		{Name: config.FieldFrameBufferCount, BitStart: 24, BitLength: 8},
		{Name: "battery_mv", BitStart: 32, BitLength: 16},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSinkWritesHeaderRowAndFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path, testHeaderFormat(), 100)
	require.NoError(t, err)

	h := header.Header{
		FrameNum:         3,
		BufferCount:      1,
		FrameBufferCount: 0,
		Extra:            map[string]uint64{"battery_mv": 4100},
	}
	require.NoError(t, s.Append(h))
	require.NoError(t, s.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"frame_num", "buffer_count", "frame_buffer_count", "battery_mv"}, rows[0])
	require.Equal(t, []string{"3", "1", "0", "4100"}, rows[1])
}

func TestCSVSinkFlushesAtConfiguredDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := NewCSVSink(path, testHeaderFormat(), 2)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(header.Header{Extra: map[string]uint64{"battery_mv": uint64(i)}}))
	}

	rows := readCSV(t, path)
	require.Len(t, rows, 3, "first two data rows should have been flushed already")
}
