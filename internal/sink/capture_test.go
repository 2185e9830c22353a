/*
DESCRIPTION
  capture_test.go checks that CaptureSink appends chunks verbatim and in
  append mode across re-opens.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureSinkAppendsChunksVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")
	s, err := NewCaptureSink(path)
	require.NoError(t, err)

	require.NoError(t, s.Write([]byte{0xAA, 0x01, 0x02}))
	require.NoError(t, s.Write([]byte{0xAA, 0x03, 0x04}))
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x01, 0x02, 0xAA, 0x03, 0x04}, got)
}

func TestCaptureSinkAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")
	s1, err := NewCaptureSink(path)
	require.NoError(t, err)
	require.NoError(t, s1.Write([]byte{0x01}))
	require.NoError(t, s1.Close())

	s2, err := NewCaptureSink(path)
	require.NoError(t, err)
	require.NoError(t, s2.Write([]byte{0x02}))
	require.NoError(t, s2.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, got)
}
