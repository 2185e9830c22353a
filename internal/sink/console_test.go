/*
DESCRIPTION
  console_test.go checks ConsoleSink's one-line-per-header output format.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ausocean/miniscope/internal/header"
)

func TestConsoleSinkWritesSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)

	require.NoError(t, s.Append(header.Header{FrameNum: 7, BufferCount: 2, FrameBufferCount: 1}))
	require.Equal(t, "frame=7 buffer=2 frame_buffer=1\n", buf.String())
}

func TestConsoleSinkWritesOneLinePerAppend(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)

	require.NoError(t, s.Append(header.Header{FrameNum: 0}))
	require.NoError(t, s.Append(header.Header{FrameNum: 1}))
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
