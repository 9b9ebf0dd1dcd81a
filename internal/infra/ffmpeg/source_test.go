package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		width   int
		height  int
		wantErr bool
	}{
		{name: "plain", output: "1920x1080", width: 1920, height: 1080},
		{name: "trailing newline", output: "640x480\n", width: 640, height: 480},
		{name: "crlf", output: "1280x720\r\n", width: 1280, height: 720},
		{name: "empty", output: "", wantErr: true},
		{name: "no separator", output: "1920", wantErr: true},
		{name: "non numeric", output: "widexhigh", wantErr: true},
		{name: "zero width", output: "0x1080", wantErr: true},
		{name: "negative height", output: "1920x-2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			width, height, err := parseGeometry(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, width)
			assert.Equal(t, tt.height, height)
		})
	}
}
