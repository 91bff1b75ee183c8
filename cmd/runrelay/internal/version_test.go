package internal

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	out := bytes.NewBufferString("")
	errOut := bytes.NewBufferString("")
	cmd := NewVersionCmd()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.True(t, out.Len() > 0 || errOut.Len() > 0, "expected some output")
}

func TestDeriveVersionFromInfo(t *testing.T) {
	testCases := []struct {
		name    string
		info    *debug.BuildInfo
		want    string
		wantErr bool
	}{
		{
			name: "released build",
			info: &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			want: "v1.2.3",
		},
		{
			name: "devel build with VCS metadata",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abcdef1234567890abcdef1234567890abcdef12"},
					{Key: "vcs.time", Value: "2025-07-15T12:00:00Z"},
				},
			},
			want: "v0.0.0-20250715120000-abcdef123456",
		},
		{
			name: "dirty tree is marked",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abcdef123456"},
					{Key: "vcs.time", Value: "2025-07-15T12:00:00Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: "v0.0.0-20250715120000-abcdef123456+dirty",
		},
		{
			name: "short revision kept whole",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
				},
			},
			want: "v0.0.0-abc123",
		},
		{
			name:    "no version information",
			info:    &debug.BuildInfo{},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := deriveVersionFromInfo(tc.info)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
