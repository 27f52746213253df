package memory

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/pkg/core"
)

func testPlan() core.Plan {
	return core.Plan{
		Name:         "square",
		CreatedAt:    time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		DistanceUnit: 0.5,
		Speed:        20,
		Commands:     []string{"takeoff", "go 50 0 0 20", "cw 90", "land"},
		Instructions: []core.Instruction{
			core.Takeoff(),
			{Kind: core.KindMove, Direction: core.Forward, Displacement: core.Vec3{X: 50}, Speed: 20, Distance: 0.5, Draw: core.Vec3{Z: 1}, Label: "Forward --> 0.5 m"},
			{Kind: core.KindRotate, Direction: core.Clockwise, Degrees: 90, Label: "Rotate Clockwise --> 90 degrees"},
			core.Land(),
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		name     string
		compress bool
		want     Format
	}{
		{"", false, FormatJSON},
		{"", true, FormatJSONGzip},
		{"json", true, FormatJSONGzip},
		{"yml", false, FormatYAML},
		{".msgpack.zst", false, FormatMsgpackZstd},
		{"MSGPACK", false, FormatMsgpackZstd},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.name, tc.compress)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	_, err := ParseFormat("xml", false)
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	f, ok := FormatOf("/tmp/a.b.json.gz")
	require.True(t, ok)
	assert.Equal(t, FormatJSONGzip, f)

	f, ok = FormatOf("plan.YML")
	require.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	_, ok = FormatOf("plan.txt")
	assert.False(t, ok)

	assert.Equal(t, "a.b", TrimExt("a.b.msgpack.zst"))
	assert.Equal(t, "route", TrimExt("route.yml"))
	assert.Equal(t, "notes.txt", TrimExt("notes.txt"))
}

func TestCodec_PlanInEveryFormat(t *testing.T) {
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, testPlan()))

			var got core.Plan
			require.NoError(t, Decode(&buf, f, &got))

			want := testPlan()
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
			got.CreatedAt = want.CreatedAt
			assert.Equal(t, want, got)
		})
	}
}

func TestCodec_CompressedFormatsAreNotPlain(t *testing.T) {
	var gz, zst bytes.Buffer
	require.NoError(t, Encode(&gz, FormatJSONGzip, testPlan()))
	require.NoError(t, Encode(&zst, FormatMsgpackZstd, testPlan()))

	assert.Equal(t, []byte{0x1f, 0x8b}, gz.Bytes()[:2])
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, zst.Bytes()[:4])
}

func TestWriteFile_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "plan.yaml")

	require.NoError(t, WriteFile(path, testPlan()))
	p := testPlan()
	p.Speed = 60
	require.NoError(t, WriteFile(path, p))

	var got core.Plan
	require.NoError(t, ReadFile(path, &got))
	assert.Equal(t, 60, got.Speed)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not remain")
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, ReadFile(filepath.Join(dir, "x.txt"), &core.Plan{}))
	assert.Error(t, ReadFile(filepath.Join(dir, "missing.json"), &core.Plan{}))

	bad := filepath.Join(dir, "bad.json.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0o644))
	assert.ErrorContains(t, ReadFile(bad, &core.Plan{}), "bad.json.gz")
}
