package instance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout(root string) Layout {
	return Layout{
		Root:           root,
		AssetsFilename: "assets.txt",
		HeaderFilename: "header.json",
		SectionsDir:    "sections",
	}
}

func newInstance(t *testing.T, files map[string]string) *Instance {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "binance", "1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	inst, err := Open(testLayout(root), "binance", "1", zerolog.Nop())
	require.NoError(t, err)
	return inst
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(testLayout(t.TempDir()), "binance", "missing", zerolog.Nop())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseAssets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "canonical", in: "BTC, ETH, USDT", want: []string{"BTC", "ETH", "USDT"}},
		{name: "line breaks", in: "BTC, ETH,\nUSDT\n", want: []string{"BTC", "ETH", "USDT"}},
		{name: "no spaces", in: "BTC,ETH", want: []string{"BTC", "ETH"}},
		{name: "empty entries", in: "BTC,, ,ETH,", want: []string{"BTC", "ETH"}},
		{name: "empty", in: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAssets(tt.in))
		})
	}
}

func TestReadAssets(t *testing.T) {
	inst := newInstance(t, map[string]string{"assets.txt": "BTC, ETH, USDT\n"})

	require.NoError(t, inst.CheckAssets())
	assets, err := inst.ReadAssets()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH", "USDT"}, assets)
}

func TestReadAssets_Missing(t *testing.T) {
	inst := newInstance(t, nil)

	assert.ErrorIs(t, inst.CheckAssets(), ErrAssetsNotFound)
	_, err := inst.ReadAssets()
	assert.ErrorIs(t, err, ErrAssetsNotFound)
}

var defaults = Header{Exchange: "binance", Node: "configurator", Instance: "1", Algo: "spread_bot_cpp"}

func readHeaderFile(t *testing.T, inst *Instance) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(inst.Dir(), "header.json"))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(data, &out))
	return out
}

func TestEnsureHeader_CreatesMissing(t *testing.T) {
	inst := newInstance(t, nil)

	h, err := inst.EnsureHeader(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, h)

	stored := readHeaderFile(t, inst)
	assert.Equal(t, "configurator", stored["node"])
	assert.Equal(t, "1", stored["instance"])
}

func TestEnsureHeader_MergesMissingFields(t *testing.T) {
	inst := newInstance(t, map[string]string{"header.json": `{"node": "node-2", "algo": "arb"}`})

	h, err := inst.EnsureHeader(defaults)
	require.NoError(t, err)
	assert.Equal(t, Header{Exchange: "binance", Node: "node-2", Instance: "1", Algo: "arb"}, h)

	stored := readHeaderFile(t, inst)
	assert.Equal(t, map[string]any{"exchange": "binance", "node": "node-2", "instance": "1", "algo": "arb"}, stored)
}

func TestEnsureHeader_CompleteFileUntouched(t *testing.T) {
	content := `{"exchange":"b","node":"n","instance":"i","algo":"a"}`
	inst := newInstance(t, map[string]string{"header.json": content})

	h, err := inst.EnsureHeader(defaults)
	require.NoError(t, err)
	assert.Equal(t, Header{Exchange: "b", Node: "n", Instance: "i", Algo: "a"}, h)

	data, err := os.ReadFile(filepath.Join(inst.Dir(), "header.json"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestEnsureHeader_InvalidJSON(t *testing.T) {
	inst := newInstance(t, map[string]string{"header.json": `{"node": `})

	_, err := inst.EnsureHeader(defaults)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, filepath.Join(inst.Dir(), "header.json"), decodeErr.Path)
}

func TestReadSections(t *testing.T) {
	inst := newInstance(t, map[string]string{
		"sections/core.json":  `{"depth": 5, "symbols": ["BTC/USDT"]}`,
		"sections/gate.json":  `{"ws": true}`,
		"sections/empty.json": `{}`,
	})
	require.NoError(t, os.MkdirAll(filepath.Join(inst.Dir(), "sections", "nested"), 0o755))

	sections, err := inst.ReadSections()
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.JSONEq(t, `{"depth": 5, "symbols": ["BTC/USDT"]}`, string(sections["core"]))
	assert.JSONEq(t, `{"ws": true}`, string(sections["gate"]))
	assert.JSONEq(t, `{}`, string(sections["empty"]))
}

func TestReadSections_InvalidJSON(t *testing.T) {
	inst := newInstance(t, map[string]string{"sections/core.json": `{"depth": }`})

	_, err := inst.ReadSections()

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Path, "core.json")
}

func TestReadSections_MissingDir(t *testing.T) {
	inst := newInstance(t, nil)

	sections, err := inst.ReadSections()
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestLastModified(t *testing.T) {
	inst := newInstance(t, nil)

	empty, err := inst.LastModified()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), empty)

	older := time.Now().Add(-time.Hour).Truncate(time.Second)
	newer := time.Now().Add(-time.Minute).Truncate(time.Second)

	top := filepath.Join(inst.Dir(), "assets.txt")
	nested := filepath.Join(inst.Dir(), "sections", "core.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(top, []byte("BTC"), 0o644))
	require.NoError(t, os.WriteFile(nested, []byte("{}"), 0o644))
	require.NoError(t, os.Chtimes(top, older, older))
	require.NoError(t, os.Chtimes(nested, newer, newer))

	got, err := inst.LastModified()
	require.NoError(t, err)
	assert.Equal(t, newer.UnixMicro(), got)
}
