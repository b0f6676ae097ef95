// Package instance reads the configuration directory of one trade server:
// <root>/<exchange>/<instance>/ holding an assets file, a header file, and a
// directory of JSON section files.
package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when the instance directory does not exist.
	ErrNotFound = errors.New("instance directory not found")
	// ErrAssetsNotFound is returned when the assets file does not exist.
	ErrAssetsNotFound = errors.New("assets file not found")
)

// DecodeError reports a file that is not valid JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Layout names the files inside every instance directory.
type Layout struct {
	Root           string
	AssetsFilename string
	HeaderFilename string
	SectionsDir    string
}

// Instance is an existing instance directory.
type Instance struct {
	layout Layout
	dir    string
	logger zerolog.Logger
}

// Open returns the instance directory for exchange and instance, or ErrNotFound.
func Open(layout Layout, exchange, instance string, logger zerolog.Logger) (*Instance, error) {
	dir := filepath.Join(layout.Root, exchange, instance)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	return &Instance{layout: layout, dir: dir, logger: logger}, nil
}

// Dir returns the instance directory path.
func (i *Instance) Dir() string {
	return i.dir
}

// CheckAssets returns ErrAssetsNotFound when the assets file is missing.
func (i *Instance) CheckAssets() error {
	path := filepath.Join(i.dir, i.layout.AssetsFilename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrAssetsNotFound, path)
	}
	return nil
}

// ReadAssets returns the comma separated venue asset ids of the assets file.
// Line breaks are ignored, surrounding whitespace is trimmed, and empty entries are dropped.
func (i *Instance) ReadAssets() ([]string, error) {
	path := filepath.Join(i.dir, i.layout.AssetsFilename)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAssetsNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read assets: %w", err)
	}
	return ParseAssets(string(data)), nil
}

// ParseAssets splits an assets list such as "BTC, ETH,\nUSDT".
func ParseAssets(s string) []string {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)

	assets := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if asset := strings.TrimSpace(part); asset != "" {
			assets = append(assets, asset)
		}
	}
	return assets
}

// Header holds the identity fields copied into every response.
type Header struct {
	Exchange string `json:"exchange"`
	Node     string `json:"node"`
	Instance string `json:"instance"`
	Algo     string `json:"algo"`
}

type headerFile struct {
	Exchange *string `json:"exchange"`
	Node     *string `json:"node"`
	Instance *string `json:"instance"`
	Algo     *string `json:"algo"`
}

// EnsureHeader returns the header of the instance. A missing header file is created
// from defaults. When the file lacks fields, the defaults fill them and the file is
// rewritten with the merged header.
func (i *Instance) EnsureHeader(defaults Header) (Header, error) {
	path := filepath.Join(i.dir, i.layout.HeaderFilename)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		i.logger.Warn().Str("path", path).Msg("header file not found, creating it from defaults")
		if err := writeHeader(path, defaults); err != nil {
			return Header{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}

	var stored headerFile
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return Header{}, &DecodeError{Path: path, Err: err}
	}

	merged := defaults
	complete := true
	for _, f := range []struct {
		src  *string
		dest *string
	}{
		{stored.Exchange, &merged.Exchange},
		{stored.Node, &merged.Node},
		{stored.Instance, &merged.Instance},
		{stored.Algo, &merged.Algo},
	} {
		if f.src == nil {
			complete = false
			continue
		}
		*f.dest = *f.src
	}

	if !complete {
		i.logger.Warn().Str("path", path).Msg("header file is missing fields, filling them from defaults")
		if err := writeHeader(path, merged); err != nil {
			return Header{}, err
		}
	}
	return merged, nil
}

func writeHeader(path string, h Header) error {
	data, err := sonic.ConfigStd.MarshalIndent(h, "", "    ")
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// ReadSections returns every file of the sections directory keyed by its name
// without extension. A missing sections directory yields no sections.
func (i *Instance) ReadSections() (map[string]json.RawMessage, error) {
	dir := filepath.Join(i.dir, i.layout.SectionsDir)
	sections := make(map[string]json.RawMessage)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return sections, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sections: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read section: %w", err)
		}

		var content any
		if err := sonic.Unmarshal(data, &content); err != nil {
			i.logger.Error().Err(err).Str("path", path).Msg("cannot decode section")
			return nil, &DecodeError{Path: path, Err: err}
		}
		if isEmpty(content) {
			i.logger.Error().Str("path", path).Msg("section is empty")
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		sections[name] = json.RawMessage(data)
	}
	return sections, nil
}

func isEmpty(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(c) == 0
	case []any:
		return len(c) == 0
	case string:
		return c == ""
	case bool:
		return !c
	case float64:
		return c == 0
	}
	return false
}

// LastModified returns the latest modification time, in unix microseconds, of the
// files under the instance directory, or -1 when it holds no files.
func (i *Instance) LastModified() (int64, error) {
	var latest int64 = -1
	err := filepath.WalkDir(i.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		latest = max(latest, info.ModTime().UnixMicro())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", i.dir, err)
	}
	return latest, nil
}
