// internal/storage/memory/codec.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v2"
)

// Format is a file encoding, named by its extension without the leading dot.
type Format string

const (
	FormatJSON        Format = "json"
	FormatJSONGzip    Format = "json.gz"
	FormatYAML        Format = "yaml"
	FormatMsgpackZstd Format = "msgpack.zst"
)

// Formats lists every supported format, longest extension first.
var Formats = []Format{FormatMsgpackZstd, FormatJSONGzip, FormatYAML, FormatJSON}

// ParseFormat maps a config value to a Format. An empty name means json,
// gzipped when compress is set.
func ParseFormat(name string, compress bool) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "json":
		if compress {
			return FormatJSONGzip, nil
		}
		return FormatJSON, nil
	case "json.gz", "gz", "gzip":
		return FormatJSONGzip, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "msgpack.zst", "zst":
		return FormatMsgpackZstd, nil
	default:
		return "", fmt.Errorf("unknown file format: %s", name)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FormatOf detects the format of path from its extension.
func FormatOf(path string) (Format, bool) {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, ".yml") {
		return FormatYAML, true
	}
	for _, f := range Formats {
		if strings.HasSuffix(base, f.Ext()) {
			return f, true
		}
	}
	return "", false
}

// TrimExt strips a known format extension from a file name.
func TrimExt(name string) string {
	if f, ok := FormatOf(name); ok {
		if f == FormatYAML && strings.HasSuffix(strings.ToLower(name), ".yml") {
			return name[:len(name)-len(".yml")]
		}
		return name[:len(name)-len(f.Ext())]
	}
	return name
}

// Encode writes v to w in format f.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatJSONGzip:
		gw := gzip.NewWriter(w)
		if err := json.NewEncoder(gw).Encode(v); err != nil {
			gw.Close()
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return gw.Close()
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatMsgpackZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if err := msgpack.NewEncoder(zw).Encode(v); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode msgpack: %w", err)
		}
		return zw.Close()
	default:
		return fmt.Errorf("unknown file format: %s", f)
	}
}

// Decode reads v from r in format f.
func Decode(r io.Reader, f Format, v any) error {
	switch f {
	case FormatJSON:
		return json.NewDecoder(r).Decode(v)
	case FormatJSONGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gr.Close()
		return json.NewDecoder(gr).Decode(v)
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, v)
	case FormatMsgpackZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return err
		}
		defer zr.Close()
		return msgpack.NewDecoder(zr).Decode(v)
	default:
		return fmt.Errorf("unknown file format: %s", f)
	}
}

// WriteFile encodes v into path, picking the format from its extension.
// The file is written next to its target and renamed into place.
func WriteFile(path string, v any) error {
	f, ok := FormatOf(path)
	if !ok {
		return fmt.Errorf("unknown file format: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, f, v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile decodes path into v, picking the format from its extension.
func ReadFile(path string, v any) error {
	f, ok := FormatOf(path)
	if !ok {
		return fmt.Errorf("unknown file format: %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := Decode(file, f, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
