package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"flight": { "speed": 20, "distanceUnit": 0.5 },
		"transport": { "address": "10.0.0.1:8889" }
	}`)
	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 20, viper.GetInt("flight.speed"))
	assert.Equal(t, 0.5, viper.GetFloat64("flight.distanceUnit"))
	assert.Equal(t, "10.0.0.1:8889", viper.GetString("transport.address"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./plans", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "autopilot", viper.GetString("otel.serviceName"))
	assert.Equal(t, "192.168.10.1:8889", viper.GetString("transport.address"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	var notFound viper.ConfigFileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)
	viper.Set("testDuration", "150ms")

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
	assert.Equal(t, 150*time.Millisecond, GetDuration("testDuration"))
}

func TestGetFlightConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	fc := GetFlightConfig()
	assert.Equal(t, 1.0, fc.DistanceUnit)
	assert.Equal(t, 50, fc.Speed)
	assert.Equal(t, 10.0, fc.Scale)
	assert.Equal(t, 10.0, fc.VoxelSize)
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	pc := GetPlaybackConfig()
	assert.Equal(t, 5*time.Second, pc.TakeoffDelay)
	assert.Equal(t, 3*time.Second, pc.MoveDelay)
	assert.Equal(t, 2*time.Second, pc.RotateDelay)
	assert.Equal(t, 3*time.Second, pc.HoldDelay)
	assert.Equal(t, 3*time.Second, pc.LandDelay)
	assert.Equal(t, 10*time.Second, pc.ReturnHomeAfter)
	assert.Equal(t, 4500*time.Millisecond, pc.ReleaseAfter)
	assert.Equal(t, 1.0, pc.TakeoffHeight)
}

func TestGetPlaybackConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"playback": { "moveDelay": "250ms", "releaseAfter": "1s" }
	}`)))

	pc := GetPlaybackConfig()
	assert.Equal(t, 250*time.Millisecond, pc.MoveDelay)
	assert.Equal(t, time.Second, pc.ReleaseAfter)
	assert.Equal(t, 5*time.Second, pc.TakeoffDelay)
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, 32, cfg.PlanCache)
	assert.Equal(t, "./plans", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, "json", cfg.Memory.Format)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, "autopilot", cfg.Postgres.Database)
	assert.Equal(t, 5*time.Minute, cfg.WebSocket.TokenTTL)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false, "format": "yaml" },
			"sqlite": { "dumpInterval": "10m" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "yaml", sc.Memory.Format)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetTransportAndInfluxConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	LoadDefaults()

	tc := GetTransportConfig()
	assert.Equal(t, 7*time.Second, tc.Timeout)
	assert.Equal(t, 1, tc.Retries)

	ic := GetInfluxConfig()
	assert.Equal(t, "flights", ic.Bucket)
	assert.Equal(t, "8086", ic.Port)

	lc := GetLogConfig()
	assert.Equal(t, 20, lc.MaxSizeMB)
	assert.True(t, lc.Compress)
}

func TestRegisterFlags_OverrideFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{ "flight": { "speed": 20 } }`)))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, RegisterFlags(fs))
	require.NoError(t, fs.Parse([]string{"--speed", "80", "--storage", "sqlite"}))

	assert.Equal(t, 80, GetFlightConfig().Speed)
	assert.Equal(t, "sqlite", GetStorageConfig().Type)
	assert.Equal(t, 1.0, GetFlightConfig().DistanceUnit)
}
