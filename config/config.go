package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigBoardsPath        = "boards-path"
	ConfigDefaultBoard      = "default-board"
	ConfigDefaultStrategy   = "default-strategy"
	ConfigDefaultDepth      = "default-depth"
	ConfigAnytimeDuration   = "anytime-duration"
	ConfigTTFractionOfMem   = "tt-fraction-of-mem"
	ConfigTTMaxSizePower    = "tt-max-size-power"
	ConfigThreads           = "threads"
	ConfigNatsURL           = "nats-url"
	ConfigBotChannel        = "bot-channel"
	ConfigServerAddress     = "server-address"
	ConfigTranscriptsPath   = "transcripts-path"
	ConfigCPUProfile        = "cpu-profile"
	ConfigMemProfile        = "mem-profile"
	ConfigColorDisplay      = "color-display"
	ConfigBotRequestTimeout = "bot-request-timeout"
	ConfigGRPCAddress       = "grpc-address"
	ConfigLambdaFunction    = "lambda-function"
)

// Config wraps a viper instance. Settings come from defaults, then the
// environment (BLOBWAR_ prefix), then --key=value arguments.
type Config struct {
	sync.Mutex
	viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.Viper = *viper.New()
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigBoardsPath, "./data/boards")
	c.SetDefault(ConfigDefaultBoard, "standard")
	c.SetDefault(ConfigDefaultStrategy, "alphabeta")
	c.SetDefault(ConfigDefaultDepth, 4)
	c.SetDefault(ConfigAnytimeDuration, time.Second)
	c.SetDefault(ConfigTTFractionOfMem, 0.01)
	c.SetDefault(ConfigTTMaxSizePower, 20)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigNatsURL, nats.DefaultURL)
	c.SetDefault(ConfigBotChannel, "blobwar.bot")
	c.SetDefault(ConfigServerAddress, "0.0.0.0:12345")
	c.SetDefault(ConfigTranscriptsPath, "./transcripts")
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
	c.SetDefault(ConfigColorDisplay, true)
	c.SetDefault(ConfigBotRequestTimeout, 10*time.Second)
	c.SetDefault(ConfigGRPCAddress, "")
	c.SetDefault(ConfigLambdaFunction, "blobwar-move")
}

// Load reads the environment and the given arguments. Arguments look like
// --key=value or --key value; a bare --key sets a boolean to true.
// Arguments that are not options are left for the caller.
func (c *Config) Load(args []string) ([]string, error) {
	c.setDefaults()
	c.SetEnvPrefix("blobwar")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			rest = append(rest, arg)
			continue
		}
		kv := strings.TrimPrefix(arg, "--")
		if key, val, found := strings.Cut(kv, "="); found {
			c.Set(key, val)
			continue
		}
		if !c.IsSet(kv) {
			return nil, fmt.Errorf("unknown option %q", kv)
		}
		if _, isBool := c.Get(kv).(bool); isBool {
			c.Set(kv, true)
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("option %q needs a value", kv)
		}
		c.Set(kv, args[i+1])
		i++
	}
	return rest, nil
}

// AdjustRelativePaths rebases relative data paths on basePath, usually the
// directory of the executable.
func (c *Config) AdjustRelativePaths(basePath string) {
	basePath = FindBasePath(basePath)
	for _, key := range []string{ConfigBoardsPath, ConfigTranscriptsPath} {
		p := c.GetString(key)
		if !filepath.IsAbs(p) {
			c.Set(key, filepath.Join(basePath, p))
		}
	}
}

// FindBasePath walks up from path looking for a data directory, so that
// binaries built into subdirectories still find the shared boards.
func FindBasePath(path string) string {
	dir := path
	for {
		if st, err := os.Stat(filepath.Join(dir, "data")); err == nil && st.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		dir = parent
	}
}

// SanitizedSettings returns all settings, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
