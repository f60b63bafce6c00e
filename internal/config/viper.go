package internalconfig

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	internalenv "github.com/leodido/envalid/internal/env"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ConfigType tells viper how to parse the given file.
//
// Files without a known extension (eg., ".env.local") are parsed as dotenv files.
func ConfigType(file string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
	if ext != "" && slices.Contains(viper.SupportedExts, ext) {
		return ext
	}

	return "env"
}

// Read loads the given files, in order, into a single map of environment variables.
//
// Later files override earlier ones. Files that do not exist are skipped.
// Nested keys (eg., YAML sections) are flattened into environment variable names.
func Read(fs afero.Fs, files []string, log *zap.Logger) (map[string]string, error) {
	res := map[string]string{}

	for _, file := range files {
		if file == "" {
			continue
		}
		if ok, _ := afero.Exists(fs, file); !ok {
			log.Debug("env file not found, skipping", zap.String("path", file))

			continue
		}

		vip := viper.New()
		vip.SetFs(fs)
		vip.SetConfigFile(file)
		vip.SetConfigType(ConfigType(file))
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read env file %s: %w", file, err)
		}

		keys := vip.AllKeys()
		for _, key := range keys {
			res[internalenv.NormEnv(key)] = stringify(vip.Get(key))
		}
		log.Debug("env file loaded", zap.String("path", file), zap.Int("keys", len(keys)))
	}

	return res, nil
}

// stringify turns a value read from a file into the string an environment variable would hold.
//
// Lists become comma-separated values.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []any, []string:
		return strings.Join(cast.ToStringSlice(v), ",")
	default:
		return cast.ToString(v)
	}
}
