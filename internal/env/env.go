package internalenv

import (
	"maps"
	"os"
	"strings"
)

var (
	EnvSep = "_"
	envRep = strings.NewReplacer("-", EnvSep, ".", EnvSep)
)

// NormEnv turns a key (eg., a nested config file key like "database.url") into an environment variable name.
func NormEnv(str string) string {
	return envRep.Replace(strings.ToUpper(str))
}

// NormPrefix makes sure a non-empty prefix ends with the separator.
func NormPrefix(str string) string {
	if str == "" {
		return ""
	}

	return NormEnv(strings.TrimSuffix(str, EnvSep)) + EnvSep
}

// FromOS returns the process environment as a map.
func FromOS() map[string]string {
	return FromList(os.Environ())
}

// FromList converts a list of KEY=VALUE pairs into a map.
//
// Later pairs win over earlier ones for the same key.
func FromList(pairs []string) map[string]string {
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		res[k] = v
	}

	return res
}

// Overlay merges the layers in order, so that later layers override earlier ones.
//
// When caseSensitive is false every key is upper-cased before merging.
func Overlay(caseSensitive bool, layers ...map[string]string) map[string]string {
	res := map[string]string{}
	for _, layer := range layers {
		if caseSensitive {
			maps.Copy(res, layer)

			continue
		}
		for k, v := range layer {
			res[strings.ToUpper(k)] = v
		}
	}

	return res
}

// FieldName derives the name reported for a field from its environment variable key.
//
// The global prefix is stripped and the rest lower-cased (eg., "APP_DATABASE_URL" -> "database_url").
func FieldName(key, prefix string) string {
	if prefix != "" && len(key) >= len(prefix) && strings.EqualFold(key[:len(prefix)], prefix) {
		key = key[len(prefix):]
	}

	return strings.ToLower(key)
}
