package internalconfig

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/leodido/envalid/config"
	internalenv "github.com/leodido/envalid/internal/env"
	"github.com/spf13/afero"
)

const (
	DefaultFlagName = "env-file"
	DefaultFileName = ".env"
)

var DefaultSearchPaths = []config.SearchPathType{
	config.SearchPathWorkingDir,
	config.SearchPathWorkingDirHidden,
	config.SearchPathHomeHidden,
	config.SearchPathEtc,
}

// Defaults fills the zero values of the options.
//
// appName is used when the options do not name the app.
func Defaults(opts config.Options, appName string) config.Options {
	if opts.AppName == "" {
		opts.AppName = appName
	}
	if opts.FlagName == "" {
		opts.FlagName = DefaultFlagName
	}
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if opts.EnvVar == "" {
		if opts.AppName != "" {
			opts.EnvVar = fmt.Sprintf("%s_ENV_FILE", internalenv.NormEnv(opts.AppName))
		}
	} else {
		opts.EnvVar = internalenv.NormEnv(opts.EnvVar)
	}
	if len(opts.SearchPaths) == 0 {
		opts.SearchPaths = DefaultSearchPaths
	}

	return opts
}

// Discover finds the env file to load.
//
// An explicit path wins over the environment variable, which wins over the first existing file in the search paths.
// The environment variable is looked up in environment, not in the process environment.
// It returns an empty string when there is nothing to load.
func Discover(fs afero.Fs, explicit string, opts config.Options, environment map[string]string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}

	if opts.EnvVar != "" {
		if p := strings.TrimSpace(environment[opts.EnvVar]); p != "" {
			return p
		}
	}

	for _, dir := range resolveSearchPaths(opts.SearchPaths, opts.CustomPaths, opts.AppName, false) {
		candidate := filepath.Join(dir, opts.FileName)
		if ok, _ := afero.Exists(fs, candidate); ok {
			return candidate
		}
	}

	return ""
}

// resolveSearchPaths converts SearchPathType strategies to paths
// When mask=true, returns template paths for descriptions (e.g., $HOME, $PWD)
// When mask=false, returns actual resolved paths
func resolveSearchPaths(pathTypes []config.SearchPathType, customPaths []string, appName string, mask bool) []string {
	var paths []string
	customPathsUsed := false
	hidden := fmt.Sprintf(".%s", appName)

	for _, pathType := range pathTypes {
		switch pathType {
		case config.SearchPathEtc:
			if appName != "" {
				paths = append(paths, path.Join("/etc", appName))
			}

		case config.SearchPathWorkingDir:
			if mask {
				paths = append(paths, "$PWD")
			} else if pwd, _ := os.Getwd(); pwd != "" {
				paths = append(paths, pwd)
			}

		case config.SearchPathHomeHidden:
			if appName == "" {
				continue
			}
			if mask {
				paths = append(paths, path.Join("$HOME", hidden))
			} else if home, _ := os.UserHomeDir(); home != "" {
				paths = append(paths, path.Join(home, hidden))
			}

		case config.SearchPathWorkingDirHidden:
			if appName == "" {
				continue
			}
			if mask {
				paths = append(paths, path.Join("$PWD", hidden))
			} else if pwd, _ := os.Getwd(); pwd != "" {
				paths = append(paths, path.Join(pwd, hidden))
			}

		case config.SearchPathExecutableDirHidden:
			if appName == "" {
				continue
			}
			if mask {
				paths = append(paths, path.Join("{executable_dir}", hidden))
			} else if exec, _ := os.Executable(); exec != "" {
				paths = append(paths, path.Join(filepath.Dir(exec), hidden))
			}

		case config.SearchPathCustom:
			// Add all custom paths at this position only once
			if !customPathsUsed {
				for _, customPath := range customPaths {
					if mask {
						paths = append(paths, strings.ReplaceAll(customPath, "{APP}", appName))
					} else {
						paths = append(paths, resolveSearchPath(customPath, appName))
					}
				}
				customPathsUsed = true
			}
		}
	}

	return paths
}

// resolveSearchPath expands environment variables and placeholders in search paths
func resolveSearchPath(searchPath, appName string) string {
	expanded := os.ExpandEnv(searchPath)
	expanded = strings.ReplaceAll(expanded, "{APP}", appName)
	// Handle $PWD specially since os.ExpandEnv might not handle it
	if strings.Contains(expanded, "$PWD") {
		pwd, _ := os.Getwd()
		expanded = strings.ReplaceAll(expanded, "$PWD", pwd)
	}

	return expanded
}

// Description creates a flag description based on the search paths
func Description(opts config.Options) string {
	templatePaths := resolveSearchPaths(opts.SearchPaths, opts.CustomPaths, opts.AppName, true)

	if len(templatePaths) == 0 {
		return "env file"
	}

	// Limit to first 3 examples to keep description reasonable
	if len(templatePaths) > 3 {
		templatePaths = templatePaths[:3]
	}

	return fmt.Sprintf("env file (fallbacks to: {%s}/%s)", strings.Join(templatePaths, ","), opts.FileName)
}
