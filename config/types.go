package config

// SearchPathType represents different strategies for locating the env file.
type SearchPathType int

const (
	// SearchPathEtc searches in /etc/{app} directory.
	SearchPathEtc SearchPathType = iota
	// SearchPathHomeHidden searches in $HOME/.{app} directory.
	SearchPathHomeHidden
	// SearchPathWorkingDirHidden searches in $PWD/.{app} directory.
	SearchPathWorkingDirHidden
	// SearchPathExecutableDirHidden searches in {executable_dir}/.{app} directory.
	SearchPathExecutableDirHidden
	// SearchPathCustom uses custom paths provided in CustomPaths field.
	SearchPathCustom
	// SearchPathWorkingDir searches in the $PWD directory.
	SearchPathWorkingDir
)

// Options defines how the env file gets discovered.
type Options struct {
	AppName     string
	FlagName    string           // Name of the env file flag (defaults to "env-file")
	FileName    string           // Env file name (defaults to ".env")
	EnvVar      string           // Environment variable pointing to the env file (defaults to {APP}_ENV_FILE)
	SearchPaths []SearchPathType // Search path strategies (defaults to $PWD, $PWD/.{app}, $HOME/.{app}, /etc/{app})
	CustomPaths []string         // Custom search paths (when SearchPaths contains SearchPathCustom)
}
