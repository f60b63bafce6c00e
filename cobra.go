package envalid

import (
	"fmt"
	"os"
	"strings"

	"github.com/leodido/envalid/config"
	internalconfig "github.com/leodido/envalid/internal/config"
	internalenv "github.com/leodido/envalid/internal/env"
	internalscope "github.com/leodido/envalid/internal/scope"
	"github.com/leodido/envalid/report"
	"github.com/leodido/envalid/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
)

const (
	DefaultReportFlagName = "report"

	flagEnvFileAnnotation = "___leodido_envalid_envfileflagname"
	flagReportAnnotation  = "___leodido_envalid_reportflagname"
)

// SetupEnvFile creates the --env-file persistent flag and stores how to discover the env file.
//
// Works only for the root command.
func SetupEnvFile(rootC *cobra.Command, opts config.Options) error {
	if rootC.Parent() != nil {
		return fmt.Errorf("SetupEnvFile must be called on the root command")
	}

	appName := opts.AppName
	if appName == "" {
		appName = rootC.Name()
	}
	if appName == "" {
		return fmt.Errorf("couldn't determine the app name")
	}
	opts = internalconfig.Defaults(opts, appName)

	// Add persistent flag to root command
	rootC.PersistentFlags().String(opts.FlagName, "", internalconfig.Description(opts))

	// Add filename completion
	if err := rootC.MarkPersistentFlagFilename(opts.FlagName); err != nil {
		return fmt.Errorf("couldn't set filename completion: %w", err)
	}

	setAnnotation(rootC, flagEnvFileAnnotation, opts.FlagName)
	internalscope.Get(rootC).SetEnvFile(opts)

	return nil
}

// SetupReport creates the --report persistent flag and makes every command print its configuration errors.
//
// The run hooks of the root command and of its subcommands are wrapped: when one of them returns a
// validation failure, the report goes to the command's error output and cobra does not print the error
// nor the usage again. The error is still returned.
// Works only for the root command, after its subcommands are added.
func SetupReport(rootC *cobra.Command, opts report.Options) error {
	if rootC.Parent() != nil {
		return fmt.Errorf("SetupReport must be called on the root command")
	}

	appName := opts.AppName
	if appName == "" {
		appName = rootC.Name()
	}
	if appName == "" {
		return fmt.Errorf("couldn't determine the app name")
	}
	opts.AppName = appName

	// Compute flag and environment variable names
	if opts.FlagName == "" {
		opts.FlagName = DefaultReportFlagName
	}
	if opts.EnvVar == "" {
		opts.EnvVar = fmt.Sprintf("%s_%s", internalenv.NormEnv(appName), internalenv.NormEnv(opts.FlagName))
	} else {
		opts.EnvVar = internalenv.NormEnv(opts.EnvVar)
	}

	format := new(report.Format)
	*format = opts.Format
	names := []string{}
	for _, f := range []report.Format{report.Box, report.Plain, report.JSON} {
		names = append(names, f.String())
	}
	enumFlag := enumflag.New(format, "format", report.FormatIds, enumflag.EnumCaseInsensitive)
	rootC.PersistentFlags().Var(enumFlag, opts.FlagName, fmt.Sprintf("how configuration errors are reported {%s}", strings.Join(names, ",")))
	if err := rootC.RegisterFlagCompletionFunc(opts.FlagName, cobra.FixedCompletions(names, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		return fmt.Errorf("couldn't set completion: %w", err)
	}

	setAnnotation(rootC, flagReportAnnotation, opts.FlagName)
	s := internalscope.Get(rootC)
	s.SetReport(opts, format)

	// Wrap all commands run hooks
	recursiveWrapC(rootC, s)

	return nil
}

// ValidateCommand loads settings of type T for the command c.
//
// The env file comes from the --env-file flag, or is discovered as configured with SetupEnvFile.
// The title and hint configured with SetupReport apply unless given as options.
func ValidateCommand[T any](c *cobra.Command, opts ...Option) (T, error) {
	rootC := c.Root()
	s := internalscope.Get(rootC)
	o := newOptions(opts)

	loadOpts := []settings.Option{settings.WithLogger(o.log)}
	if ctx := c.Context(); ctx != nil {
		loadOpts = append(loadOpts, settings.WithContext(ctx))
	}
	envOpts, discover := s.EnvFile()
	flagName := rootC.Annotations[flagEnvFileAnnotation]
	if discover {
		flagName = envOpts.FlagName
	}
	explicit := ""
	if f := lookupFlag(c, flagName); f != nil {
		explicit = f.Value.String()
	}
	if strings.TrimSpace(explicit) != "" {
		loadOpts = append(loadOpts, settings.WithEnvFiles(explicit))
	} else if discover {
		loadOpts = append(loadOpts, settings.WithDiscovery(envOpts))
	}
	loadOpts = append(loadOpts, o.settings...)

	return Validate(settings.New[T](loadOpts...), append(reportOptions(c), opts...)...)
}

// reportOptions returns the title and hint configured with SetupReport.
func reportOptions(c *cobra.Command) []Option {
	reportOpts, _, ok := internalscope.Get(c.Root()).Report()
	if !ok {
		return nil
	}

	res := []Option{}
	if reportOpts.Title != "" {
		res = append(res, WithTitle(reportOpts.Title))
	}
	if reportOpts.Hint != "" {
		res = append(res, WithHint(reportOpts.Hint))
	}

	return res
}

// ReportFormat returns the report format selected for the command c, either through the flag or the environment variable.
func ReportFormat(c *cobra.Command) report.Format {
	rootC := c.Root()
	opts, format, ok := internalscope.Get(rootC).Report()
	if !ok {
		// The scope is gone when the context of the root command was replaced
		if flagName, annotated := rootC.Annotations[flagReportAnnotation]; annotated {
			if f := lookupFlag(c, flagName); f != nil {
				if parsed, err := report.ParseFormat(f.Value.String()); err == nil {
					return parsed
				}
			}
		}

		return report.Box
	}

	// Let's first check the flag directly
	if f := lookupFlag(c, opts.FlagName); f != nil && f.Changed {
		return format
	}

	// Then the environment variable
	if val := strings.TrimSpace(os.Getenv(opts.EnvVar)); val != "" {
		if parsed, err := report.ParseFormat(val); err == nil {
			return parsed
		}
	}

	return format
}

// lookupFlag finds a flag of c, looking at the persistent flags of the root command last.
func lookupFlag(c *cobra.Command, name string) *pflag.Flag {
	if name == "" {
		return nil
	}
	if f := c.Flags().Lookup(name); f != nil {
		return f
	}

	return c.Root().PersistentFlags().Lookup(name)
}

func recursiveWrapC(c *cobra.Command, s *internalscope.Scope) {
	if s.MarkWrapped(c) {
		c.PersistentPreRunE = wrapRunE(c.PersistentPreRunE)
		c.PreRunE = wrapRunE(c.PreRunE)
		c.RunE = wrapRunE(c.RunE)
	}

	// Recurse into subcommands
	for _, sub := range c.Commands() {
		recursiveWrapC(sub, s)
	}
}

func wrapRunE(original func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	if original == nil {
		return nil
	}

	return func(c *cobra.Command, args []string) error {
		err := original(c, args)
		if err == nil {
			return nil
		}

		return reportC(c, err)
	}
}

// reportC prints the configuration error in err to the error output of c.
//
// err is returned as is. Other errors are left for cobra to print.
func reportC(c *cobra.Command, err error) error {
	cfgErr, ok := Translate(err, reportOptions(c)...)
	if !ok {
		return err
	}

	format := ReportFormat(c)
	w := c.ErrOrStderr()
	if format == report.Box && cfgErr.Width == 0 {
		if width := report.TerminalWidth(w); width > 0 {
			cfgErr = cfgErr.WithWidth(width)
		}
	}
	if writeErr := report.Write(w, cfgErr, format); writeErr != nil {
		return err
	}

	c.SilenceErrors = true
	c.SilenceUsage = true

	return err
}

func setAnnotation(c *cobra.Command, key, value string) {
	if c.Annotations == nil {
		c.Annotations = make(map[string]string)
	}
	c.Annotations[key] = value
}
