package envalid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leodido/envalid/config"
	"github.com/leodido/envalid/report"
	"github.com/leodido/envalid/settings"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// createApp creates a root command with a serve subcommand loading appSettings.
func (suite *envalidSuite) createApp(environment map[string]string) (*cobra.Command, *bytes.Buffer) {
	rootC := &cobra.Command{Use: "myapp"}
	serveC := &cobra.Command{
		Use: "serve",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := ValidateCommand[appSettings](c, WithSettings(
				settings.WithFs(suite.fs),
				settings.WithEnvironment(environment),
			))
			if err != nil {
				return err
			}
			c.Printf("listening on %d\n", s.Port)

			return nil
		},
	}
	rootC.AddCommand(serveC)

	var out bytes.Buffer
	rootC.SetOut(&out)
	rootC.SetErr(&out)

	return rootC, &out
}

func (suite *envalidSuite) TestSetupEnvFile_RootOnly() {
	rootC := &cobra.Command{Use: "myapp"}
	subC := &cobra.Command{Use: "sub"}
	rootC.AddCommand(subC)

	err := SetupEnvFile(subC, config.Options{})
	suite.ErrorContains(err, "SetupEnvFile must be called on the root command")
}

func (suite *envalidSuite) TestSetupEnvFile_Flag() {
	rootC := &cobra.Command{Use: "myapp"}

	suite.Require().NoError(SetupEnvFile(rootC, config.Options{}))

	f := rootC.PersistentFlags().Lookup("env-file")
	suite.Require().NotNil(f)
	suite.Equal("env file (fallbacks to: {$PWD,$PWD/.myapp,$HOME/.myapp}/.env)", f.Usage)
	suite.Contains(f.Annotations, cobra.BashCompFilenameExt)
	suite.Equal("env-file", rootC.Annotations[flagEnvFileAnnotation])
}

func (suite *envalidSuite) TestSetupEnvFile_CustomFlagName() {
	rootC := &cobra.Command{Use: "myapp"}

	suite.Require().NoError(SetupEnvFile(rootC, config.Options{FlagName: "dotenv"}))

	suite.NotNil(rootC.PersistentFlags().Lookup("dotenv"))
	suite.Nil(rootC.PersistentFlags().Lookup("env-file"))
}

func (suite *envalidSuite) TestSetupReport_RootOnly() {
	rootC := &cobra.Command{Use: "myapp"}
	subC := &cobra.Command{Use: "sub"}
	rootC.AddCommand(subC)

	err := SetupReport(subC, report.Options{})
	suite.ErrorContains(err, "SetupReport must be called on the root command")
}

func (suite *envalidSuite) TestSetupReport_Flag() {
	rootC := &cobra.Command{Use: "myapp"}

	suite.Require().NoError(SetupReport(rootC, report.Options{}))

	f := rootC.PersistentFlags().Lookup("report")
	suite.Require().NotNil(f)
	suite.Equal("box", f.Value.String())
	suite.Contains(f.Usage, "{box,plain,json}")
	suite.Equal(report.Box, ReportFormat(rootC))
}

func (suite *envalidSuite) TestValidateCommand_PrintsTheReport() {
	rootC, out := suite.createApp(map[string]string{})
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"serve"})

	err := rootC.Execute()

	var cfgErr *ConfigurationError
	suite.Require().True(errors.As(err, &cfgErr))
	suite.Equal([]string{"database_url", "api_key"}, cfgErr.MissingFields())

	suite.Contains(out.String(), "┌")
	suite.Contains(out.String(), "✗ DATABASE_URL (missing)")
	suite.Contains(out.String(), "✗ API_KEY (missing)")
	suite.NotContains(out.String(), "Error:")
	suite.NotContains(out.String(), "Usage:")
}

func (suite *envalidSuite) TestValidateCommand_ReportFormatFromFlag() {
	rootC, out := suite.createApp(map[string]string{})
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"serve", "--report", "json"})

	suite.Error(rootC.Execute())

	var doc struct {
		Title         string   `json:"title"`
		MissingFields []string `json:"missing_fields"`
	}
	suite.Require().NoError(json.Unmarshal(out.Bytes(), &doc))
	suite.Equal([]string{"database_url", "api_key"}, doc.MissingFields)
}

func (suite *envalidSuite) TestValidateCommand_ReportFormatFromEnv() {
	suite.T().Setenv("MYAPP_REPORT", "plain")

	rootC, out := suite.createApp(map[string]string{})
	suite.Require().NoError(SetupReport(rootC, report.Options{Title: "MYAPP SETTINGS", Hint: "See the README"}))
	rootC.SetArgs([]string{"serve"})

	suite.Error(rootC.Execute())

	suite.Contains(out.String(), "MYAPP SETTINGS\n")
	suite.Contains(out.String(), "  ✗ DATABASE_URL (missing)\n")
	suite.Contains(out.String(), "See the README\n")
	suite.NotContains(out.String(), "┌")
}

func (suite *envalidSuite) TestValidateCommand_FlagWinsOverEnv() {
	suite.T().Setenv("MYAPP_REPORT", "json")

	rootC, out := suite.createApp(map[string]string{})
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"serve", "--report", "plain"})

	suite.Error(rootC.Execute())

	suite.Contains(out.String(), "  ✗ API_KEY (missing)\n")
	suite.NotContains(out.String(), "{")
}

func (suite *envalidSuite) TestValidateCommand_EnvFileFlag() {
	suite.Require().NoError(afero.WriteFile(suite.fs, "/app/custom.env", []byte("DATABASE_URL=postgres://file/app\nAPI_KEY=secret\nPORT=7000\n"), 0o644))

	rootC, out := suite.createApp(map[string]string{})
	suite.Require().NoError(SetupEnvFile(rootC, config.Options{}))
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"serve", "--env-file", "/app/custom.env"})

	suite.Require().NoError(rootC.Execute())
	suite.Equal("listening on 7000\n", out.String())
}

func (suite *envalidSuite) TestValidateCommand_EnvFileDiscovery() {
	suite.Require().NoError(afero.WriteFile(suite.fs, "/srv/myapp/.env", []byte("DATABASE_URL=postgres://file/app\nAPI_KEY=secret\n"), 0o644))

	rootC, out := suite.createApp(map[string]string{"PORT": "7001"})
	suite.Require().NoError(SetupEnvFile(rootC, config.Options{
		SearchPaths: []config.SearchPathType{config.SearchPathCustom},
		CustomPaths: []string{"/srv/{APP}"},
	}))
	rootC.SetArgs([]string{"serve"})

	suite.Require().NoError(rootC.Execute())
	suite.Equal("listening on 7001\n", out.String())
}

func (suite *envalidSuite) TestValidateCommand_WithoutReportSetup() {
	rootC, out := suite.createApp(map[string]string{"DATABASE_URL": "postgres://localhost/app"})
	rootC.SetArgs([]string{"serve"})

	err := rootC.Execute()

	var cfgErr *ConfigurationError
	suite.Require().True(errors.As(err, &cfgErr))
	suite.Contains(out.String(), "Error:")
	suite.Contains(out.String(), "API_KEY (missing)")
}

func (suite *envalidSuite) TestSetupReport_OtherErrorsReachCobra() {
	rootC := &cobra.Command{Use: "myapp"}
	rootC.AddCommand(&cobra.Command{
		Use: "fail",
		RunE: func(c *cobra.Command, args []string) error {
			return errors.New("boom")
		},
	})
	var out bytes.Buffer
	rootC.SetOut(&out)
	rootC.SetErr(&out)
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"fail"})

	err := rootC.Execute()

	suite.EqualError(err, "boom")
	suite.Contains(out.String(), "Error: boom")
}

func (suite *envalidSuite) TestSetupReport_WrapsPersistentPreRunE() {
	rootC := &cobra.Command{
		Use: "myapp",
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			_, err := ValidateCommand[appSettings](c, WithSettings(settings.WithEnvironment(map[string]string{})))

			return err
		},
	}
	ran := false
	rootC.AddCommand(&cobra.Command{
		Use: "sub",
		RunE: func(c *cobra.Command, args []string) error {
			ran = true

			return nil
		},
	})
	var out bytes.Buffer
	rootC.SetOut(&out)
	rootC.SetErr(&out)
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"sub"})

	err := rootC.Execute()

	suite.Error(err)
	suite.False(ran)
	suite.Contains(out.String(), "DATABASE_URL (missing)")
	suite.NotContains(out.String(), "Error:")
}

func (suite *envalidSuite) TestSetupReport_KeepsTheReturnedError() {
	rootC := &cobra.Command{Use: "myapp"}
	var returned error
	rootC.AddCommand(&cobra.Command{
		Use: "serve",
		RunE: func(c *cobra.Command, args []string) error {
			_, err := ValidateCommand[appSettings](c, WithSettings(settings.WithEnvironment(map[string]string{})))
			returned = fmt.Errorf("serve: %w", err)

			return returned
		},
	})
	var out bytes.Buffer
	rootC.SetOut(&out)
	rootC.SetErr(&out)
	suite.Require().NoError(SetupReport(rootC, report.Options{}))
	rootC.SetArgs([]string{"serve"})

	err := rootC.Execute()

	suite.Same(returned, err)
	var cfgErr *ConfigurationError
	suite.Require().True(errors.As(err, &cfgErr))
	suite.Equal([]string{"database_url", "api_key"}, cfgErr.MissingFields())
	suite.Contains(out.String(), "DATABASE_URL (missing)")
	suite.NotContains(out.String(), "Error:")
}
