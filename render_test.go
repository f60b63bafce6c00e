package envalid

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	envaliderrors "github.com/leodido/envalid/errors"
	"github.com/leodido/envalid/report"
)

func (suite *envalidSuite) TestRender_Formats() {
	backendErr := &fakeBackendError{entries: []Entry{
		{Location: []string{"database_url"}, Kind: "missing"},
		{Location: []string{"port"}, Kind: "int_parsing"},
	}}

	suite.Run("box", func() {
		var buf bytes.Buffer
		suite.Require().NoError(Render(&buf, backendErr, report.Box))

		suite.Contains(buf.String(), "┌")
		suite.Contains(buf.String(), "✗ DATABASE_URL (missing)")
		suite.Contains(buf.String(), "! PORT (int_parsing)")
	})

	suite.Run("plain", func() {
		var buf bytes.Buffer
		suite.Require().NoError(Render(&buf, backendErr, report.Plain, WithTitle("DATABASE ERROR")))

		suite.True(strings.HasPrefix(buf.String(), "DATABASE ERROR\n"))
		suite.NotContains(buf.String(), "┌")
	})

	suite.Run("json", func() {
		var buf bytes.Buffer
		suite.Require().NoError(Render(&buf, backendErr, report.JSON))

		var doc map[string]any
		suite.Require().NoError(json.Unmarshal(buf.Bytes(), &doc))
		suite.Equal([]any{"database_url"}, doc["missing_fields"])
	})
}

func (suite *envalidSuite) TestRender_OtherErrors() {
	boom := errors.New("boom")

	var buf bytes.Buffer
	suite.Require().NoError(Render(&buf, boom, report.Box))
	suite.Equal("boom\n", buf.String())

	buf.Reset()
	suite.Require().NoError(Render(&buf, boom, report.JSON))
	suite.JSONEq(`{"error": "boom"}`, buf.String())
}

func (suite *envalidSuite) TestFprint_DefaultsToEightyColumns() {
	cfgErr := envaliderrors.NewConfigurationError([]Issue{{Field: "api_key", Kind: "missing"}})

	var buf bytes.Buffer
	suite.Require().NoError(Fprint(&buf, cfgErr))

	lines := strings.Split(strings.Trim(buf.String(), "\n"), "\n")
	suite.Require().NotEmpty(lines)
	suite.Equal(76, utf8.RuneCountInString(lines[0]))
	suite.Equal(cfgErr.Error(), buf.String())
}

func (suite *envalidSuite) TestFprint_ExplicitWidth() {
	cfgErr := envaliderrors.NewConfigurationError([]Issue{{Field: "api_key", Kind: "missing"}})

	var buf bytes.Buffer
	suite.Require().NoError(Fprint(&buf, cfgErr, WithWidth(40)))

	lines := strings.Split(strings.Trim(buf.String(), "\n"), "\n")
	suite.Equal(36, utf8.RuneCountInString(lines[0]))
}

func (suite *envalidSuite) TestRender_NilError() {
	var buf bytes.Buffer
	suite.Require().NoError(Render(&buf, nil, report.Box))
	suite.Empty(buf.String())
}
