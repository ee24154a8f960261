package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const healthReport = `{"SourceId":"watchdog","Property":"Disk","Extra":true,"HealthState":"Warning","SequenceNumber":"10"}`

// run executes fabricctl with args and stdin, returning stdout
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvArchivePath, t.TempDir())
	t.Setenv(config.EnvLogLevel, "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTypesCommand(t *testing.T) {
	out, err := run(t, "", "types")
	require.NoError(t, err)

	assert.Contains(t, out, "health-information")
	assert.Contains(t, out, "fabric-event")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "service-description ") {
			assert.True(t, strings.HasSuffix(line, "Stateless,Stateful"), line)
		}
	}
}

func TestConvertCommand(t *testing.T) {
	out, err := run(t, healthReport, "convert", "--type", "health-information")
	require.NoError(t, err)
	assert.Equal(t,
		`{"SourceId":"watchdog","Property":"Disk","HealthState":"Warning","SequenceNumber":"10"}`+"\n", out)
}

func TestConvertCommandYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	yamlDoc := "SourceId: watchdog\nProperty: Disk\nHealthState: Warning\nSequenceNumber: \"10\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0600))

	out, err := run(t, "", "convert", "-t", "health-information", "-f", path)
	require.NoError(t, err)
	assert.Equal(t,
		`{"SourceId":"watchdog","Property":"Disk","HealthState":"Warning","SequenceNumber":"10"}`+"\n", out)
}

func TestConvertCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code apierror.Code
	}{
		{
			name: "unknown type",
			args: []string{"convert", "--type", "cluster-manifest"},
			code: apierror.CodeNotFound,
		},
		{
			name: "unknown input format",
			args: []string{"convert", "--type", "health-information", "--input", "toml"},
			code: apierror.CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, healthReport, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, apierror.CodeOf(err))
		})
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, healthReport, "validate", "--type", "health-information")
	require.NoError(t, err)
	assert.Equal(t, "valid health-information\n", out)

	out, err = run(t, `{"Property":"Disk","HealthState":"Ok"}`, "validate", "--type", "health-information")
	require.Error(t, err)
	assert.Equal(t, "invalid health-information: MissingRequiredField\n", out)
	assert.Equal(t, 2, exitCode(err))
}

func TestFilterCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"filter", "--value", "12"}, "12: Warning,Error\n"},
		{[]string{"filter", "--value", "0"}, "0: Ok,Warning,Error\n"},
		{[]string{"filter", "--value", "1"}, "1: none\n"},
		{[]string{"filter", "--value", "0", "--state", "Ok"}, "0 selects Ok\n"},
		{[]string{"filter", "--value", "4", "--state", "Ok"}, "4 does not select Ok\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := run(t, "", "filter", "--value", "2", "--state", "Sideways")
	assert.Equal(t, apierror.CodeInvalidArgument, apierror.CodeOf(err))
}

func TestArchiveCommands(t *testing.T) {
	dir := t.TempDir()
	execute := func(stdin string, args ...string) (string, error) {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}
	t.Setenv(config.EnvArchivePath, dir)
	t.Setenv(config.EnvLogLevel, "error")

	out, err := execute(healthReport, "archive", "put", "--type", "health-information", "--key", "disk")
	require.NoError(t, err)
	assert.Equal(t, "✓ Stored health-information/disk\n", out)

	out, err = execute("", "archive", "get", "health-information", "disk")
	require.NoError(t, err)
	assert.Equal(t,
		`{"SourceId":"watchdog","Property":"Disk","HealthState":"Warning","SequenceNumber":"10"}`+"\n", out)

	out, err = execute("", "archive", "list", "health-information")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "disk\t"), out)

	_, err = execute("", "archive", "delete", "health-information", "disk")
	require.NoError(t, err)

	_, err = execute("", "archive", "get", "health-information", "disk")
	assert.Equal(t, apierror.CodeNotFound, apierror.CodeOf(err))

	out, err = execute("", "archive", "list", "health-information")
	require.NoError(t, err)
	assert.Equal(t, "No health-information records\n", out)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(apierror.MalformedValue("R", "F", nil)))
	assert.Equal(t, 1, exitCode(apierror.NewCode("gone", apierror.CodeNotFound, false)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestInvalidLogLevelFlag(t *testing.T) {
	_, err := run(t, "", "--log-level", "verbose", "types")
	assert.Error(t, err)
}
