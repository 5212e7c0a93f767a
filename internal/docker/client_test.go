package docker

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []Command
	stdins   []string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) error {
	f.commands = append(f.commands, cmd)
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		f.stdins = append(f.stdins, string(data))
	} else {
		f.stdins = append(f.stdins, "")
	}
	return f.err
}

func newTestClient(runner Runner) *Client {
	return NewClientWithRunner(runner, zerolog.Nop())
}

func TestBuild(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	err := client.Build(context.Background(), BuildOptions{
		ContextDir: "/src/app",
		Dockerfile: "Dockerfile.prod",
		Tag:        "name-tracker:v1",
		BuildArgs: map[string]string{
			"VERSION": "v1",
			"COMMIT":  "abc123",
		},
	})
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)

	cmd := runner.commands[0]
	assert.Equal(t, "docker", cmd.Name)
	assert.Equal(t, []string{
		"build", "-t", "name-tracker:v1",
		"-f", "Dockerfile.prod",
		"--build-arg", "COMMIT=abc123",
		"--build-arg", "VERSION=v1",
		"/src/app",
	}, cmd.Args)
}

func TestBuildWithoutDockerfile(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	err := client.Build(context.Background(), BuildOptions{
		ContextDir: ".",
		Tag:        "name-tracker:latest",
	})
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, []string{"build", "-t", "name-tracker:latest", "."}, runner.commands[0].Args)
}

func TestTagAndPush(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)
	ctx := context.Background()

	remote := "123456789012.dkr.ecr.us-east-1.amazonaws.com/name-tracker:v1"
	require.NoError(t, client.Tag(ctx, "name-tracker:v1", remote))
	require.NoError(t, client.Push(ctx, remote))

	require.Len(t, runner.commands, 2)
	assert.Equal(t, []string{"tag", "name-tracker:v1", remote}, runner.commands[0].Args)
	assert.Equal(t, []string{"push", remote}, runner.commands[1].Args)
}

func TestLoginPasswordOverStdin(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	err := client.Login(context.Background(), "123456789012.dkr.ecr.us-east-1.amazonaws.com", "AWS", "s3cret")
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)

	cmd := runner.commands[0]
	assert.Equal(t, []string{
		"login", "--username", "AWS", "--password-stdin",
		"123456789012.dkr.ecr.us-east-1.amazonaws.com",
	}, cmd.Args)
	assert.Equal(t, "s3cret", runner.stdins[0], "password travels over stdin, not argv")
	assert.NotContains(t, cmd.Args, "s3cret")
}

func TestBuildPropagatesRunnerError(t *testing.T) {
	runner := &fakeRunner{err: &ExitError{Command: "docker", Code: 1}}
	client := newTestClient(runner)

	err := client.Build(context.Background(), BuildOptions{ContextDir: ".", Tag: "x:y"})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestExecRunnerExitCode(t *testing.T) {
	runner := ExecRunner{}

	err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestExecRunnerSuccess(t *testing.T) {
	runner := ExecRunner{}
	err := runner.Run(context.Background(), Command{Name: "true"})
	assert.NoError(t, err)
}

func TestExecRunnerCancellation(t *testing.T) {
	runner := ExecRunner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, Command{Name: "sleep", Args: []string{"60"}})
	}()
	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
