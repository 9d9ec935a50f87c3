package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/codedrill/drill/internal/domain"
)

// DockerConfig holds Docker runner configuration.
type DockerConfig struct {
	Image    string
	MemoryMB int
	CPULimit float64
}

// DockerRunner executes learner code in a one-shot container. Each run
// gets a fresh container with no network, bounded memory and CPU; the
// container is force-removed afterwards whatever happened inside.
type DockerRunner struct {
	client    *client.Client
	image     string
	memoryMB  int
	cpuLimit  float64
	maxOutput int
}

// NewDockerRunner creates a Docker-backed runner and verifies the daemon
// is reachable.
func NewDockerRunner(cfg DockerConfig) (*DockerRunner, error) {
	if cfg.Image == "" {
		cfg.Image = "python:3.12-alpine"
	}
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 128
	}
	if cfg.CPULimit == 0 {
		cfg.CPULimit = 0.5
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: create docker client: %v", domain.ErrSandboxUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: docker not reachable: %v", domain.ErrSandboxUnavailable, err)
	}

	return &DockerRunner{
		client:    cli,
		image:     cfg.Image,
		memoryMB:  cfg.MemoryMB,
		cpuLimit:  cfg.CPULimit,
		maxOutput: MaxOutputBytes,
	}, nil
}

// Run executes the snippet in a fresh container bounded by timeout.
func (r *DockerRunner) Run(ctx context.Context, code string, timeout time.Duration) (*RunResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := r.ensureImage(ctx); err != nil {
		return nil, fmt.Errorf("%w: ensure image: %v", domain.ErrSandboxUnavailable, err)
	}

	containerCfg := &container.Config{
		Image:           r.image,
		Cmd:             []string{"python3", "/workspace/main.py"},
		WorkingDir:      "/workspace",
		NetworkDisabled: true,
		Tty:             false,
		Labels: map[string]string{
			"drill.sandbox": "true",
		},
	}
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:   int64(r.memoryMB) * 1024 * 1024,
			NanoCPUs: int64(r.cpuLimit * 1e9),
		},
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{"/workspace": "rw,size=8m"},
	}

	resp, err := r.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("%w: create container: %v", domain.ErrSandboxUnavailable, err)
	}
	defer func() {
		// Detached context: removal must happen even when ctx is done.
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.client.ContainerRemove(rmCtx, resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := r.copyFiles(ctx, resp.ID, map[string]string{"main.py": code}); err != nil {
		return nil, fmt.Errorf("%w: copy snippet: %v", domain.ErrSandboxUnavailable, err)
	}

	start := time.Now()
	if err := r.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("%w: start container: %v", domain.ErrSandboxUnavailable, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	waitCh, errCh := r.client.ContainerWait(runCtx, resp.ID, container.WaitConditionNotRunning)

	select {
	case <-runCtx.Done():
		// Force removal in the deferred cleanup kills the process.
		stdout, stderr := r.collectLogs(resp.ID)
		res := &RunResult{
			Stdout:   stdout,
			Stderr:   stderr,
			Duration: time.Since(start),
		}
		if ctx.Err() == nil {
			res.TimedOut = true
			return res, nil
		}
		return res, ctx.Err()

	case err := <-errCh:
		return nil, fmt.Errorf("%w: wait container: %v", domain.ErrSandboxUnavailable, err)

	case status := <-waitCh:
		stdout, stderr := r.collectLogs(resp.ID)
		exit := int(status.StatusCode)
		return &RunResult{
			Stdout:   stdout,
			Stderr:   stderr,
			ExitCode: &exit,
			Duration: time.Since(start),
		}, nil
	}
}

// Close closes the Docker client.
func (r *DockerRunner) Close() error {
	return r.client.Close()
}

func (r *DockerRunner) ensureImage(ctx context.Context) error {
	_, err := r.client.ImageInspect(ctx, r.image)
	if err == nil {
		return nil
	}

	reader, err := r.client.ImagePull(ctx, r.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", r.image, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (r *DockerRunner) copyFiles(ctx context.Context, containerID string, files map[string]string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return fmt.Errorf("write tar content: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	return r.client.CopyToContainer(ctx, containerID, "/workspace", &buf, container.CopyToContainerOptions{})
}

// collectLogs reads whatever the container produced, on a detached
// context so partial output survives a timeout.
func (r *DockerRunner) collectLogs(containerID string) (stdout, stderr string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reader, err := r.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", ""
	}
	defer reader.Close()

	raw, _ := io.ReadAll(io.LimitReader(reader, int64(r.maxOutput)*2))
	return demuxOutput(raw)
}

// demuxOutput separates Docker multiplexed stdout/stderr streams.
// Docker stream protocol uses 8-byte headers: [type][0][0][0][size1][size2][size3][size4]
// type: 1=stdout, 2=stderr
func demuxOutput(data []byte) (stdout, stderr string) {
	var outBuf, errBuf strings.Builder

	for len(data) >= 8 {
		streamType := data[0]
		size := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
		data = data[8:]

		if size > len(data) {
			size = len(data)
		}

		chunk := string(data[:size])
		data = data[size:]

		switch streamType {
		case 1:
			outBuf.WriteString(chunk)
		case 2:
			errBuf.WriteString(chunk)
		}
	}

	if outBuf.Len() == 0 && errBuf.Len() == 0 && len(data) > 0 {
		return string(data), ""
	}

	return outBuf.String(), errBuf.String()
}

var _ Runner = (*DockerRunner)(nil)
