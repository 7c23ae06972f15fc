// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs the single-node search cluster used for local
// development and manual testing. It shells out to docker, or to podman when
// docker is not available.
package container

import (
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// DefaultImage is the cluster image started when none is given.
const DefaultImage = "docker.elastic.co/elasticsearch/elasticsearch:8.17.1"

// Container describes a detached container to start.
type Container struct {
	Name  string
	Image string

	// Ports are host:container port mappings, e.g. "9200:9200".
	Ports []string
	Env   map[string]string
}

// args returns the run arguments for c. Env entries are sorted by key.
func (c Container) args() []string {
	args := []string{"run", "-d", "--name", c.Name}
	for _, p := range c.Ports {
		args = append(args, "-p", p)
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+c.Env[k])
	}
	return append(args, c.Image)
}

// ClusterNode returns a single-node cluster container on hostPort with
// security disabled and a 1g heap.
func ClusterNode(name, image string, hostPort int) Container {
	if image == "" {
		image = DefaultImage
	}
	return Container{
		Name:  name,
		Image: image,
		Ports: []string{fmt.Sprintf("%d:9200", hostPort)},
		Env: map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms1g -Xmx1g",
		},
	}
}

// Runtime provides the container operations the dev cluster needs.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	ImageExists(image string) error

	// Start runs c detached.
	Start(c Container) error

	// Remove force-removes the named container.
	Remove(name string) error

	// Logs copies the named container's logs to w.
	Logs(name string, w io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunOutput(name string, args []string, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunOutput(name string, args []string, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stdout
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman differ only in binary name and the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Start(c Container) error {
	if c.Name == "" || c.Image == "" {
		return fmt.Errorf("container needs a name and an image")
	}
	var out strings.Builder
	if err := r.exec.RunOutput(r.bin, c.args(), &out); err != nil {
		return fmt.Errorf("starting %s container %s: %w: %s", r.bin, c.Name, err, strings.TrimSpace(out.String()))
	}
	return nil
}

func (r *runtime) Remove(name string) error {
	if err := r.exec.RunSilent(r.bin, "rm", "-f", name); err != nil {
		return fmt.Errorf("removing %s container %s: %w", r.bin, name, err)
	}
	return nil
}

func (r *runtime) Logs(name string, w io.Writer) error {
	if err := r.exec.RunOutput(r.bin, []string{"logs", name}, w); err != nil {
		return fmt.Errorf("reading logs of %s: %w", name, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
