//go:build mage

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/magellan/internal/container"
)

// Cluster manages a single-node search cluster container for local work.
type Cluster mg.Namespace

const containerName = "magellan-es"

// Up starts the cluster container. MAGELLAN_ES_IMAGE overrides the image and
// MAGELLAN_PORT the host port (default 9200).
func (Cluster) Up() error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}

	port := 9200
	if p := os.Getenv("MAGELLAN_PORT"); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return fmt.Errorf("MAGELLAN_PORT: %w", err)
		}
	}

	node := container.ClusterNode(containerName, os.Getenv("MAGELLAN_ES_IMAGE"), port)
	if err := rt.ImageExists(node.Image); err != nil && mg.Verbose() {
		fmt.Printf("%v; %s will pull it\n", err, rt.Name())
	}
	if err := rt.Start(node); err != nil {
		return err
	}
	fmt.Printf("Cluster starting on http://localhost:%d (%s)\n", port, rt.Name())
	return nil
}

// Down stops and removes the cluster container.
func (Cluster) Down() error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	return rt.Remove(containerName)
}

// Logs prints the cluster container logs.
func (Cluster) Logs() error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	return rt.Logs(containerName, os.Stdout)
}

// Init builds the CLI and creates the indices on the local cluster, skipping
// any that exist.
func (Cluster) Init() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "--log-format", "console", "init", "--skip-existing")
}
