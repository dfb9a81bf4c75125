package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunWritesPointFiles(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "run",
		"--fireflies", "12", "--iterations", "5",
		"--min-x", "-2", "--min-y", "-2", "--max-x", "2", "--max-y", "2",
		"--seed", "7", "--out-dir", dir, "--chart")
	require.NoError(t, err)
	assert.Contains(t, out, "best ")
	assert.Contains(t, out, "generations 5 converged false")

	for _, name := range []string{"start.dat", "end.dat", "swarm.html"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "end.dat"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 12)
}

func TestRunIsReproducibleWithSeed(t *testing.T) {
	read := func(dir string) string {
		data, err := os.ReadFile(filepath.Join(dir, "end.dat"))
		require.NoError(t, err)
		return string(data)
	}

	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		_, err := execute(t, "run", "-n", "10", "-t", "8", "--seed", "3", "--workers", "4", "-o", dir)
		require.NoError(t, err)
	}
	assert.Equal(t, read(a), read(b))
}

func TestRunVariantFlags(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "run", "-n", "10", "-t", "6", "--seed", "5",
		"--mode", "hybrid", "--kernel", "inverse", "--schedule", "log", "--alpha-floor", "0.05",
		"--scale-gamma", "--init", "lhs", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "generations 6 converged false")

	for _, name := range []string{"start.dat", "end.dat"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 10, name)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	tests := [][]string{
		{"run", "--fireflies", "0", "-o", "OUT"},
		{"run", "--iterations", "-1", "-o", "OUT"},
		{"run", "--min-x", "3", "--max-x", "3", "-o", "OUT"},
		{"run", "--objective", "rastrigin", "-o", "OUT"},
		{"run", "--mode", "levy", "-o", "OUT"},
		{"run", "--kernel", "cauchy", "-o", "OUT"},
		{"run", "--schedule", "linear", "-o", "OUT"},
		{"run", "--alpha-floor", "-1", "-o", "OUT"},
		{"run", "--init", "sobol", "-o", "OUT"},
		{"run", "--log-level", "chatty", "-o", "OUT"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args[1:3], " "), func(t *testing.T) {
			dir := t.TempDir()
			for i, a := range args {
				if a == "OUT" {
					args[i] = dir
				}
			}
			_, err := execute(t, args...)
			assert.Error(t, err)
			assert.NoFileExists(t, filepath.Join(dir, "start.dat"))
		})
	}
}

func TestObjectives(t *testing.T) {
	out, err := execute(t, "objectives")
	require.NoError(t, err)
	for _, name := range []string{"ackley", "dejong", "himmelblau", "rosenbrock", "sphere"} {
		assert.Contains(t, out, name)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "firefly version "+version+"\n", out)
}
