// Package testutil provides shared environment helpers for the live E2E
// suite. It depends only on stdlib so that e2e (which cannot import
// internal/) can use it.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// AllowedGroupsEnv lists the project IDs E2E tests may touch, comma separated.
const AllowedGroupsEnv = "APPSERVICES_ALLOWED_TEST_GROUPS"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	f, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// RequireAllowedGroup exits the process unless the project named by
// groupEnvVar appears in APPSERVICES_ALLOWED_TEST_GROUPS. E2E runs create
// and delete resources, so they must never reach an unlisted project.
func RequireAllowedGroup(groupEnvVar string) string {
	allowlist := os.Getenv(AllowedGroupsEnv)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", AllowedGroupsEnv)
		os.Exit(1)
	}

	group := os.Getenv(groupEnvVar)
	if group == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", groupEnvVar)
		os.Exit(1)
	}

	allowed := strings.Split(allowlist, ",")
	for i := range allowed {
		allowed[i] = strings.TrimSpace(allowed[i])
	}

	if !slices.Contains(allowed, group) {
		fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", groupEnvVar, group, AllowedGroupsEnv, allowlist)
		os.Exit(1)
	}

	return group
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
