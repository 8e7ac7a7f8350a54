// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads contact details for the metadata providers from a
// directory of plain-text files and from a .env file.
//
// In the directory each file is one secret: the filename is the key name and
// the trimmed contents are the value. Supported key files: crossref-mailto,
// user-agent.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/delanoflipse/pretty-bib/internal/logging"
)

// Key file names.
const (
	KeyMailto    = "crossref-mailto"
	KeyUserAgent = "user-agent"
)

// envKeys maps .env variables onto key file names.
var envKeys = map[string]string{
	"PRETTYBIB_MAILTO":     KeyMailto,
	"PRETTYBIB_USER_AGENT": KeyUserAgent,
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings and skipped.
func Load(dir string, logger *log.Logger) (map[string]string, error) {
	logger = logging.OrDiscard(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv reads the .env file at path and returns the recognised values
// under their key file names. A missing file yields an empty map.
func LoadEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	out := make(map[string]string)
	for envName, key := range envKeys {
		if v := strings.TrimSpace(vars[envName]); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

// LoadAll merges the secrets directory with the .env file. Values from the
// directory win; the .env file only fills gaps.
func LoadAll(dir, envPath string, logger *log.Logger) (map[string]string, error) {
	secrets, err := Load(dir, logger)
	if err != nil {
		return nil, err
	}
	env, err := LoadEnv(envPath)
	if err != nil {
		return nil, err
	}
	for k, v := range env {
		if _, ok := secrets[k]; !ok {
			secrets[k] = v
		}
	}
	return secrets, nil
}
