// Copyright © 2020 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsForPath(t *testing.T) {
	var c Config
	c.LoadDefaultsForPath("/base")

	if c.Distribution.SourceDir != filepath.Join("/base", "source") {
		t.Errorf("unexpected SourceDir: %s", c.Distribution.SourceDir)
	}
	if c.Compress.Algorithm != "gzip" {
		t.Errorf("unexpected default compress algorithm: %s", c.Compress.Algorithm)
	}
	if c.Diff.Algorithm != "bsdiff" {
		t.Errorf("unexpected default diff algorithm: %s", c.Diff.Algorithm)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "pixiepatch.conf")

	var c Config
	c.LoadDefaultsForPath(dir)
	c.filename = filename
	c.Reader.Root = filepath.Join(dir, "www")

	if err := c.SaveConfig(); err != nil {
		t.Fatal(err)
	}

	var loaded Config
	loaded.filename = filename
	if err := loaded.Parse(); err != nil {
		t.Fatal(err)
	}

	if loaded.Distribution.SourceDir != c.Distribution.SourceDir {
		t.Errorf("SourceDir not round-tripped: got %s, want %s", loaded.Distribution.SourceDir, c.Distribution.SourceDir)
	}
	if loaded.Reader.Root != c.Reader.Root {
		t.Errorf("Reader.Root not round-tripped: got %s, want %s", loaded.Reader.Root, c.Reader.Root)
	}
}

func TestLoadConfigMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "pixiepatch.conf")
	if err := os.WriteFile(filename, []byte("[Compress]\nALGORITHM = \"gzip\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var c Config
	if err := c.LoadConfig(filename); err == nil {
		t.Fatal("expected an error for missing required fields")
	}
}

func TestLoadConfigValid(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "pixiepatch.conf")
	contents := `
[Distribution]
SOURCE_DIR = "/src"
TARGET_DIR = "/dst"
`
	if err := os.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	var c Config
	if err := c.LoadConfig(filename); err != nil {
		t.Fatal(err)
	}
	if c.Distribution.SourceDir != "/src" || c.Distribution.TargetDir != "/dst" {
		t.Errorf("unexpected distribution config: %+v", c.Distribution)
	}
}
