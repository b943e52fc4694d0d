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

// Package config loads the TOML configuration file used by the pixiepatch
// CLI to build distributions and to fetch and apply patch plans.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config represents the parameters found in a pixiepatch config file.
type Config struct {
	Distribution distributionConf
	Compress     compressConf
	Diff         diffConf
	Sign         signConf
	Reader       readerConf

	/* hidden properties */
	filename string
}

type distributionConf struct {
	SourceDir       string `required:"true" toml:"SOURCE_DIR"`
	TargetDir       string `required:"true" toml:"TARGET_DIR"`
	Version         string `required:"false" toml:"VERSION"`
	PreviousVersion string `required:"false" toml:"PREVIOUS_VERSION"`
	// ArchiveExtensions names which of the built-in archive handlers
	// ("zip", "tar", "tgz") to mount inside the source tree. LoadDefaults
	// lists all three; an empty list mounts none.
	ArchiveExtensions []string `required:"false" toml:"ARCHIVE_EXTENSIONS"`
	// IgnorePatterns lists prefix-anchored regular expressions (matched
	// like Python's re.match) of source-relative paths to exclude from
	// the distribution, passed to Engine.RegisterIgnorePattern.
	IgnorePatterns []string `required:"false" toml:"IGNORE_PATTERNS"`
}

type compressConf struct {
	// Algorithm selects the Compressor: "identity", "gzip", "xz", "zstd" or "bzip2".
	Algorithm string `required:"false" toml:"ALGORITHM"`
}

type diffConf struct {
	// Algorithm selects the Differ: "identity" or "bsdiff".
	Algorithm string `required:"false" toml:"ALGORITHM"`
	Timeout   int    `required:"false" toml:"TIMEOUT"`
}

type signConf struct {
	Cert   string `required:"false" toml:"CERT"`
	Key    string `required:"false" toml:"KEY"`
	CAFile string `required:"false" toml:"CA_FILE"`
}

type readerConf struct {
	// BaseURL, if set, configures an HTTP reader. BucketURL, if set,
	// configures an S3 reader ("s3://bucket/prefix?region=..."). Root,
	// if set (and neither of the above is), configures a local reader.
	BaseURL   string `required:"false" toml:"BASE_URL"`
	BucketURL string `required:"false" toml:"BUCKET_URL"`
	Root      string `required:"false" toml:"ROOT"`
}

// LoadDefaults sets sane values for the config properties, rooted at the
// current working directory.
func (c *Config) LoadDefaults() error {
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	c.LoadDefaultsForPath(pwd)
	return nil
}

// LoadDefaultsForPath sets sane values for config properties using path as
// the base directory.
func (c *Config) LoadDefaultsForPath(path string) {
	c.Distribution.SourceDir = filepath.Join(path, "source")
	c.Distribution.TargetDir = filepath.Join(path, "www")
	c.Distribution.ArchiveExtensions = []string{"zip", "tar", "tgz"}

	c.Compress.Algorithm = "gzip"
	c.Diff.Algorithm = "bsdiff"
	c.Diff.Timeout = 480

	c.Sign.Cert = filepath.Join(path, "pixiepatch.pem")
	c.Sign.Key = filepath.Join(path, "pixiepatch.key.pem")

	c.Reader.Root = filepath.Join(path, "www")

	c.filename = filepath.Join(path, "pixiepatch.conf")
}

// LoadConfig loads a configuration file from the given path, or, if
// filename is empty, from "pixiepatch.conf" in the current directory.
func (c *Config) LoadConfig(filename string) error {
	if err := c.initConfigPath(filename); err != nil {
		return err
	}
	if err := c.Parse(); err != nil {
		return err
	}
	return c.validate()
}

// Parse reads the values from the config file without performing validation.
func (c *Config) Parse() error {
	_, err := toml.DecodeFile(c.filename, c)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", c.filename)
	}
	return nil
}

// SaveConfig writes c to its configured filename as TOML.
func (c *Config) SaveConfig() error {
	w, err := os.OpenFile(c.filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()

	enc := toml.NewEncoder(w)
	return enc.Encode(c)
}

// Print prints the configuration as TOML to stdout.
func (c *Config) Print() error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}

func (c *Config) validate() error {
	rv := reflect.ValueOf(c).Elem()
	for i := 0; i < rv.NumField(); i++ {
		sectionV := rv.Field(i)
		if !sectionV.CanSet() {
			continue
		}
		sectionT := sectionV.Type()
		for j := 0; j < sectionT.NumField(); j++ {
			tag, ok := sectionT.Field(j).Tag.Lookup("required")
			if ok && tag == "true" && sectionV.Field(j).String() == "" {
				name, ok := sectionT.Field(j).Tag.Lookup("toml")
				if !ok || name == "" {
					name = sectionT.Field(j).Name
				}
				return errors.Errorf("missing required field in config file: %s.%s", sectionT.Name(), name)
			}
		}
	}
	return nil
}

func (c *Config) initConfigPath(path string) error {
	if path != "" {
		c.filename = path
		return nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	c.filename = filepath.Join(pwd, "pixiepatch.conf")
	return nil
}

// GetConfigFileName returns the filename the config was (or will be) loaded from.
func (c *Config) GetConfigFileName() string {
	return c.filename
}
