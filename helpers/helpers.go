// Copyright © 2017 Intel Corporation
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

// Package helpers holds small process- and filesystem-level utilities
// shared by the adapter packages (compress, diff, sign) that shell out
// to external tools and by the core builder's hardlink-fallback path.
package helpers

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CopyFileWithOptions copies a file, overwriting the destination if it exists, and allows
// options to be set for following links, syncing to disk, or preserving file permissions.
//
// Used by the distribution builder as the hardlink fallback on hosts (or
// filesystems) where os.Link fails, e.g. across device boundaries.
func CopyFileWithOptions(dest, src string, resolveLinks, sync, useSrcPerms bool) error {
	return copyFileWithFlags(dest, src, os.O_RDWR|os.O_CREATE|os.O_TRUNC, resolveLinks, sync, useSrcPerms)
}

func copyFileWithFlags(dest, src string, flags int, resolveLinks, sync, useSrcPerms bool) error {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !resolveLinks && (srcInfo.Mode()&os.ModeSymlink) == os.ModeSymlink {
		srcLink, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(srcLink, dest)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = source.Close()
	}()

	var perms os.FileMode
	if useSrcPerms {
		perms = srcInfo.Mode()
	} else {
		perms = 0666
	}

	destination, err := os.OpenFile(dest, flags, perms)
	if err != nil {
		return err
	}
	defer func() {
		_ = destination.Close()
	}()

	_, err = io.Copy(destination, source)
	if err != nil {
		return err
	}

	if sync {
		err = destination.Sync()
		if err != nil {
			return err
		}
	}

	return nil
}

// RunCommandSilent runs the given command with args and does not print output.
func RunCommandSilent(cmdname string, args ...string) error {
	_, err := RunCommandOutput(cmdname, args...)
	return err
}

// RunCommandTimeout runs the given command with a timeout (in seconds; 0 means no
// timeout) and does not print command output.
func RunCommandTimeout(timeout int, cmdname string, args ...string) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, cmdname, args...)
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return errors.Errorf("command %s timed out", cmdname)
	}

	return err
}

// RunCommandOutput executes the command with arguments and stores its output in
// memory. If the command succeeds returns that output; if it fails, the returned
// error contains both the out and err streams from the execution.
func RunCommandOutput(cmdname string, args ...string) (*bytes.Buffer, error) {
	return RunCommandOutputInput(nil, cmdname, args...)
}

// RunCommandOutputInput is like RunCommandOutput but also feeds stdin from an
// io.Reader. Used by adapters (e.g. the external bzip2 compressor) that pipe
// file contents through an external process.
func RunCommandOutputInput(in io.Reader, cmdname string, args ...string) (*bytes.Buffer, error) {
	cmd := exec.Command(cmdname, args...)
	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdin = in
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runError := cmd.Run()

	if runError != nil {
		var buf bytes.Buffer
		logger := log.New(&buf, "", log.Ldate|log.Ltime)
		logger.Printf("failed to execute %s", strings.Join(cmd.Args, " "))
		if outBuf.Len() > 0 {
			logger.Printf("\nSTDOUT:\n%s", outBuf.Bytes())
		}
		if errBuf.Len() > 0 {
			logger.Printf("\nSTDERR:\n%s", errBuf.Bytes())
		}
		return &outBuf, errors.Wrap(runError, buf.String())
	}
	return &outBuf, nil
}
