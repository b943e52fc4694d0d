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

// Package sign holds pixiepatch.Signer implementations. OpenSSL shells out
// to the external openssl binary to produce and verify an opaque S/MIME
// (PKCS#7) signature over the manifest bytes.
package sign

import (
	"os"
	"path/filepath"

	"github.com/dgym/pixiepatch/helpers"
	"github.com/pkg/errors"
)

// OpenSSL signs and verifies manifests with "openssl smime", producing an
// opaque DER-encoded PKCS#7 structure that embeds the original content, so
// a verified signature alone is enough to recover the manifest bytes.
type OpenSSL struct {
	// Cert is the path to the signer's certificate (PEM).
	Cert string
	// Key is the path to the signer's private key (PEM). Required by Sign.
	Key string
	// CAFile, if set, is passed as -CAfile to verification so the
	// signer's certificate is checked against a trust root. If empty,
	// verification runs with -noverify (the certificate embedded in the
	// signature is trusted as-is, matching a self-signed setup).
	CAFile string
}

// Sign implements pixiepatch.Signer.
func (o OpenSSL) Sign(data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pixiepatch-sign-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir for signing")
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	in := filepath.Join(dir, "manifest")
	out := filepath.Join(dir, "manifest.p7s")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, errors.Wrap(err, "failed to stage manifest for signing")
	}

	if err := helpers.RunCommandSilent("openssl", "smime", "-sign", "-binary", "-nodetach",
		"-in", in, "-signer", o.Cert, "-inkey", o.Key,
		"-outform", "DER", "-out", out); err != nil {
		return nil, errors.Wrap(err, "failed to sign manifest")
	}

	return os.ReadFile(out)
}

// Verify implements pixiepatch.Signer.
func (o OpenSSL) Verify(data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pixiepatch-verify-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir for verification")
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	in := filepath.Join(dir, "manifest.p7s")
	out := filepath.Join(dir, "manifest")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, errors.Wrap(err, "failed to stage signature for verification")
	}

	args := []string{"smime", "-verify", "-inform", "DER", "-in", in, "-out", out}
	if o.CAFile != "" {
		args = append(args, "-CAfile", o.CAFile)
	} else {
		args = append(args, "-noverify")
	}

	if err := helpers.RunCommandSilent("openssl", args...); err != nil {
		return nil, errors.Wrap(err, "manifest signature verification failed")
	}

	return os.ReadFile(out)
}
