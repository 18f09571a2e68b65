// Package testutil provides shared fixtures for package tests
package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"sync"
	"testing"
)

var (
	keyOnce sync.Once
	rsaKey  *rsa.PrivateKey
	keyErr  error
)

// RSAKey returns a process-wide 2048-bit test key
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		rsaKey, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("failed to generate RSA key: %v", keyErr)
	}
	return rsaKey
}

// PKCS8PEM returns the test key armored as "PRIVATE KEY"
func PKCS8PEM(t testing.TB) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(RSAKey(t))
	if err != nil {
		t.Fatalf("failed to marshal PKCS8 key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// EscapedPEM returns the PEM with real newlines replaced by literal "\n",
// the way keys look after passing through a single-line env var
func EscapedPEM(t testing.TB) string {
	t.Helper()
	return strings.ReplaceAll(PKCS8PEM(t), "\n", `\n`)
}

// PKCS1PEM returns the test key in the legacy "RSA PRIVATE KEY" encoding
func PKCS1PEM(t testing.TB) string {
	t.Helper()
	der := x509.MarshalPKCS1PrivateKey(RSAKey(t))
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

// ECDSAPEM returns a PKCS8 key that is valid but not RSA
func ECDSAPEM(t testing.TB) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate ECDSA key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal ECDSA key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}
