// Package id generates identifiers for invocations that do not come from the Lambda runtime.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PrefixInvocation marks request ids minted by the local ingress.
const PrefixInvocation = "inv"

// alphabet keeps ids lower-case so they read like runtime request ids in logs.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const size = 20

// Generate returns prefix-<20 random lower-case alphanumerics>.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Invocation returns a request id for an event received over HTTP.
// It panics only when the system has no entropy left.
func Invocation() string {
	id, err := Generate(PrefixInvocation)
	if err != nil {
		panic(fmt.Sprintf("failed to generate invocation id: %v", err))
	}
	return id
}
