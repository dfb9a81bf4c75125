// Package kernels provides attractiveness kernels for the firefly movement
// rule. A kernel maps the squared distance between two fireflies to the
// fraction beta of the gap that the dimmer one closes.
package kernels

import (
	"fmt"
	"math"
)

// Kernel represents an attractiveness function of squared distance
type Kernel interface {
	// Eval computes beta for the squared distance r2
	Eval(r2 float64) float64
}

// GaussianKernel implements beta = beta0 * exp(-gamma * r^2), the standard
// firefly attractiveness.
type GaussianKernel struct {
	// Attractiveness at zero distance
	beta0 float64
	// Light absorption coefficient (larger = more localized attraction)
	gamma float64
}

// NewGaussianKernel creates a new Gaussian kernel with the given parameters
func NewGaussianKernel(beta0, gamma float64) *GaussianKernel {
	if beta0 <= 0 {
		panic(fmt.Sprintf("beta0 must be positive, got %v", beta0))
	}
	if gamma < 0 {
		panic(fmt.Sprintf("gamma must be non-negative, got %v", gamma))
	}
	return &GaussianKernel{
		beta0: beta0,
		gamma: gamma,
	}
}

// Eval computes the Gaussian attractiveness for r2
func (k *GaussianKernel) Eval(r2 float64) float64 {
	return k.beta0 * math.Exp(-k.gamma*r2)
}

// InverseKernel implements beta = beta0 / (1 + gamma * r^2). It decays
// polynomially, so distant fireflies keep a noticeable pull.
type InverseKernel struct {
	beta0 float64
	gamma float64
}

// NewInverseKernel creates a new inverse-square kernel with the given parameters
func NewInverseKernel(beta0, gamma float64) *InverseKernel {
	if beta0 <= 0 {
		panic(fmt.Sprintf("beta0 must be positive, got %v", beta0))
	}
	if gamma < 0 {
		panic(fmt.Sprintf("gamma must be non-negative, got %v", gamma))
	}
	return &InverseKernel{
		beta0: beta0,
		gamma: gamma,
	}
}

// Eval computes the inverse-square attractiveness for r2
func (k *InverseKernel) Eval(r2 float64) float64 {
	return k.beta0 / (1.0 + k.gamma*r2)
}

// ByName returns the kernel registered under name ("gaussian" or "inverse").
func ByName(name string, beta0, gamma float64) (Kernel, error) {
	if beta0 <= 0 || gamma < 0 {
		return nil, fmt.Errorf("invalid kernel parameters beta0=%v gamma=%v", beta0, gamma)
	}
	switch name {
	case "", "gaussian":
		return NewGaussianKernel(beta0, gamma), nil
	case "inverse":
		return NewInverseKernel(beta0, gamma), nil
	default:
		return nil, fmt.Errorf("unknown kernel %q", name)
	}
}
