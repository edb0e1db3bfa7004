package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// DefaultActivation is used by organisms that do not name an activation.
const DefaultActivation = "identity"

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
)

// ActivationFunc squashes a neuron's accumulated input into its output.
type ActivationFunc func(x float64) float64

var activationRegistry = struct {
	mu      sync.RWMutex
	m       map[string]ActivationFunc
	aliases map[string]string
}{
	m:       make(map[string]ActivationFunc),
	aliases: make(map[string]string),
}

func init() {
	initializeBuiltInActivations()
}

func initializeBuiltInActivations() {
	MustRegisterActivation("identity", func(x float64) float64 { return x })
	MustRegisterActivation("relu", func(x float64) float64 {
		if x < 0 {
			return 0
		}
		return x
	})
	MustRegisterActivation("tanh", math.Tanh)
	MustRegisterActivation("sigmoid", func(x float64) float64 {
		return 1.0 / (1.0 + math.Exp(-x))
	})

	activationRegistry.mu.Lock()
	activationRegistry.aliases["linear"] = "identity"
	activationRegistry.aliases["none"] = "identity"
	activationRegistry.aliases["logistic"] = "sigmoid"
	activationRegistry.mu.Unlock()
}

func RegisterActivation(name string, fn ActivationFunc) error {
	name = normalizeActivationName(name)
	if name == "" {
		return errors.New("activation name is required")
	}
	if fn == nil {
		return errors.New("activation function is required")
	}

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, name)
	}
	if _, exists := activationRegistry.aliases[name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, name)
	}
	activationRegistry.m[name] = fn
	return nil
}

func MustRegisterActivation(name string, fn ActivationFunc) {
	if err := RegisterActivation(name, fn); err != nil {
		panic(err)
	}
}

// GetActivation resolves name, or an alias of it, to a registered function.
// The empty name resolves to DefaultActivation.
func GetActivation(name string) (ActivationFunc, error) {
	name = normalizeActivationName(name)
	if name == "" {
		name = DefaultActivation
	}

	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	if target, ok := activationRegistry.aliases[name]; ok {
		name = target
	}
	fn, ok := activationRegistry.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return fn, nil
}

func ListActivations() []string {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	names := make([]string, 0, len(activationRegistry.m))
	for name := range activationRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeActivationName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.m = make(map[string]ActivationFunc)
	activationRegistry.aliases = make(map[string]string)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
