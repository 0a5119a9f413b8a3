package config

import "fmt"

// ConfigInterface is the contract every config section satisfies: it can
// validate itself and fill in its own defaults. validateNamed and
// setDefaultsNamed use it to apply both steps uniformly across the named
// sections of a Config (llms, agents, teams, evals) without repeating the
// same loop four times.
type ConfigInterface interface {
	Validate() error
	SetDefaults()
}

// validateNamed runs Validate on every entry of a named section map,
// wrapping the first failure with the section kind and key so errors read
// "agent \"researcher\": ..." rather than a bare field complaint.
func validateNamed[T any, PT interface {
	*T
	ConfigInterface
}](kind string, items map[string]T) error {
	for name, item := range items {
		item := item
		if err := PT(&item).Validate(); err != nil {
			return errNamed(kind, name, err)
		}
	}
	return nil
}

// setDefaultsNamed runs SetDefaults on every entry of a named section map
// and writes the (possibly mutated) result back, since map values are not
// addressable in place.
func setDefaultsNamed[T any, PT interface {
	*T
	ConfigInterface
}](items map[string]T) {
	for name, item := range items {
		item := item
		PT(&item).SetDefaults()
		items[name] = item
	}
}

func errNamed(kind, name string, err error) error {
	return fmt.Errorf("%s %q: %w", kind, name, err)
}
