package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/casualjim/pitwall/internal/registry"
)

// ErrUnknownProvider is returned by Open for a name nothing registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Settings are the connection details handed to a Factory.
type Settings struct {
	APIKey  string
	BaseURL string
}

type Factory func(context.Context, Settings) (Provider, error)

var factories = registry.New[Factory]()

// Register makes a backend available to Open. Registering a name again
// replaces the previous factory.
func Register(name string, factory Factory) {
	factories.Add(name, factory)
}

func Open(ctx context.Context, name string, settings Settings) (Provider, error) {
	factory, ok := factories.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return factory(ctx, settings)
}

// Names lists the registered backends in alphabetical order.
func Names() []string {
	names := factories.Keys()
	slices.Sort(names)
	return names
}
