package fmu

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samuelfneumann/modym/environment/envconfig"
)

// Loader constructs a Model for a configuration
type Loader func(c envconfig.Config, logger *slog.Logger) (Model, error)

// Registered model loaders. Once a Loader has been registered with this
// map, configurations whose model path names it can be loaded.
var registeredModels = make(map[string]Loader)

// Register registers a Loader under a model name. Model packages
// register themselves in their init functions.
func Register(name string, l Loader) {
	if _, ok := registeredModels[name]; ok {
		panic(fmt.Sprintf("register: model %v registered twice", name))
	}
	registeredModels[name] = l
}

// Registered returns the names of all registered models in sorted order
func Registered() []string {
	names := make([]string, 0, len(registeredModels))
	for name := range registeredModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load constructs the Model named by the configuration's model path
func Load(c envconfig.Config, logger *slog.Logger) (Model, error) {
	name := ModelID(c.ModelPath)
	loader, ok := registeredModels[name]
	if !ok {
		return nil, fmt.Errorf("load: %w %q (registered: %v)", ErrUnknownModel,
			name, Registered())
	}

	m, err := loader(c, logger)
	if err != nil {
		return nil, fmt.Errorf("load: could not load model %v: %w", name, err)
	}
	return m, nil
}

// ModelID returns the registry name of the model at path: its base name
// without extension and without a trailing _CS or _ME mode suffix.
// For example, "models/ModelicaGym_CartPole_CS.fmu" has the ID
// "ModelicaGym_CartPole".
func ModelID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, mode := range []envconfig.Mode{envconfig.CoSimulation,
		envconfig.ModelExchange} {
		base = strings.TrimSuffix(base, "_"+string(mode))
	}
	return base
}
