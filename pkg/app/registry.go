package app

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/stack360co/automatisch/pkg/models"
)

// Registry is the process-wide catalog of apps, keyed by app key. It is
// populated once during startup and read-only afterwards, so lookups are
// safe for unsynchronized concurrent use.
type Registry struct {
	logger *slog.Logger
	apps   map[string]*App
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		apps:   make(map[string]*App),
	}
}

// RegisterApp adds an app to the catalog. Registration happens during
// process startup only; duplicate keys are a wiring mistake.
func (r *Registry) RegisterApp(app *App) error {
	if app.Key == "" {
		return fmt.Errorf("app registration: %w", ErrEmptyAppKey)
	}

	if _, exists := r.apps[app.Key]; exists {
		return fmt.Errorf("app %q: %w", app.Key, ErrDuplicateAppKey)
	}

	r.apps[app.Key] = app
	r.logger.Debug("Registered app",
		"app", app.Key,
		"triggers", len(app.Triggers),
		"actions", len(app.Actions))

	return nil
}

// FindAppByKey returns the app registered under key, or nil when the key is
// empty or unknown. Absence is not an error: a step not yet bound to an app
// is a normal state.
func (r *Registry) FindAppByKey(key string) *App {
	if key == "" {
		return nil
	}

	return r.apps[key]
}

// ResolveCommand binds an (appKey, commandType, commandKey) triple to the
// concrete command, or returns nil for every absence case: unset app key,
// unknown app, unset command key, no matching command. Resolution is always
// computed fresh so registry contents take effect for existing steps
// immediately.
func (r *Registry) ResolveCommand(appKey string, commandType CommandType, commandKey string) Command {
	app := r.FindAppByKey(appKey)
	if app == nil {
		return nil
	}

	return app.CommandByKey(commandType, commandKey)
}

// ResolveStepCommand resolves a step's own app/command binding using the
// step's type.
func (r *Registry) ResolveStepCommand(step *models.Step) Command {
	commandType := CommandTypeAction
	if step.IsTrigger() {
		commandType = CommandTypeTrigger
	}

	return r.ResolveCommand(step.AppKeyValue(), commandType, step.KeyValue())
}

// Apps returns all registered apps sorted by key.
func (r *Registry) Apps() []*App {
	apps := make([]*App, 0, len(r.apps))
	for _, app := range r.apps {
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Key < apps[j].Key })

	return apps
}
