package app

// App is an integration descriptor: a stable key plus the ordered catalogs
// of trigger and action commands the integration provides. Apps are built at
// process start and never mutated afterwards.
type App struct {
	Key         string
	Name        string
	Description string
	AuthFields  []SetupField
	Triggers    []Command
	Actions     []Command
}

// TriggerByKey returns the trigger command with the given key, or nil.
func (a *App) TriggerByKey(key string) Command {
	return commandByKey(a.Triggers, key)
}

// ActionByKey returns the action command with the given key, or nil.
func (a *App) ActionByKey(key string) Command {
	return commandByKey(a.Actions, key)
}

// CommandByKey selects the catalog for the given type and scans it for key.
func (a *App) CommandByKey(commandType CommandType, key string) Command {
	if commandType == CommandTypeTrigger {
		return a.TriggerByKey(key)
	}

	return a.ActionByKey(key)
}

func commandByKey(commands []Command, key string) Command {
	if key == "" {
		return nil
	}

	for _, cmd := range commands {
		if cmd.Key() == key {
			return cmd
		}
	}

	return nil
}
