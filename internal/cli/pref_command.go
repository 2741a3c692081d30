package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"faderkey.app/internal/config"
	"faderkey.app/internal/prefs"
)

// prefKeys are the persisted preference keys and their value kinds.
var prefKeys = map[string]string{
	"step_percent":         "float",
	"gain_allowed":         "bool",
	"keep_minimized":       "bool",
	"audible_feedback":     "bool",
	"force_direct_monitor": "bool",
}

// keyActions are the controller actions a media key can be bound to.
var keyActions = map[string]bool{
	"volume-up":      true,
	"volume-down":    true,
	"toggle-mute":    true,
	"toggle-monitor": true,
}

func openPrefs() (*prefs.Store, error) {
	store, err := prefs.Open(config.PrefsPath())
	if err != nil {
		return nil, fmt.Errorf("cannot open preferences: %w", err)
	}
	return store, nil
}

func newPrefCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pref",
		Short: "Read and write persisted preferences",
		Long: "Preferences override the config file and survive restarts.\n" +
			"Keys: step_percent, gain_allowed, keep_minimized, audible_feedback, force_direct_monitor.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Persist a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			kind, ok := prefKeys[key]
			if !ok {
				return fmt.Errorf("unknown preference key %q", key)
			}

			switch kind {
			case "float":
				if _, err := strconv.ParseFloat(value, 64); err != nil {
					return fmt.Errorf("%s wants a number, got %q", key, value)
				}
			case "bool":
				if _, err := strconv.ParseBool(value); err != nil {
					return fmt.Errorf("%s wants true or false, got %q", key, value)
				}
			}

			store, err := openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Set(key, value); err != nil {
				return err
			}
			cmd.Printf("%s = %s\n", key, value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Show a persisted preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, ok := prefKeys[key]; !ok {
				return fmt.Errorf("unknown preference key %q", key)
			}

			store, err := openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()

			value, err := store.Get(key)
			if errors.Is(err, prefs.ErrNotFound) {
				cmd.Printf("%s is not set\n", key)
				return nil
			}
			if err != nil {
				return err
			}
			cmd.Printf("%s = %s\n", key, value)
			return nil
		},
	})

	return cmd
}

func newShortcutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcut",
		Short: "Bind media keys to controller actions",
		Long: "Rebinds a hardware key code to a controller action for the running\n" +
			"key service. Actions: volume-up, volume-down, toggle-mute, toggle-monitor.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set ACTION KEYCODE [MODIFIERS]",
		Short: "Bind a key code to an action",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := args[0]
			if !keyActions[action] {
				return fmt.Errorf("unknown action %q", action)
			}
			keyCode, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid key code %q: %w", args[1], err)
			}
			modifiers := 0
			if len(args) == 3 {
				modifiers, err = strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid modifier mask %q: %w", args[2], err)
				}
			}

			store, err := openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveShortcut(prefs.Shortcut{
				Action:    action,
				KeyCode:   keyCode,
				Modifiers: modifiers,
			}); err != nil {
				return err
			}
			cmd.Printf("%s bound to key %d\n", action, keyCode)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded key bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()

			shortcuts, err := store.Shortcuts()
			if err != nil {
				return err
			}
			if len(shortcuts) == 0 {
				cmd.Println("no key bindings recorded")
				return nil
			}
			for _, sc := range shortcuts {
				cmd.Printf("%-16s key %d modifiers %d\n", sc.Action, sc.KeyCode, sc.Modifiers)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ACTION",
		Short: "Remove a recorded key binding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteShortcut(args[0]); err != nil {
				return err
			}
			cmd.Printf("removed binding for %s\n", args[0])
			return nil
		},
	})

	return cmd
}
