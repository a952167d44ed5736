package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// WriteUser outputs the signed-in user, or a notice when nobody is signed in.
func WriteUser(user *schema.User, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, user)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		if user == nil {
			_, err := fmt.Fprintln(w, "Not signed in")
			return err
		}
		_, err := fmt.Fprintf(w, "%s <%s>\nID: %s\n", user.Username, user.Email, user.ID)
		return err
	}, "Wrote user")
}

// WritePreferences outputs preferences as JSON or one name=value per line.
func WritePreferences(prefs schema.Preferences, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, prefs)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "theme=%s\nunits=%s\nnotifications=%s\n",
			prefs.Theme, prefs.Units, strconv.FormatBool(prefs.Notifications))
		return err
	}, "Wrote preferences")
}
