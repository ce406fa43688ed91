package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"gmaps2nav/service"
)

var pushOptions = service.Options{}

var pushCmd = &cobra.Command{
	Use:   "push <share-url>",
	Short: "Resolve a share link and push its navigation URL",
	Long: `Resolves the share link and sends the navigation URL as a Pushover
notification. Title, priority, sound and device default to the notify.*
settings. The outcome, including the relay's answer, is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.ValidateNotify(); err != nil {
			return err
		}

		out, err := newService(settings).ExpandAndPush(cmd.Context(), args[0], pushOptions)
		if err != nil {
			return fmt.Errorf("processing %s: %w", args[0], err)
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding outcome: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	flags := pushCmd.Flags()
	flags.StringVar(&pushOptions.Title, "title", "", "notification title")
	flags.StringVar(&pushOptions.Priority, "priority", "", "Pushover priority, -2 to 2")
	flags.StringVar(&pushOptions.Sound, "sound", "", "Pushover sound name")
	flags.StringVar(&pushOptions.Device, "device", "", "target device name")
}
