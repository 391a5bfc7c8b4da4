package main

import (
	"encoding/json"
	"fmt"
	"testlab/internal/events"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream change notifications from the server (admin only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		return r.http.WatchInvalidations(ctx, func(event events.Event) {
			r.query.HandleEvent(event)

			data, _ := json.Marshal(event.Data)
			fmt.Printf("%s\t%s\t%s\t%s\n",
				event.Timestamp.Format(time.RFC3339), event.Type, event.Action, data)
		})
	},
}
