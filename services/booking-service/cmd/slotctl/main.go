// Command slotctl resolves bookable slots offline from a YAML schedule file
// and mints staff tokens for local runs.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var file string
	root := &cobra.Command{
		Use:           "slotctl",
		Short:         "Inspect a provider schedule without a running booking service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&file, "file", "f", "schedule.yaml", "schedule file path")
	root.AddCommand(newSlotsCommand(&file), newValidateCommand(&file), newTokenCommand())
	return root
}

func newSlotsCommand(file *string) *cobra.Command {
	var (
		date    string
		typeID  string
		nowFlag string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the bookable slots for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSchedule(*file)
			if err != nil {
				return err
			}
			day, err := time.ParseInLocation(model.DateLayout, date, s.Location)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD")
			}
			now := time.Now()
			if nowFlag != "" {
				if now, err = time.Parse(time.RFC3339, nowFlag); err != nil {
					return fmt.Errorf("--now must be RFC3339")
				}
			}
			q, err := s.query(day, typeID, now)
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), availability.ResolveSlots(q), s.Location, asJSON)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar day in the provider's zone (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typeID, "type", "", "appointment type id")
	cmd.Flags().StringVar(&nowFlag, "now", "", "evaluate as of this RFC3339 instant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newValidateCommand(file *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a schedule file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSchedule(*file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rules, %d types, %d busy intervals (%s)\n",
				len(s.Rules), len(s.Types), len(s.Busy), s.Location)
			return nil
		},
	}
}

func printSlots(w io.Writer, tiles []availability.Interval, loc *time.Location, asJSON bool) error {
	if asJSON {
		type slot struct {
			Start string `json:"start_time"`
			End   string `json:"end_time"`
		}
		out := make([]slot, 0, len(tiles))
		for _, t := range tiles {
			out = append(out, slot{Start: t.Start.UTC().Format(time.RFC3339), End: t.End.UTC().Format(time.RFC3339)})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(tiles) == 0 {
		_, err := fmt.Fprintln(w, "no slots")
		return err
	}
	for _, t := range tiles {
		if _, err := fmt.Fprintf(w, "%s-%s\n", t.Start.In(loc).Format("15:04"), t.End.In(loc).Format("15:04")); err != nil {
			return err
		}
	}
	return nil
}
