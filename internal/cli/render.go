package cli

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/enduro/internal/race"
	"github.com/roach88/enduro/internal/telemetry"
)

// statusView is the JSON payload for status-style output. The telemetry
// snapshot already carries every derived timing, so the CLI and the MQTT
// feed stay in lock step.
func statusView(s race.State, now time.Time) telemetry.Snapshot {
	return telemetry.BuildSnapshot(s, now)
}

// renderStatus renders the human-readable status block.
func renderStatus(s race.State, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Phase:    %s\n", s.CurrentPhase())
	if name := s.Config.DriverName(s.CurrentDriverID); name != "" {
		fmt.Fprintf(&b, "Driver:   %s (stint %d of %d)\n",
			name, len(s.CompletedStints)+1, len(s.Config.StintSequence))
	}

	if s.StintStartTime != nil {
		line := fmt.Sprintf("Stint:    %s elapsed, %s remaining",
			formatClock(race.StintElapsed(s, now)),
			formatClock(race.StintRemaining(s, now)))
		if eta := race.StintETA(s); eta != nil {
			line += fmt.Sprintf(" (ETA %s)", eta.UTC().Format("15:04:05"))
		}
		b.WriteString(line + "\n")
	}

	if s.PracticeActive {
		fmt.Fprintf(&b, "Practice: %s remaining\n", formatClock(race.PracticeRemaining(s, now)))
	}

	fmt.Fprintf(&b, "Race:     %s elapsed, %s remaining\n",
		formatClock(race.RaceElapsed(s, now)),
		formatClock(race.RaceRemaining(s, now)))

	fuel := fmt.Sprintf("Fuel:     %s remaining (%d%%)",
		formatClock(race.FuelRemaining(s, now)),
		int(math.Round(race.FuelLevel(s, now)*100)))
	if s.FuelAlertActive {
		fuel += "  ** LOW FUEL **"
	}
	b.WriteString(fuel + "\n")

	if next := race.NextCheckup(s, now); next != nil {
		fmt.Fprintf(&b, "Checkup:  next at %s\n", next.UTC().Format("15:04:05"))
	}
	if s.Config.OfficialStart != nil && !s.RaceActive && !s.RaceCompleted {
		fmt.Fprintf(&b, "Start:    official %s\n", s.Config.OfficialStart.UTC().Format("15:04:05"))
	}
	return b.String()
}

// renderReport renders the completed-stint table for one epoch.
func renderReport(epoch int, stints []race.CompletedStint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stint log (race %d)\n", epoch)

	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDRIVER\tSTART\tEND\tDURATION\tPLANNED\tREFUEL")
	for _, st := range stints {
		planned := "-"
		if st.PlannedMinutes != nil {
			planned = formatMinutes(*st.PlannedMinutes)
		}
		refuel := "-"
		if st.Refuelled {
			refuel = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			st.StintNumber,
			st.DriverName,
			st.StartTime.UTC().Format("15:04:05"),
			st.EndTime.UTC().Format("15:04:05"),
			formatClock(st.ActualDuration),
			planned,
			refuel,
		)
	}
	w.Flush()
	return b.String()
}

// renderConfig renders the human-readable configuration block.
func renderConfig(cfg race.Config) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Drivers:")
	for _, d := range cfg.Drivers {
		fmt.Fprintf(&b, "  %s  (%s)\n", d.Name, d.ID)
	}

	fmt.Fprintln(&b, "Stint sequence:")
	for i, entry := range cfg.StintSequence {
		planned := formatMinutes(cfg.FuelDurationMinutes)
		if entry.PlannedMinutes != nil {
			planned = formatMinutes(*entry.PlannedMinutes)
		}
		fmt.Fprintf(&b, "  %d. %s  %s\n", i+1, cfg.DriverName(entry.DriverID), planned)
	}

	fmt.Fprintf(&b, "Race duration:  %s\n", formatMinutes(cfg.RaceDurationMinutes))
	fmt.Fprintf(&b, "Fuel tank:      %s (warn below %s)\n",
		formatMinutes(cfg.FuelDurationMinutes), formatMinutes(cfg.FuelWarningMinutes))
	if cfg.PracticeConfigured() {
		fmt.Fprintf(&b, "Practice:       %s\n", formatMinutes(cfg.PracticeMinutes))
	}
	if cfg.CheckupMinutes > 0 {
		fmt.Fprintf(&b, "Checkup every:  %s\n", formatMinutes(cfg.CheckupMinutes))
	}
	if cfg.OfficialStart != nil {
		fmt.Fprintf(&b, "Official start: %s\n", cfg.OfficialStart.UTC().Format(time.RFC3339))
	}
	return b.String()
}

// formatClock renders a duration as H:MM:SS, truncated to whole seconds.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// formatMinutes renders a minutes quantity as H:MM:SS.
func formatMinutes(minutes float64) string {
	return formatClock(time.Duration(minutes * float64(time.Minute)))
}
