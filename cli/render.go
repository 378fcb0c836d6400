// ABOUTME: Terminal rendering for run summaries, plans, and status
// ABOUTME: Styles are lipgloss; output degrades to plain text off a terminal
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactsync/db"
	"github.com/harperreed/contactsync/notion"
	"github.com/harperreed/contactsync/sync"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(24)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func row(s *strings.Builder, label string, value any) {
	s.WriteString(labelStyle.Render(label))
	s.WriteString(fmt.Sprint(value))
	s.WriteString("\n")
}

// renderSummary formats the statistics of a run.
func renderSummary(stats *sync.Stats) string {
	var s strings.Builder

	title := "Sync complete"
	if stats.DryRun {
		title = "Dry run (nothing written)"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString(mutedStyle.Render(fmt.Sprintf("  mode %s, %s", stats.Mode, stats.Duration().Round(time.Millisecond))))
	s.WriteString("\n\n")

	if stats.Mode != sync.ModeNotionOnly {
		s.WriteString(headerStyle.Render("Google → Notion"))
		s.WriteString("\n")
		row(&s, "Created", stats.Created)
		row(&s, "Updated", stats.Updated)
		row(&s, "Excluded", stats.Excluded)
		row(&s, "Invalid", stats.Invalid)
		for _, kind := range sync.SortedMatchKinds(stats.Matches) {
			row(&s, "Matched by "+kind.String(), stats.Matches[kind])
		}
		if stats.Ambiguous > 0 {
			row(&s, "Ambiguous", warnStyle.Render(fmt.Sprint(stats.Ambiguous)))
		}
		s.WriteString("\n")
	}

	if stats.Mode != sync.ModeGoogleOnly {
		s.WriteString(headerStyle.Render("Notion → Google"))
		s.WriteString("\n")
		row(&s, "Birthdays retracted", stats.Retracted)
		row(&s, "Already retracted", stats.RetractUnchanged)
		row(&s, "Unlinked rows", stats.Unlinked)
		s.WriteString("\n")
	}

	if stats.Canceled > 0 {
		row(&s, "Canceled", warnStyle.Render(fmt.Sprint(stats.Canceled)))
	}
	if len(stats.Errors) == 0 {
		s.WriteString(okStyle.Render("✓ No errors"))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %d errors", len(stats.Errors))))
	s.WriteString("\n")
	for _, err := range stats.Errors {
		s.WriteString("  ")
		s.WriteString(errorStyle.Render(err.Error()))
		s.WriteString("\n")
	}
	return s.String()
}

// renderPlan lists the writes a dry run would perform.
func renderPlan(plan *sync.Plan) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("Planned writes (%d google, %d notion records read)", plan.PrimaryCount, plan.SecondaryCount)))
	s.WriteString("\n")

	instructions := plan.Instructions()
	if len(instructions) == 0 {
		s.WriteString(mutedStyle.Render("Nothing to do."))
		s.WriteString("\n")
		return s.String()
	}

	for _, in := range instructions {
		line := fmt.Sprintf("  %-16s %-32s", in.Action, in.Name)
		if in.Action == sync.ActionUpdate {
			line += " by " + in.Kind.String()
			if len(in.Changes) > 0 {
				line += " [" + strings.Join(in.Changes, ", ") + "]"
			} else {
				line += " (no field changes)"
			}
		}
		if in.Ambiguous {
			line += " " + warnStyle.Render("ambiguous")
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return s.String()
}

// renderStatus shows the Notion tally and recent run history.
func renderStatus(w io.Writer, sum notion.Summary, states []*db.SyncState, runs []db.Run) {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Contact Sync Status"))
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render("Notion database"))
	s.WriteString("\n")
	row(&s, "Rows", sum.Total)
	row(&s, "Linked to Google", sum.Linked)
	row(&s, "Manual rows", sum.Manual)
	row(&s, "With birthday", sum.WithBirthday)
	row(&s, "Hide birthday", sum.HideBirthday)
	s.WriteString("\n")

	if len(states) > 0 {
		s.WriteString(headerStyle.Render("Directions"))
		s.WriteString("\n")
		for _, st := range states {
			last := "never"
			if st.LastSyncTime != nil {
				last = formatTimeSince(*st.LastSyncTime)
			}
			status := okStyle.Render(st.Status)
			if st.Status == "error" {
				status = errorStyle.Render(st.Status)
				if st.ErrorMessage != nil {
					status += " " + mutedStyle.Render(*st.ErrorMessage)
				}
			} else if st.Status == "syncing" {
				status = warnStyle.Render(st.Status)
			}
			row(&s, st.Direction, fmt.Sprintf("%s, last synced %s", status, last))
		}
		s.WriteString("\n")
	}

	s.WriteString(headerStyle.Render("Recent runs"))
	s.WriteString("\n")
	if len(runs) == 0 {
		s.WriteString(mutedStyle.Render("No runs recorded yet. Run 'contactsync sync' to start."))
		s.WriteString("\n")
	}
	for _, r := range runs {
		status := okStyle.Render(r.Status)
		switch r.Status {
		case "failed":
			status = errorStyle.Render(r.Status)
		case "partial", "canceled":
			status = warnStyle.Render(r.Status)
		}
		fmt.Fprintf(&s, "  %s  %-8s %-12s created %d, updated %d, retracted %d, errors %d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), status, r.Mode,
			r.Created, r.Updated, r.Retracted, r.Errors)
	}

	_, _ = io.WriteString(w, s.String())
}

// formatTimeSince formats a time as "X ago"
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
