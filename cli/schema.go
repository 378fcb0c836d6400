// ABOUTME: init-schema and check-schema commands for the Notion database
// ABOUTME: Creates missing columns and reports type mismatches
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harperreed/contactsync/notion"
)

func newInitSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create any missing contact columns in the Notion database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newNotionStore(appFrom(cmd).cfg)
			if err != nil {
				return err
			}
			added, err := store.EnsureSchema(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(added) == 0 {
				fmt.Fprintln(out, okStyle.Render("✓ Schema already up to date"))
				return nil
			}
			fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ Added %d columns", len(added))))
			for _, name := range added {
				fmt.Fprintf(out, "  + %s\n", name)
			}
			return nil
		},
	}
}

func newCheckSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-schema",
		Short: "Compare the Notion database with the expected columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newNotionStore(appFrom(cmd).cfg)
			if err != nil {
				return err
			}
			report, err := store.DescribeSchema(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSchema(report))
			if len(report.Missing) > 0 {
				return fmt.Errorf("%d columns missing; run 'contactsync init-schema'", len(report.Missing))
			}
			return nil
		},
	}
}

func renderSchema(report *notion.SchemaReport) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Database: " + report.Title))
	s.WriteString("\n\n")
	s.WriteString(headerStyle.Render("Columns"))
	s.WriteString("\n")
	for _, col := range report.Columns {
		line := fmt.Sprintf("  %-20s %s", col.Name, col.Type)
		if col.Mismatch() {
			line += " " + errorStyle.Render("expected "+col.Expected)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	if len(report.Missing) > 0 {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Missing: " + strings.Join(report.Missing, ", ")))
		s.WriteString("\n")
	}
	if report.Sample != nil {
		c := notion.ContactFromPage(*report.Sample)
		s.WriteString("\n")
		s.WriteString(mutedStyle.Render(fmt.Sprintf("Sample row: %s (%d emails, %d phones)", c.FullName(), len(c.Emails), len(c.Phones))))
		s.WriteString("\n")
	}
	return s.String()
}
