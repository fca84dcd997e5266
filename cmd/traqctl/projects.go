package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hmahadik/traq/internal/domain/project"
)

func projectsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and manage projects",
	}
	cmd.AddCommand(projectsListCmd(c), projectsShowCmd(c), projectsCreateCmd(c), projectsDeleteCmd(c))
	return cmd
}

func projectsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects with pattern and activity counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := c.app.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if projects == nil {
				projects = []project.ProjectSummary{}
			}
			return c.emit(cmd.OutOrStdout(), projects, func(w io.Writer) { renderProjects(w, projects) })
		},
	}
}

func projectsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its detection patterns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), p, func(w io.Writer) { renderProject(w, p) })
		},
	}
}

func projectsCreateCmd(c *cli) *cobra.Command {
	var colorHex, description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Projects.Create(cmd.Context(), project.CreateRequest{
				Name:        args[0],
				Color:       colorHex,
				Description: description,
				IsManual:    true,
			})
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "%s created project %s %s\n", successColor.Sprint("✓"), p.Name, dimColor.Sprint(p.ID))
			})
		},
	}

	cmd.Flags().StringVar(&colorHex, "color", "", "Hex color like #3B82F6 (default from palette)")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	return cmd
}

func projectsDeleteCmd(c *cli) *cobra.Command {
	var reassignTo string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project, clearing or moving its activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target *string
			if reassignTo != "" {
				target = &reassignTo
			}
			res, err := c.app.Projects.Delete(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "%s deleted project %s\n", successColor.Sprint("✓"), res.ProjectID)
				if res.ReassignTo != nil {
					fmt.Fprintf(w, "  moved %s rows to %s\n", humanize.Comma(res.Reassigned), *res.ReassignTo)
					return
				}
				fmt.Fprintf(w, "  cleared %s rows\n", humanize.Comma(res.Cleared))
			})
		},
	}

	cmd.Flags().StringVar(&reassignTo, "reassign-to", "", "Move activity to this project instead of clearing it")
	return cmd
}

func patternsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage project detection patterns",
		Long: `Manage the patterns that drive automatic assignment.

Pattern types: app, window-title, git-repo, domain, file-path, branch
Match types:   exact, contains, prefix, suffix, regex, glob

Examples:
  traqctl patterns list <project-id>
  traqctl patterns add <project-id> git-repo traq --match contains
  traqctl patterns add <project-id> file-path "~/src/traq/**" --match glob --weight 1.5
  traqctl patterns delete <pattern-id>`,
	}
	cmd.AddCommand(patternsListCmd(c), patternsAddCmd(c), patternsDeleteCmd(c))
	return cmd
}

func patternsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's patterns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := c.app.Projects.ListPatterns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if patterns == nil {
				patterns = []project.Pattern{}
			}
			return c.emit(cmd.OutOrStdout(), patterns, func(w io.Writer) { renderPatterns(w, patterns) })
		},
	}
}

func patternsAddCmd(c *cli) *cobra.Command {
	var (
		match  string
		weight float64
	)

	cmd := &cobra.Command{
		Use:   "add <project-id> <type> <value>",
		Short: "Add a detection pattern",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Projects.AddPattern(cmd.Context(), project.PatternInput{
				ProjectID:    args[0],
				PatternType:  project.PatternType(args[1]),
				PatternValue: args[2],
				MatchType:    project.MatchType(match),
				Weight:       weight,
			})
			if err != nil {
				return err
			}
			c.app.Engine.Invalidate()
			return c.emit(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "%s added pattern %s\n", successColor.Sprint("✓"), dimColor.Sprint(p.ID))
			})
		},
	}

	cmd.Flags().StringVar(&match, "match", string(project.MatchContains), "Match type")
	cmd.Flags().Float64Var(&weight, "weight", 1, "Pattern weight")
	return cmd
}

func patternsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a detection pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Projects.DeletePattern(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.app.Engine.Invalidate()
			return c.emit(cmd.OutOrStdout(), map[string]bool{"ok": true}, func(w io.Writer) {
				fmt.Fprintf(w, "%s deleted pattern %s\n", successColor.Sprint("✓"), args[0])
			})
		},
	}
}

func renderProjects(w io.Writer, projects []project.ProjectSummary) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects")
		return
	}
	fmt.Fprintln(w, titleColor.Sprint("Projects"))
	fmt.Fprintln(w, rule)
	for _, p := range projects {
		kind := "auto"
		if p.IsManual {
			kind = "manual"
		}
		fmt.Fprintf(w, "  %-24s %s patterns  %s rows  %s\n",
			p.Name,
			humanize.Comma(int64(p.PatternCount)),
			humanize.Comma(int64(p.ActivityCount)),
			dimColor.Sprintf("%s %s %s", kind, p.ID, humanize.Time(p.CreatedAt)))
	}
}

func renderProject(w io.Writer, p *project.Project) {
	fmt.Fprintln(w, titleColor.Sprint(p.Name))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  id       %s\n", p.ID)
	fmt.Fprintf(w, "  color    %s\n", p.Color)
	if p.Description != "" {
		fmt.Fprintf(w, "  about    %s\n", p.Description)
	}
	fmt.Fprintf(w, "  created  %s\n", humanize.Time(p.CreatedAt))
	fmt.Fprintln(w)
	renderPatterns(w, p.DetectionPatterns)
}

func renderPatterns(w io.Writer, patterns []project.Pattern) {
	if len(patterns) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("  no patterns"))
		return
	}
	for _, pat := range patterns {
		used := "never used"
		if pat.LastUsedAt != nil {
			used = "used " + humanize.Time(*pat.LastUsedAt)
		}
		fmt.Fprintf(w, "  %-12s %-8s %-30q w=%.2f hits=%s  %s\n",
			pat.PatternType, pat.MatchType, pat.PatternValue, pat.Weight,
			humanize.Comma(pat.HitCount), dimColor.Sprintf("%s %s", pat.ID, used))
	}
}
