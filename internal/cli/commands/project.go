package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"harbormaster/internal/operations"
	"harbormaster/internal/types"

	"github.com/spf13/cobra"
)

// ProjectCommands creates the project management commands
func ProjectCommands(ops *operations.ProjectOperations) []*cobra.Command {
	commands := []*cobra.Command{}

	// harbormaster project add <name> <repo-url>
	addCmd := &cobra.Command{
		Use:   "add <name> <repo-url>",
		Short: "Register a project from a git repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, _ := cmd.Flags().GetString("branch")
			dockerfile, _ := cmd.Flags().GetString("dockerfile")
			composeFile, _ := cmd.Flags().GetString("compose-file")
			envPairs, _ := cmd.Flags().GetStringArray("env")

			envVars, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}

			project, err := ops.AddProject(cmd.Context(), operations.AddProjectRequest{
				Name:            args[0],
				RepoURL:         args[1],
				Branch:          branch,
				Dockerfile:      dockerfile,
				ComposeFile:     composeFile,
				EnvironmentVars: envVars,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Project %s added (%s)\n", project.Name, project.Status)
			return nil
		},
	}
	addCmd.Flags().StringP("branch", "b", "main", "Branch to clone")
	addCmd.Flags().String("dockerfile", "", "Dockerfile name (defaults to Dockerfile)")
	addCmd.Flags().String("compose-file", "", "Compose file name (defaults to conventional names)")
	addCmd.Flags().StringArrayP("env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	commands = append(commands, addCmd)

	// harbormaster project list
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List all registered projects",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := ops.ListProjects()
			if len(projects) == 0 {
				fmt.Println("No projects registered")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tBRANCH\tCONTAINERS\tPORTS")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					p.Name, p.Status, p.Branch, len(p.Containers), formatPorts(p.Ports))
			}
			return w.Flush()
		},
	}
	commands = append(commands, listCmd)

	// harbormaster project show <name>
	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one project in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ops.GetProject(args[0])
			if err != nil {
				return err
			}
			printProject(project)
			return nil
		},
	}
	commands = append(commands, showCmd)

	// harbormaster project sync <name>
	syncCmd := &cobra.Command{
		Use:   "sync <name>",
		Short: "Pull the latest changes for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := ops.SyncProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !summary.Updated() {
				fmt.Println("Already up to date")
				return nil
			}
			fmt.Printf("Updated: %d files changed, %d insertions, %d deletions\n",
				summary.FilesChanged, summary.Insertions, summary.Deletions)
			return nil
		},
	}
	commands = append(commands, syncCmd)

	// harbormaster project build <name>
	buildCmd := &cobra.Command{
		Use:   "build <name>",
		Short: "Build a project's images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ops.BuildProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Project %s built\n", project.Name)
			return nil
		},
	}
	commands = append(commands, buildCmd)

	// harbormaster project deploy <name>
	deployCmd := &cobra.Command{
		Use:   "deploy <name>",
		Short: "Deploy a project (up with forced rebuild)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ops.DeployProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Project %s running with %d containers\n", project.Name, len(project.Containers))
			if n := len(project.DeployHistory); n > 0 {
				for _, warning := range project.DeployHistory[n-1].Warnings {
					fmt.Printf("Warning: %s\n", warning)
				}
			}
			return nil
		},
	}
	commands = append(commands, deployCmd)

	// harbormaster project stop <name>
	stopCmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a project's containers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ops.StopProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Project %s stopped\n", project.Name)
			return nil
		},
	}
	commands = append(commands, stopCmd)

	// harbormaster project remove <name>
	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Short:   "Tear down and delete a project",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnings, err := ops.RemoveProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				fmt.Printf("Warning: %s\n", warning)
			}
			fmt.Printf("Project %s removed\n", args[0])
			return nil
		},
	}
	commands = append(commands, removeCmd)

	// harbormaster project health <name>
	healthCmd := &cobra.Command{
		Use:   "health <name>",
		Short: "Check a project's container health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, _ := cmd.Flags().GetBool("record")
			var report *types.HealthReport
			var err error
			if record {
				report, err = ops.UpdateProjectHealth(cmd.Context(), args[0])
			} else {
				report, err = ops.GetProjectHealth(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("Overall: %s\n", report.Overall)
			for _, c := range report.Containers {
				health := c.Health
				if health == "" {
					health = "-"
				}
				fmt.Printf("  %s  %s  %s\n", c.Name, c.Status, health)
			}
			for _, issue := range report.Issues {
				fmt.Printf("Issue: %s\n", issue)
			}
			return nil
		},
	}
	healthCmd.Flags().Bool("record", false, "Append the result to the project's health history")
	commands = append(commands, healthCmd)

	// harbormaster project logs <name>
	logsCmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Show bounded log tails for a project's containers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tail, _ := cmd.Flags().GetInt("tail")
			entries, err := ops.GetProjectLogs(cmd.Context(), args[0], tail)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Printf("==> %s <==\n", entry.ContainerID)
				if entry.Error != "" {
					fmt.Printf("error: %s\n", entry.Error)
					continue
				}
				fmt.Println(entry.Logs)
			}
			return nil
		},
	}
	logsCmd.Flags().IntP("tail", "n", 0, "Number of log lines per container")
	commands = append(commands, logsCmd)

	// harbormaster project env <name> KEY=VALUE...
	envCmd := &cobra.Command{
		Use:   "env <name> [KEY=VALUE...]",
		Short: "Replace a project's environment variables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envVars, err := parseEnvPairs(args[1:])
			if err != nil {
				return err
			}
			project, err := ops.UpdateEnvironmentVars(cmd.Context(), args[0], envVars)
			if err != nil {
				return err
			}
			fmt.Printf("Project %s now has %d environment variables\n", project.Name, len(project.EnvironmentVars))
			return nil
		},
	}
	commands = append(commands, envCmd)

	// harbormaster project settings <name>
	settingsCmd := &cobra.Command{
		Use:   "settings <name>",
		Short: "Update a project's settings",
		Long: `Update a project's settings: compose file, dockerfile, auto-restart flag,
and host port bindings. Port bindings use the form
service:containerPort[/protocol]=hostPort, for example web:80/tcp=9090.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := operations.UpdateSettingsRequest{}
			if cmd.Flags().Changed("compose-file") {
				v, _ := cmd.Flags().GetString("compose-file")
				req.ComposeFile = &v
			}
			if cmd.Flags().Changed("dockerfile") {
				v, _ := cmd.Flags().GetString("dockerfile")
				req.Dockerfile = &v
			}
			if cmd.Flags().Changed("auto-restart") {
				v, _ := cmd.Flags().GetBool("auto-restart")
				req.AutoRestart = &v
			}
			portSpecs, _ := cmd.Flags().GetStringArray("port")
			updates, err := parsePortSpecs(portSpecs)
			if err != nil {
				return err
			}
			req.PortUpdates = updates

			result, err := ops.UpdateSettings(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				fmt.Printf("Warning: %s\n", warning)
			}
			fmt.Printf("Project %s updated\n", result.Project.Name)
			return nil
		},
	}
	settingsCmd.Flags().String("compose-file", "", "Compose file name")
	settingsCmd.Flags().String("dockerfile", "", "Dockerfile name")
	settingsCmd.Flags().Bool("auto-restart", false, "Auto-restart policy flag")
	settingsCmd.Flags().StringArrayP("port", "p", nil, "Port binding service:containerPort[/protocol]=hostPort (repeatable)")
	commands = append(commands, settingsCmd)

	return commands
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	envVars := map[string]string{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected KEY=VALUE", pair)
		}
		envVars[key] = value
	}
	return envVars, nil
}

// parsePortSpecs parses service:containerPort[/protocol]=hostPort specs.
func parsePortSpecs(specs []string) ([]types.PortUpdate, error) {
	var updates []types.PortUpdate
	for _, spec := range specs {
		left, hostStr, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid port binding %q, expected service:containerPort[/protocol]=hostPort", spec)
		}
		service, portPart, ok := strings.Cut(left, ":")
		if !ok || service == "" {
			return nil, fmt.Errorf("invalid port binding %q, missing service name", spec)
		}
		protocol := "tcp"
		if containerStr, proto, ok := strings.Cut(portPart, "/"); ok {
			portPart = containerStr
			protocol = proto
		}
		containerPort, err := strconv.Atoi(portPart)
		if err != nil {
			return nil, fmt.Errorf("invalid container port in %q", spec)
		}
		hostPort, err := strconv.Atoi(hostStr)
		if err != nil {
			return nil, fmt.Errorf("invalid host port in %q", spec)
		}
		updates = append(updates, types.PortUpdate{
			Service:       service,
			ContainerPort: containerPort,
			Protocol:      protocol,
			HostPort:      hostPort,
		})
	}
	return updates, nil
}

func formatPorts(ports []types.PortMapping) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.HostPort != 0 {
			parts = append(parts, fmt.Sprintf("%d:%d/%s", p.HostPort, p.ContainerPort, p.Protocol))
		} else {
			parts = append(parts, fmt.Sprintf("%d/%s", p.ContainerPort, p.Protocol))
		}
	}
	return strings.Join(parts, ",")
}

func printProject(p *types.Project) {
	fmt.Printf("Name:         %s\n", p.Name)
	fmt.Printf("Status:       %s\n", p.Status)
	fmt.Printf("Repository:   %s (%s)\n", p.RepoURL, p.Branch)
	fmt.Printf("Path:         %s\n", p.Path)
	if p.ComposeFile != "" {
		fmt.Printf("Compose file: %s\n", p.ComposeFile)
	}
	fmt.Printf("Ports:        %s\n", formatPorts(p.Ports))
	fmt.Printf("Containers:   %d\n", len(p.Containers))
	fmt.Printf("Created:      %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Last updated: %s\n", p.LastUpdated.Format("2006-01-02 15:04:05"))
	if len(p.BuildHistory) > 0 {
		last := p.BuildHistory[len(p.BuildHistory)-1]
		fmt.Printf("Last build:   success=%t tool=%s at %s\n", last.Success, last.Tool, last.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if len(p.DeployHistory) > 0 {
		last := p.DeployHistory[len(p.DeployHistory)-1]
		fmt.Printf("Last %s: success=%t tool=%s at %s\n", last.Action, last.Success, last.Tool, last.Timestamp.Format("2006-01-02 15:04:05"))
	}
}
