package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/store"
)

// Flags shared by the direct-backend commands.
var clientFlags struct {
	environment string
	actor       string
	output      string
}

func registerClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&clientFlags.environment, "environment", "e", "", "target environment (base, development, staging, production, edge)")
	cmd.Flags().StringVar(&clientFlags.actor, "actor", defaultActor(), "actor identity recorded in the audit trail")
	cmd.Flags().StringVarP(&clientFlags.output, "output", "o", "text", "output format (text, json)")
}

func defaultActor() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "local"
}

func clientEnvironment() (store.Environment, error) {
	return store.ParseEnvironment(clientFlags.environment)
}

func clientFormatter() cli.Formatter {
	return cli.NewFormatter(cli.OutputFormat(clientFlags.output))
}

// withApplication loads the configuration, wires the application without the
// cache and policy watcher, runs fn, and tears everything down. Every direct
// command goes through here so the audit trail sees CLI writes too.
func withApplication(command string, fn func(ctx context.Context, app *application) error) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	ctx, cancel := context.WithTimeout(cli.SetupSignalHandler(), commandTimeout)
	defer cancel()

	app, err := buildApplication(ctx, cfg, logger, buildOptions{skipCache: true, skipWatch: true})
	if err != nil {
		return cli.NewCommandError(command, err)
	}
	defer app.Close()

	if err := fn(ctx, app); err != nil {
		return cli.NewCommandError(command, err)
	}
	return nil
}

// entryRow is the wire- and table-friendly shape of a configuration entry.
type entryRow struct {
	Namespace   string    `json:"namespace"`
	Key         string    `json:"key"`
	Environment string    `json:"environment"`
	Value       string    `json:"value"`
	Secret      bool      `json:"secret"`
	Version     uint64    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Description string    `json:"description,omitempty"`
}

func toEntryRow(entry *store.ConfigEntry) entryRow {
	return entryRow{
		Namespace:   entry.Namespace,
		Key:         entry.Key,
		Environment: string(entry.Environment),
		Value:       string(entry.Value),
		Secret:      entry.Secret,
		Version:     entry.Version,
		CreatedAt:   entry.Metadata.CreatedAt,
		CreatedBy:   entry.Metadata.CreatedBy,
		Description: entry.Metadata.Description,
	}
}

// entryTable renders entries as aligned columns for the text formatter.
type entryTable []entryRow

func (entryTable) Columns() []string {
	return []string{"NAMESPACE", "KEY", "ENV", "VERSION", "SECRET", "UPDATED", "BY"}
}

func (t entryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{
			e.Namespace,
			e.Key,
			e.Environment,
			strconv.FormatUint(e.Version, 10),
			strconv.FormatBool(e.Secret),
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.CreatedBy,
		})
	}
	return rows
}

func printEntry(entry *store.ConfigEntry) error {
	row := toEntryRow(entry)
	if clientFlags.output == "json" {
		return clientFormatter().FormatTo(os.Stdout, row)
	}
	// The single-entry text form prints the value alone so the command
	// composes in shell pipelines.
	fmt.Println(row.Value)
	return nil
}
