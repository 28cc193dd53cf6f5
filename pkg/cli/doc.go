/*
Package cli provides command-line utilities shared by the vesta command.

Output Formatting:

Commands print their results through a Formatter so --output switches the
encoding without touching command logic:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, entry); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
