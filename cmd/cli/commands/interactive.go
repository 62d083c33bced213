package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load inputs once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against the same
configuration, workbooks and database connection. Google authentication happens once,
on the first command that needs it. The session runs until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\n🚀 Starting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			commands := siblingCommands(cmd)
			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				if exit := runLine(os.Stdout, app.Logger, commands, scanner.Text()); exit {
					return nil
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

// siblingCommands returns the root's commands that can run inside a session
func siblingCommands(cmd *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, subCmd := range cmd.Parent().Commands() {
		switch subCmd.Name() {
		case "interactive", "completion", "help":
			continue
		}
		commands[subCmd.Name()] = subCmd
	}
	return commands
}

// runLine executes one session line and reports whether the session should end.
// Commands run through RunE directly so PersistentPreRunE does not reload the app.
func runLine(w io.Writer, logger *zap.Logger, commands map[string]*cobra.Command, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	parts, err := parseCommandLine(line)
	if err != nil {
		fmt.Fprintf(w, "❌ Error parsing command: %v\n\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}
	cmdName, cmdArgs := parts[0], parts[1:]

	switch cmdName {
	case "exit", "quit":
		fmt.Fprintln(w, "👋 Goodbye!")
		return true
	case "help":
		printInteractiveHelp(w, commands)
		return false
	}

	targetCmd, exists := commands[cmdName]
	if !exists {
		fmt.Fprintf(w, "❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
		return false
	}

	logger.Debug("Interactive command", zap.String("command", cmdName), zap.Strings("args", cmdArgs))

	// Flags keep their values between runs unless reset
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		flag.Value.Set(flag.DefValue)
	})

	if err := targetCmd.ParseFlags(cmdArgs); err != nil {
		fmt.Fprintf(w, "❌ Error parsing flags: %v\n\n", err)
		return false
	}
	cmdArgs = targetCmd.Flags().Args()

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(w, "❌ Error: %v\n\n", err)
			return false
		}
	}

	if targetCmd.RunE != nil {
		if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(w, "❌ Error: %v\n\n", err)
		}
	} else if targetCmd.Run != nil {
		targetCmd.Run(targetCmd, cmdArgs)
	}

	return false
}

func printInteractiveHelp(w io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(w, "\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-30s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Fprintln(w, "\n  help                           Show this help message")
	fmt.Fprintln(w, "  exit, quit                     Exit the interactive session")
}

// parseCommandLine splits a command line into arguments, respecting single and
// double quoted strings so file paths may contain spaces
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune
	quoted := false

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}
