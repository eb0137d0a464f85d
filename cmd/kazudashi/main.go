package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
)

const usage = `Usage: kazudashi <command> [flags] [args]

Commands:
  convert   Convert meal-count sheet PDFs into the template workbooks
  preview   Print the grids and tables read from a PDF
  import    Import a product or customer master CSV
  version   Print version information

Run "kazudashi <command> --help" for the flags of a command.
Settings are also read from KAZUDASHI_* environment variables and a .env file.
`

// envFile is read before the environment, when present
const envFile = ".env"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "convert":
		err = runConvert(ctx, args)
	case "preview":
		err = runPreview(args, os.Stdout)
	case "import":
		err = runImport(args)
	case "version", "--version", "-v":
		fmt.Printf("kazudashi %s (built %s)\n", version, buildTime)
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "kazudashi: %v\n", err)
		os.Exit(1)
	}
}
