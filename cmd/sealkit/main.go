package main

import (
	"fmt"
	"os"

	pkgversion "github.com/medvault-labs/sealkit/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "demo":
		demoCommand()
	case "selftest":
		selfTestCommand()
	case "report":
		reportCommand()
	case "version":
		fmt.Printf("sealkit version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sealkit - Envelope Encryption & Key Lifecycle Tool

USAGE:
    sealkit <command> [options]

COMMANDS:
    demo      Walk through envelope encryption end to end
    selftest  Run the constant-time primitive self-test
    report    Generate a rotation compliance report
    version   Print version information
    help      Show this help message

Run 'sealkit <command> --help' for more information on a command.

EXAMPLES:
    # Encrypt and decrypt a sample record through every envelope shape
    sealkit demo --message "sensitive medical information"

    # Check rotation compliance against the configured custody service
    SEALKIT_CUSTODY_URL=https://kms.internal:8443 sealkit report`)
}
