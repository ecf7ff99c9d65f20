package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/scan-detect/internal/config"
	"github.com/ironsheep/scan-detect/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version":
			fmt.Printf("scan-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Printf("%v", err)
		fmt.Fprintln(os.Stderr, "Run 'scan-detect --help' for usage.")
		os.Exit(2)
	}

	if cfg.Debug {
		log.Printf("scan-detect v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(cfg, log.Default())
	if err := srv.Run(os.Stdin, os.Stdout); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func usage() {
	fmt.Println("scan-detect - corner mark registration and answer box measurement")
	fmt.Println()
	fmt.Println("Usage: scan-detect -x width -y height -d diameter [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -x width     Layout page width")
	fmt.Println("  -y height    Layout page height")
	fmt.Println("  -d diam      Corner mark diameter, layout units")
	fmt.Println("  -p tol       Tolerance above the mark diameter (fraction)")
	fmt.Println("  -m tol       Tolerance below the mark diameter (fraction)")
	fmt.Println("  -c n         Minimum number of corner marks (default 3)")
	fmt.Println("  -t th        Binarization threshold (default 0.6)")
	fmt.Println("  -o file      Report image written at exit")
	fmt.Println("  -v           Also write a report of the detected components")
	fmt.Println("  -P           Draw the report on the processed scan")
	fmt.Println("  -r           Keep only the red channel of color scans")
	fmt.Println("  -k           Paint sampled pixels instead of box outlines")
	fmt.Println("  --version    Print version information")
	fmt.Println("  --help, -h   Print this help message")
	fmt.Println()
	fmt.Println("Commands (one per line on stdin, each answered up to " + server.EndMarker + "):")
	for _, v := range server.Verbs() {
		fmt.Printf("  %-56s %s\n", v.Usage, v.Description)
	}
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
}
