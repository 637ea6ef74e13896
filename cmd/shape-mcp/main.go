package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/shape-moments-mcp/internal/config"
	"github.com/ironsheep/shape-moments-mcp/internal/container"
	"github.com/ironsheep/shape-moments-mcp/internal/logger"
	"github.com/ironsheep/shape-moments-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("shape-moments-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("shape-moments-mcp - MCP server for hand-drawn shape classification")
			fmt.Println()
			fmt.Println("Usage: shape-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SHAPE_LOG_LEVEL=debug              Enable debug logging (per-entry distances)")
			fmt.Println("  SHAPE_DATASET_PATH=shapes.csv      Default reference dataset")
			fmt.Println("  SHAPE_AZURE_ACCOUNT, SHAPE_AZURE_KEY,")
			fmt.Println("  SHAPE_AZURE_CONTAINER, SHAPE_AZURE_BLOB")
			fmt.Println("                                     Read the dataset from Azure Blob Storage")
			fmt.Println("  SHAPE_THRESHOLD=128                Ink/background gray threshold")
			fmt.Println("  SHAPE_POLARITY=dark|light|auto     Which side of the threshold is ink")
			fmt.Println("  SHAPE_CLOSE_RADIUS=1               Gap-closing radius before contour tracing")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Logs go to stderr; stdout is for MCP protocol
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}
	logger.SetLevel(cfg.LogLevel)

	c, err := container.NewContainer(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}

	logger.WithFields(c.Fields()).WithField("version", Version).Debug("Shape MCP Server starting")

	srv := server.New(c.Service())
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
