// Command idlergear-index builds and serves the project artifact graph.
//
//	idlergear-index [flags]          index the repository and exit
//	idlergear-index [flags] serve    index, then serve the MCP tools on stdio
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marctjones/idlergear/internal/config"
	"github.com/marctjones/idlergear/internal/index"
	"github.com/marctjones/idlergear/internal/store"
	"github.com/marctjones/idlergear/internal/tools"
)

var version = "dev"

func main() {
	repo := flag.String("repo", ".", "project root to index")
	full := flag.Bool("full", false, "re-parse everything, ignoring stored content hashes")
	verbose := flag.Bool("v", false, "debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("idlergear-index", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	repoPath, err := filepath.Abs(*repo)
	if err != nil {
		log.Fatalf("resolve repo path err=%v", err)
	}
	cfg := config.Load(repoPath)

	s, err := store.Open(repoPath)
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}

	ix := index.New(s, repoPath, cfg)
	ix.Opts.Incremental = !*full
	statuses, err := ix.Run(context.Background())
	if err != nil {
		s.Close()
		log.Fatalf("index err=%v", err)
	}
	failed := 0
	for _, st := range statuses {
		if st.Err != nil {
			failed++
		}
	}

	if flag.Arg(0) != "serve" {
		s.Close()
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	srv := tools.NewServer(s, repoPath, cfg)
	runErr := srv.MCPServer().Run(context.Background(), &mcp.StdioTransport{})
	s.Close()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
}
