package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"hustle-genie/chat"
	"hustle-genie/server"
	"hustle-genie/ui"
	"hustle-genie/utils"
	"hustle-genie/workspace"
)

var version = "0.1.0"

var (
	configPath string
	debug      bool
	userEmail  string
	format     string
	outDir     string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "hustle-genie",
	Short: "HustleGenie - your side hustle genie",
	Long: `HustleGenie turns a few wishes about your skills and goals into side hustle
ideas, 7-day launch plans and an encouraging chat companion.

Run without arguments to open the desktop application.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDesktop()
	},
}

var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Open the desktop application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDesktop()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for the web client",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every conversation of a user",
	Example: `  hustle-genie export --user me@example.com --format md --out ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context())
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Merge a JSON export into a user's conversations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), args[0])
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("HustleGenie v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.addr)")

	exportCmd.Flags().StringVarP(&userEmail, "user", "u", "", "email of the account to export")
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "export format: json or md")
	exportCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default ~/Documents/HustleGenie_Exports)")
	_ = exportCmd.MarkFlagRequired("user")

	importCmd.Flags().StringVarP(&userEmail, "user", "u", "", "email of the account to import into")
	_ = importCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(desktopCmd, serveCmd, exportCmd, importCmd, statsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDesktop() error {
	rt, err := newRuntime(context.Background(), configPath, debug)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := ui.NewApp(rt.config, rt.configPath, rt.deps)
	defer app.Cleanup()

	rt.logger.Info("application started", "version", version)
	app.Run()
	rt.logger.Info("application stopped")
	return nil
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, configPath, debug)
	if err != nil {
		return err
	}
	defer rt.Close()

	secret := rt.config.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("server.jwt_secret is not set in %s", rt.configPath)
	}

	registry := workspace.NewRegistry(rt.deps)
	defer registry.Close()

	tokens := server.NewTokens(secret, rt.config.TokenTTLDuration())
	handler := server.NewHandler(rt.logger, rt.deps.Store, registry, tokens)
	router := server.NewRouter(server.RouterConfig{
		Handler:        handler,
		Tokens:         tokens,
		Registry:       registry,
		AllowedOrigins: rt.config.Server.AllowedOrigins,
		Logger:         rt.logger,
	})

	addr := rt.config.Server.Addr
	if listenAddr != "" {
		addr = listenAddr
	}
	return server.Run(ctx, addr, router, rt.logger)
}

func runExport(ctx context.Context) error {
	exportFormat, err := chat.ParseExportFormat(format)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, configPath, debug)
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := rt.deps.Store.LoadUserData(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("failed to load data of %s: %w", userEmail, err)
	}

	dir := outDir
	if dir == "" {
		if dir, err = utils.GetDefaultExportPath(); err != nil {
			return err
		}
	}

	now := rt.now()
	content, err := chat.ExportCatalog(data.ChatHistory, exportFormat, now)
	if err != nil {
		return err
	}
	path, err := utils.WriteExportFile(dir, chat.ExportFilename("all_conversations", exportFormat, now), content)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d conversations to %s\n", len(data.ChatHistory), path)
	return nil
}

func runImport(ctx context.Context, file string) error {
	raw, err := utils.ReadFileContent(filepath.Clean(file))
	if err != nil {
		return err
	}
	convs, err := chat.ImportCatalog(raw)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, configPath, debug)
	if err != nil {
		return err
	}
	defer rt.Close()

	ws, err := workspace.Open(ctx, rt.deps, userEmail, workspace.Hooks{})
	if err != nil {
		return err
	}
	defer ws.Close()

	added := ws.Chat.Import(convs)
	fmt.Printf("Imported %d of %d conversations into %s\n", added, len(convs), ws.Email())
	return nil
}

func runStats(ctx context.Context) error {
	rt, err := newRuntime(ctx, configPath, debug)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.stats()
	if err != nil {
		return err
	}
	fmt.Printf("Backend:       %s\n", rt.config.Data.Backend)
	fmt.Printf("Records:       %d\n", stats.KeyCount)
	fmt.Printf("Stored data:   %s\n", utils.FormatFileSize(stats.ValueBytes))
	fmt.Printf("Database size: %s\n", utils.FormatFileSize(stats.DBSizeBytes))

	owners, err := rt.deps.Store.DataOwners(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Users:         %d\n", len(owners))
	for _, email := range owners {
		data, err := rt.deps.Store.LoadUserData(ctx, email)
		if err != nil {
			rt.logger.Warn("failed to load user data", "email", email, "error", err)
			continue
		}
		fmt.Printf("  %-32s %d conversations, %d goals\n", email, len(data.ChatHistory), len(data.Goals))
	}
	return nil
}
