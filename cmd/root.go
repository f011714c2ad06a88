// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/config"
	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/logger"
	"github.com/portalctl/portalctl/internal/session"
	"github.com/portalctl/portalctl/internal/source"
	"github.com/portalctl/portalctl/internal/view"
)

const appVersion = "0.1.0"

var (
	portalFlags *data.Flags
	rootCmd     = &cobra.Command{
		Use:           config.AppName,
		Short:         "A terminal console for the portal admin API",
		Long:          `portalctl browses, filters and edits the records of a portal REST API from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("%s version %s\n", config.AppName, appVersion)
		},
	}
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE:  runLogin,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE:  runLogout,
	}
	loginEmail, loginPassword string
)

func init() {
	portalFlags = config.NewFlags()
	initPortalFlags()

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(versionCmd, loginCmd, logoutCmd)
}

func initPortalFlags() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(portalFlags.BaseURL, "base-url", "", "API base URL")
	pf.StringVar(portalFlags.Timeout, "timeout", "", "API request timeout, e.g. 30s")
	pf.StringVarP(portalFlags.LogLevel, "logLevel", "l", "", "Log level (debug, info, warn, error)")
	pf.StringVar(portalFlags.LogFile, "logFile", "", "Log file path")
	pf.BoolVar(portalFlags.Remember, "remember", false, "Persist the session on login")
	pf.StringVar(portalFlags.AWSProfile, "aws-profile", "", "AWS profile for s3:// uploads")
	pf.StringVar(portalFlags.AWSRegion, "aws-region", "", "AWS region for s3:// uploads")

	rootCmd.Flags().StringVarP(portalFlags.Command, "command", "c", "", "Startup view")
	rootCmd.Flags().BoolVar(portalFlags.ReadOnly, "readonly", false, "Enable read-only mode")
	rootCmd.Flags().BoolVar(portalFlags.Write, "write", false, "Enable write mode (overrides readonly)")
	rootCmd.Flags().BoolVar(portalFlags.Headless, "headless", false, "Hide the header")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// runtime is the wired dependency set shared by the commands.
type runtime struct {
	cfg      *config.Config
	log      *slog.Logger
	sessions *session.Manager
	api      *client.Client
	closer   io.Closer
}

func (r *runtime) Close() {
	if r.closer != nil {
		_ = r.closer.Close()
	}
}

func bootstrap() (*runtime, error) {
	// 1. Initialize locations
	if err := config.InitLocs(); err != nil {
		return nil, fmt.Errorf("failed to initialize locations: %w", err)
	}

	// 2. Load the file and save it back before any overlay lands in it
	cfg := config.NewConfig()
	if err := cfg.Load(config.AppConfigFile, false); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	_ = cfg.Save(false)

	// 3. Layer environment then flags
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Refine(portalFlags, env); err != nil {
		return nil, fmt.Errorf("failed to refine configuration: %w", err)
	}

	// 4. Logger
	logFile := cfg.Portal.Logger.File
	if logFile == "" {
		logFile = config.AppLogFile
	}
	if err := config.InitLogLoc(logFile); err != nil {
		return nil, fmt.Errorf("failed to initialize log location: %w", err)
	}
	lg, closer, err := logger.NewFile(logFile, cfg.Portal.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// 5. Session and request orchestrator
	sessions := session.NewManager(session.NewStore(config.AppSessionFile), lg)
	if err := sessions.Restore(); err != nil && !errors.Is(err, session.ErrNoSession) {
		lg.Warn("session restore failed", slog.String("error", err.Error()))
	}
	ccfg, err := cfg.Portal.ClientConfig(lg)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		log:      lg,
		sessions: sessions,
		api:      client.New(ccfg, sessions),
		closer:   closer,
	}, nil
}

func run(*cobra.Command, []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.Close()

	resources := config.NewResources()
	if err := resources.Load(); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	aliases := config.NewAliases()
	if err := aliases.Load(); err != nil {
		return fmt.Errorf("failed to load aliases: %w", err)
	}

	p := rt.cfg.Portal
	app := view.NewApp(view.Deps{
		Config:   rt.cfg,
		Client:   rt.api,
		Sessions: rt.sessions,
		Registry: dao.NewRegistry(resources, aliases, p.IsReadOnly()),
		Opener:   source.New(source.AWSConfig{Profile: p.AWS.Profile, Region: p.AWS.Region}),
		Logger:   rt.log,
	}, appVersion)
	if err := app.Init(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	rt.log.Info("portalctl starting", slog.String("version", appVersion), slog.String("baseURL", p.BaseURL))

	return app.Run("")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.Close()

	policy := rt.cfg.Portal.SessionPolicy()
	sess, err := rt.sessions.Login(cmdContext(cmd), rt.api, loginEmail, loginPassword, policy)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.User.Email)
	if !sess.Persisted {
		fmt.Fprintln(cmd.OutOrStdout(), "Session is not persisted, pass --remember to keep it")
	}

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.sessions.Logout(cmdContext(cmd), rt.api)
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")

	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
