package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ecsboss/internal/awsapi"
	"ecsboss/internal/config"
	"ecsboss/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
)

// Global flags shared by every subcommand. File values from .ecsboss.yaml
// fill in flags the user didn't set; built-in defaults apply last.
var (
	rootRegion          string
	rootProfile         string
	rootAccessKeyID     string
	rootSecretAccessKey string
	rootTaskFile        string
	rootServiceFile     string
	rootRepository      string
	rootVerbose         bool
)

// rootCmd represents the base command for the ecsboss application.
var rootCmd = &cobra.Command{
	Use:   "ecsboss",
	Short: "Deploy container services to AWS ECS",
	Long: `ecsboss reconciles locally authored task definition and service files
with the state of an ECS cluster. Local files are merged over the remote
snapshots so scheduler-managed fields survive, changes are tracked
field by field, and the surrounding release chores (git tagging, image
build and push, one-off task runs, scaling) are covered by subcommands.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage:      true,
	PersistentPreRunE: initRoot,
}

// initRoot wires logging and overlays the tool configuration file under any
// flags the user didn't set explicitly.
func initRoot(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if rootVerbose {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stderr)

	cfg, err := config.LoadConfig(config.ConfigFileName)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("region") && cfg.Region != "" {
		rootRegion = cfg.Region
	}
	if !flags.Changed("profile") && cfg.Profile != "" {
		rootProfile = cfg.Profile
	}
	if !flags.Changed("task-file") && cfg.TaskFile != "" {
		rootTaskFile = cfg.TaskFile
	}
	if !flags.Changed("service-file") && cfg.ServiceFile != "" {
		rootServiceFile = cfg.ServiceFile
	}
	if !flags.Changed("repository") && rootRepository == "" {
		if cfg.Repository != "" {
			rootRepository = cfg.Repository
		}
	}
	return nil
}

// awsOptions assembles the AWS client options from the global flags.
func awsOptions() awsapi.Options {
	return awsapi.Options{
		Region:          rootRegion,
		Profile:         rootProfile,
		AccessKeyID:     rootAccessKeyID,
		SecretAccessKey: rootSecretAccessKey,
	}
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ecsboss version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootRegion, "region", "", "AWS region")
	flags.StringVar(&rootProfile, "profile", "", "AWS shared config profile")
	flags.StringVar(&rootAccessKeyID, "access-key-id", "", "AWS access key ID (overrides the default credential chain)")
	flags.StringVar(&rootSecretAccessKey, "secret-access-key", "", "AWS secret access key")
	flags.StringVar(&rootTaskFile, "task-file", "task-def.json", "task definition file")
	flags.StringVar(&rootServiceFile, "service-file", "service.json", "service definition file")
	flags.StringVar(&rootRepository, "repository", os.Getenv("REPOSITORY"), "image repository URI (defaults to the REPOSITORY environment variable)")
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCheckGitCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newUpdateTaskCmd())
	rootCmd.AddCommand(newUpdateServiceCmd())
	rootCmd.AddCommand(newScaleCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDeployCmd())
}
