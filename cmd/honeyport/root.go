package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/honeyport/internal/util"
)

const version = "1.0.0"

var (
	cfgFile string
	cfg     *util.Config
)

// rootCmd represents the base command. Run without a subcommand it starts
// the sensor in the foreground.
var rootCmd = &cobra.Command{
	Use:   "honeyport",
	Short: "Low-interaction TCP honeypot",
	Long: `honeyport listens on commonly attacked TCP ports and reports every
connection attempt to a webhook as JSON. No service is emulated: each
connection is recorded and closed immediately.

WEBHOOK_URL must point at the alert endpoint. HOST_NAME optionally names
this sensor in every alert (defaults to the system hostname).`,
	SilenceUsage: true,
	RunE:         runStart,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.honeyport/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("status-addr", "",
		"address for the local status server, e.g. 127.0.0.1:9101 (disabled when empty)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("status_addr", rootCmd.PersistentFlags().Lookup("status-addr"))

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	var err error
	cfg, err = util.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel, cfg.LogFile)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("honeyport version %s\n", version)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for honeyport.

To load completions:

Bash:
  $ source <(honeyport completion bash)

Zsh:
  $ source <(honeyport completion zsh)

Fish:
  $ honeyport completion fish | source

PowerShell:
  PS> honeyport completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
