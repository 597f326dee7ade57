package cli

import (
	"fmt"
	"os"

	"github.com/martijn/parkapi/internal/core/service"
	"github.com/martijn/parkapi/internal/infrastructure/database"
	"github.com/martijn/parkapi/pkg/config"
	"github.com/martijn/parkapi/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "parkapi",
	Short: "parkapi - user account service",
	Long: `parkapi manages user accounts over a REST API.

It provides:
- User registration with unique, email-shaped usernames
- Lookup and listing of users
- Password changes checked against the current password
- A CLI for the same operations against the configured database`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log := logger.Init(logger.Options{
			Level:  cfg.LogLevel,
			Pretty: cfg.LogPretty,
			Output: os.Stderr,
			File:   cfg.LogFile,
		})
		if cfg.PasswordEncoder == service.EncoderPlain {
			log.Warn().Msg("password_encoder is 'plain': passwords are stored and compared unhashed")
		}

		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultConfigPath+")")
}

// Services holds all initialized services
type Services struct {
	DB          *database.DB
	UserService *service.UserService
}

// initServices opens the configured database and builds the services on top
// of it.
func initServices() (*Services, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	encoder, err := service.NewPasswordEncoder(cfg.PasswordEncoder)
	if err != nil {
		db.Close()
		return nil, err
	}

	log := logger.Get()
	log.Debug().
		Str("driver", db.Driver()).
		Str("password_encoder", cfg.PasswordEncoder).
		Msg("database opened")

	return &Services{
		DB:          db,
		UserService: service.NewUserService(database.NewTxManager(db), encoder),
	}, nil
}

// Close closes all resources
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
