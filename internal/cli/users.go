package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/martijn/parkapi/internal/api/util"
	"github.com/martijn/parkapi/internal/core/domain"
	"github.com/martijn/parkapi/internal/core/repository"
	"github.com/martijn/parkapi/internal/core/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	addRole  string
	listRole string

	credentials = validator.New()
)

// readPassword prompts on stderr and reads a line from the terminal without
// echo. Replaced in tests.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func validateUsername(username string) error {
	if err := credentials.Var(username, "required,email,max=100"); err != nil {
		return fmt.Errorf("username must be an email address of at most 100 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if err := credentials.Var(password, "required,len=6"); err != nil {
		return fmt.Errorf("password must be exactly 6 characters")
	}
	return nil
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long:  "Create, inspect and list user accounts and change their passwords",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		if err := validateUsername(username); err != nil {
			return err
		}

		role, err := domain.ParseRole(addRole)
		if err != nil {
			return err
		}

		password, err := readPassword("Enter password: ")
		if err != nil {
			return err
		}
		confirmPassword, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirmPassword {
			return fmt.Errorf("passwords do not match")
		}
		if err := validatePassword(password); err != nil {
			return err
		}

		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		user := domain.NewUser(username, password)
		user.Role = role
		created, err := services.UserService.Create(cmd.Context(), user)
		if err != nil {
			if errors.Is(err, service.ErrUsernameConflict) {
				return fmt.Errorf("user already exists: %s", username)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created with id %d (%s)\n", created.Username, created.ID, created.Role.Name())
		return nil
	},
}

var usersGetCmd = &cobra.Command{
	Use:   "get <id|username>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		var user *domain.User
		if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
			user, err = services.UserService.GetByID(cmd.Context(), id)
		} else {
			user, err = services.UserService.GetByUsername(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID:\t%d\n", user.ID)
		fmt.Fprintf(w, "Username:\t%s\n", user.Username)
		fmt.Fprintf(w, "Role:\t%s\n", user.Role.Name())
		fmt.Fprintf(w, "Created at:\t%s\n", user.CreatedAt.Format(time.DateTime))
		fmt.Fprintf(w, "Modified at:\t%s\n", formatOptionalTime(user.ModifiedAt))
		return w.Flush()
	},
}

var usersUpdatePasswordCmd = &cobra.Command{
	Use:   "update-password <id>",
	Short: "Update user password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id: %q", args[0])
		}

		currentPassword, err := readPassword("Current password: ")
		if err != nil {
			return err
		}
		newPassword, err := readPassword("New password: ")
		if err != nil {
			return err
		}
		confirmPassword, err := readPassword("Confirm new password: ")
		if err != nil {
			return err
		}
		if err := validatePassword(newPassword); err != nil {
			return err
		}

		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.UserService.UpdatePassword(cmd.Context(), id, currentPassword, newPassword, confirmPassword)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for user '%s'\n", user.Username)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter repository.UserFilter
		if listRole != "" {
			role, err := domain.ParseRole(listRole)
			if err != nil {
				return err
			}
			filter.Filters = []util.QueryFilter{{Field: "role", Operator: util.OpEq, Value: string(role)}}
		}

		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		users, err := services.UserService.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No users found")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED AT\tMODIFIED AT")
		for _, user := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				user.ID,
				user.Username,
				user.Role.Name(),
				user.CreatedAt.Format(time.DateTime),
				formatOptionalTime(user.ModifiedAt),
			)
		}
		return w.Flush()
	},
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateTime)
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersGetCmd)
	usersCmd.AddCommand(usersUpdatePasswordCmd)
	usersCmd.AddCommand(usersListCmd)

	usersAddCmd.Flags().StringVar(&addRole, "role", "customer", "role of the new user (admin or customer)")
	usersListCmd.Flags().StringVar(&listRole, "role", "", "only list users with this role")
}
