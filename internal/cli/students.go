package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-grading-service/internal/app"
)

// NewAddStudentCmd creates a student account in the configured database.
func NewAddStudentCmd(configPath *string) *cobra.Command {
	var in app.StudentInput
	cmd := &cobra.Command{
		Use:   "add-student",
		Short: "Create a student account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cfg.Database.Driver == "" {
				return fmt.Errorf("database.driver not configured; accounts would not persist")
			}

			b, err := newBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			u, err := b.admin.CreateStudent(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created student %s (%s)\n", u.StudentID, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.StudentID, "id", "", "student id used to log in")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.Email, "email", "", "optional email for quiz announcements")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
