package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quiz-grading-service/internal/app"
)

// NewCheckQuizCmd validates quiz files offline, the same way an upload would.
func NewCheckQuizCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-quiz FILE...",
		Short: "Validate quiz JSON files without uploading them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				def, err := app.ParseQuiz(raw)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok %q (%d fill-in, %d true/false, %d multiple choice)\n",
					path, def.Title, len(def.FillInTheBlanks), len(def.TrueFalse), len(def.MCQs))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d quiz files invalid", failed, len(args))
			}
			return nil
		},
	}
}
