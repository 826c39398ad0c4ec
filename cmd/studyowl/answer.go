package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAnswerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "answer <question-id> <answer>",
		Short: "Record a practice answer while offline; it syncs when connectivity returns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			questionID, answer := args[0], args[1]

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			question, err := app.findQuestion(ctx, questionID)
			if err != nil {
				return err
			}
			if question == nil {
				return fmt.Errorf("question %s is not in any downloaded chapter", questionID)
			}

			isCorrect := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(question.CorrectAnswer))
			queued, err := app.engine.QueueResponse(ctx, questionID, answer, isCorrect)
			if err != nil {
				return fmt.Errorf("engine.QueueResponse() > %w", err)
			}

			if err := app.recorder.Record(ctx, app.cfg.Student.ID, question.TopicID, isCorrect); err != nil {
				return fmt.Errorf("recorder.Record() > %w", err)
			}

			if isCorrect {
				color.Green("Correct!")
			} else {
				color.Red("Incorrect. %s", question.Solution)
			}

			pending, err := app.engine.PendingCount(ctx)
			if err != nil {
				return fmt.Errorf("engine.PendingCount() > %w", err)
			}
			fmt.Printf("Queued response %s (%d pending)\n", queued.ID, pending)
			return nil
		},
	}
}
