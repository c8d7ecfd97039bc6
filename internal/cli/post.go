package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewPostCmd создаёт группу команд "post".
func NewPostCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Manage post publication",
	}

	cmd.AddCommand(
		newPostShowCmd(clientFn, outputFn),
		newPostPublishCmd(clientFn, outputFn),
		newPostPokeCmd(clientFn, outputFn),
	)

	return cmd
}

func newPostShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show post and its publication progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := clientFn().GetPost(args[0])
			if err != nil {
				return err
			}

			outputFn().Fields(postFields(post), post)
			return nil
		},
	}
}

func newPostPublishCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var scheduled bool

	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Start publication of a post",
		Long:  "Start publication of a post. By default the post is published now; with --scheduled the run waits for the publish date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := clientFn().PublishPost(args[0], !scheduled)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(
				[]string{"WORKFLOW ID", "RUN ID", "IMMEDIATE"},
				[][]string{{exec.WorkflowID, exec.RunID, strconv.FormatBool(exec.Immediate)}},
				exec,
			)
			out.Success(fmt.Sprintf("Publication of post %s started", args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&scheduled, "scheduled", false, "Wait for the post publish date")

	return cmd
}

func newPostPokeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "poke <id>",
		Short: "Send poke signal to a running publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().PokePost(args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Post %s poked", args[0]))
			return nil
		},
	}
}

func postFields(p *PostResponse) [][2]string {
	fields := [][2]string{
		{"ID", p.ID},
		{"Organization", p.OrganizationID},
		{"Integration", p.IntegrationID},
		{"Provider", p.Provider},
		{"State", p.State},
		{"Publish date", p.PublishDate},
	}
	if p.IntervalInDays > 0 {
		fields = append(fields, [2]string{"Interval", fmt.Sprintf("%d days", p.IntervalInDays)})
	}
	if p.ReleaseURL != "" {
		fields = append(fields, [2]string{"Release URL", p.ReleaseURL})
	}
	if p.Error != "" {
		fields = append(fields, [2]string{"Error", p.Error})
	}

	if p.Workflow == nil {
		return append(fields, [2]string{"Workflow", "-"})
	}
	return append(fields,
		[2]string{"Phase", p.Workflow.Phase},
		[2]string{"Published", strconv.Itoa(len(p.Workflow.Published))},
		[2]string{"Pending plugs", strconv.Itoa(p.Workflow.PendingPlugs)},
		[2]string{"Poked", strconv.FormatBool(p.Workflow.Poked)},
	)
}
