package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the analysis audit trail",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the hash chain of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadAuditService()
		if err != nil {
			return err
		}
		violations, err := svc.VerifyIntegrity()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(violations) == 0 {
			fmt.Fprintln(w, okStyle.Render("Audit trail intact."))
			return nil
		}
		for _, v := range violations {
			fmt.Fprintln(w, errStyle.Render(v))
		}
		return NewCLIError(fmt.Sprintf("audit trail has %d violations", len(violations)), "The events file was edited or truncated outside fareview", nil)
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadAuditService()
		if err != nil {
			return err
		}
		events, err := svc.GetTimeline()
		if err != nil {
			return err
		}
		if auditLimit > 0 && len(events) > auditLimit {
			events = events[len(events)-auditLimit:]
		}
		w := cmd.OutOrStdout()
		for _, e := range events {
			path, _ := e.Metadata["path"].(string)
			fmt.Fprintf(w, "%s  %-20s %-16s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Actor, path)
		}
		return nil
	},
}

func loadAuditService() (*application.AuditService, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return application.NewAuditService(storage.NewFilesystemRepository(root)), nil
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "Number of events to list (0 for all)")
	auditCmd.AddCommand(auditVerifyCmd, auditListCmd)
	RootCmd.AddCommand(auditCmd)
}
