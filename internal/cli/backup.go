package cli

import (
	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/backup"
	"github.com/ethervault/ethervault/internal/output"
	"github.com/ethervault/ethervault/internal/store"
)

// backupDir is where backup files live, outside the wallet data
// directory so an erase does not take the backups with it.
func backupDir() string {
	return home() + "-backups"
}

func newBackupService() *backup.Service {
	return backup.NewService(backupDir(), store.New(home()))
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, verify, and restore encrypted wallet backups",
	}
	cmd.AddCommand(newBackupCreateCmd(), newBackupVerifyCmd(), newBackupRestoreCmd(), newBackupListCmd())
	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Write an encrypted backup of the wallet",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			path, err := newBackupService().Create(cfg.Address, password)
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.Print(map[string]string{"path": path})
			}
			return formatter.Printf("Backup written to %s\n", path)
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a backup file's integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			manifest, err := newBackupService().Verify(args[0])
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				return formatter.Print(manifest)
			}

			table := output.NewTable("FIELD", "VALUE")
			table.AddRow("address", manifest.Address)
			table.AddRow("created_at", manifest.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			table.AddRow("has_record", boolWord(manifest.HasRecord))
			table.AddRow("checksum", manifest.Checksum)
			return table.Render(formatter.Writer())
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore wallet artifacts from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			password, err := promptPassword("Enter backup password: ")
			if err != nil {
				return err
			}

			if err := newBackupService().Restore(args[0], password); err != nil {
				return err
			}

			// The keystore decides the active address; resync config.
			manifest, err := newBackupService().Verify(args[0])
			if err == nil && manifest.Address != "" {
				if err := cfg.SetAddress(manifest.Address); err != nil {
					return err
				}
			}

			return output.FormatSuccess(formatter.Writer(),
				"Backup restored.", formatFor(formatter))
		},
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available backup files",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			names, err := newBackupService().List()
			if err != nil {
				return err
			}

			if formatter.IsJSON() {
				if names == nil {
					names = []string{}
				}
				return formatter.Print(map[string][]string{"backups": names})
			}

			if len(names) == 0 {
				return formatter.Println("No backups found in", backupDir())
			}
			for _, name := range names {
				if err := formatter.Println(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
