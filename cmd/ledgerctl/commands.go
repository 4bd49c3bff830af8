package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"edupay/internal/services/payment"

	"github.com/spf13/cobra"
)

// withEnv opens the ledger for the duration of fn.
func withEnv(fn func(cmd *cobra.Command, env *ledgerEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(loadConfig())
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer func() { _ = env.close() }()
		return fn(cmd, env, args)
	}
}

func parseWalletID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid wallet id %q", arg)
	}
	return uint(id), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <wallet-id>",
		Short: "Print a wallet's balance",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, env *ledgerEnv, args []string) error {
			walletID, err := parseWalletID(args[0])
			if err != nil {
				return err
			}
			balance, err := env.ledger.Balance(cmd.Context(), walletID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance.StringFixed(2))
			return nil
		}),
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <wallet-id>",
		Short: "List a wallet's transactions, most recent first",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Int("limit", 20, "maximum number of transactions to print (0 for all)")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")

	cmd.RunE = withEnv(func(cmd *cobra.Command, env *ledgerEnv, args []string) error {
		walletID, err := parseWalletID(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		txns, err := env.ledger.Transactions(cmd.Context(), walletID)
		if err != nil {
			return err
		}
		if limit > 0 && len(txns) > limit {
			txns = txns[:limit]
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), txns)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tTYPE\tSTATUS\tAMOUNT\tCATEGORY\tDESCRIPTION")
		for _, t := range txns {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.CreatedAt.Format(time.RFC3339), t.Type, t.Status, t.Amount.StringFixed(2), t.Category, t.Description)
		}
		return tw.Flush()
	})
	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [wallet-id...]",
		Short: "Compare stored balances with the fold of each ledger",
		Long: `audit recomputes each wallet's balance from its opening balance and
completed transactions and reports any drift from the stored balance.
Without arguments every wallet is audited. The command fails if any
wallet drifted.`,
	}
	cmd.Flags().Bool("json", false, "print JSON reports")

	cmd.RunE = withEnv(func(cmd *cobra.Command, env *ledgerEnv, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		var ids []uint
		if len(args) == 0 {
			all, err := env.wallets.ListIDs(cmd.Context())
			if err != nil {
				return err
			}
			ids = all
		}
		for _, arg := range args {
			id, err := parseWalletID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		drifted := 0
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		if !asJSON {
			fmt.Fprintln(tw, "WALLET\tSTORED\tDERIVED\tDRIFT\tTXNS\tPENDING")
		}
		for _, id := range ids {
			report, err := env.ledger.Audit(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("audit wallet %d: %w", id, err)
			}
			if !report.Consistent {
				drifted++
			}
			if asJSON {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", report.WalletID,
				report.Snapshot.StringFixed(2), report.Derived.StringFixed(2), report.Drift.StringFixed(2),
				report.Transactions, report.Pending)
		}
		if !asJSON {
			if err := tw.Flush(); err != nil {
				return err
			}
		}

		if drifted > 0 {
			return fmt.Errorf("%d of %d wallets drifted", drifted, len(ids))
		}
		return nil
	})
	return cmd
}

func lockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock <wallet-id>",
		Short: "Reject further credits and debits on a wallet",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("reason", "locked by operator", "reason recorded on the wallet")

	cmd.RunE = withEnv(func(cmd *cobra.Command, env *ledgerEnv, args []string) error {
		walletID, err := parseWalletID(args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		if err := env.ledger.LockWallet(cmd.Context(), walletID, reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wallet %d locked\n", walletID)
		return nil
	})
	return cmd
}

func unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <wallet-id>",
		Short: "Accept credits and debits on a locked wallet again",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, env *ledgerEnv, args []string) error {
			walletID, err := parseWalletID(args[0])
			if err != nil {
				return err
			}
			if err := env.ledger.UnlockWallet(cmd.Context(), walletID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet %d unlocked\n", walletID)
			return nil
		}),
	}
}

func expireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire-pending",
		Short: "Discard pending gateway fundings that were never verified",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Duration("older-than", payment.DefaultPendingTTL, "only expire records created before now minus this duration")

	cmd.RunE = withEnv(func(cmd *cobra.Command, env *ledgerEnv, _ []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan < 0 {
			return fmt.Errorf("--older-than must not be negative")
		}
		n, err := env.bridge.ExpirePending(cmd.Context(), olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d pending fundings\n", n)
		return nil
	})
	return cmd
}
