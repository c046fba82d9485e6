package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-sentry/internal/config"
	"github.com/kozaktomas/face-sentry/internal/database"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Manage enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	RunE:  runIdentitiesList,
}

var identitiesDeleteCmd = &cobra.Command{
	Use:   "delete <identity-id>",
	Short: "Delete all embeddings for an identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitiesDelete,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesDeleteCmd)
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.identities.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	type entry struct {
		name     string
		captures int
	}
	byID := make(map[string]*entry)
	var ids []string
	for _, row := range rows {
		e, ok := byID[row.IdentityID]
		if !ok {
			e = &entry{name: row.DisplayName}
			byID[row.IdentityID] = e
			ids = append(ids, row.IdentityID)
		}
		e.captures++
	}
	sort.Slice(ids, func(i, j int) bool {
		a := database.NormalizeDisplayName(byID[ids[i]].name)
		b := database.NormalizeDisplayName(byID[ids[j]].name)
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})

	fmt.Printf("%-38s %-24s %s\n", "IDENTITY", "NAME", "CAPTURES")
	for _, id := range ids {
		e := byID[id]
		fmt.Printf("%-38s %-24s %d\n", id, e.name, e.captures)
	}
	return nil
}

func runIdentitiesDelete(cmd *cobra.Command, args []string) error {
	identityID := args[0]

	cfg := config.Load()

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.identities.DeleteIdentity(ctx, identityID)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if removed == 0 {
		fmt.Printf("No embeddings found for identity %s\n", identityID)
		return nil
	}

	fmt.Printf("Deleted %d embeddings for identity %s\n", removed, identityID)
	return nil
}
