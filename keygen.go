package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"voting-registrar/models"
	"voting-registrar/voting"
)

var keygenRole string

func init() {
	keygenCmd.Flags().StringVar(&keygenRole, "role", "voter", "Key pair to generate: main-voting, registrar, voter or entry")
	rootCmd.AddCommand(keygenCmd)
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a fresh key pair as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			pair models.KeyPairJSON
			err  error
		)
		switch keygenRole {
		case "main-voting":
			pair, err = voting.GenerateMainVotingKeyPair(config.KidLength, rand.Reader)
		case "registrar":
			pair, err = voting.GenerateRegistrarKeyPair(config.KidLength, rand.Reader)
		case "voter", "voting":
			pair, err = voting.GenerateVotingKeyPair(config.KidLength, rand.Reader)
		case "entry":
			pair, err = voting.GenerateEntryKeyPair(config.KidLength, rand.Reader)
		default:
			return fmt.Errorf("unknown role %q", keygenRole)
		}
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(pair, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
