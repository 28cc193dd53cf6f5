package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/crypto"
)

var keygenFlags struct {
	keyID string
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate encryption key material",
	Long: `Generate a random 256-bit master key for envelope encryption.

The material is printed as hex, ready for a crypto.keys entry in the
configuration file or the environment variable it references. With
--id, a complete configuration snippet is printed instead.

Examples:
  # Raw hex material
  vesta keygen

  # Ready-to-paste config snippet
  vesta keygen --id key-2026`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		material, err := crypto.GenerateMaterial()
		if err != nil {
			return fmt.Errorf("generate key material: %w", err)
		}
		encoded := hex.EncodeToString(material)
		crypto.Zero(material)

		if keygenFlags.keyID == "" {
			fmt.Println(encoded)
			return nil
		}
		fmt.Printf("crypto:\n")
		fmt.Printf("  enabled: true\n")
		fmt.Printf("  active_key: %s\n", keygenFlags.keyID)
		fmt.Printf("  keys:\n")
		fmt.Printf("    - id: %s\n", keygenFlags.keyID)
		fmt.Printf("      material: %s\n", encoded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVar(&keygenFlags.keyID, "id", "", "print a config snippet using this key id")
}
