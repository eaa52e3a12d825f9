// Copyright (C) 2025 tomnet-org
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/keystore"
)

var generateForce bool

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new identity and store it",
	Long: `Generate a fresh Ed25519 identity seed and persist it under name in the
keystore directory.

EXAMPLES:
  # Generate the default node identity
  tom-keygen generate node

  # Generate into a custom keystore directory
  tom-keygen generate node --store /etc/tomnet/keys`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "Overwrite an existing identity with the same name")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := keystore.NewFileStore(storageDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}

	if store.Exists(name) && !generateForce {
		return fmt.Errorf("identity %q already exists in %s (use --force to overwrite)", name, storageDir)
	}

	id, err := identity.Generate()
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}
	if err := store.Save(name, id); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}

	fmt.Printf("Generated identity %q\n", name)
	fmt.Printf("  Node ID:    %s\n", id.NodeID().String())
	fmt.Printf("  Enc Pubkey: %s\n", hex.EncodeToString(id.X25519EncPub[:]))
	fmt.Printf("  Store:      %s\n", storageDir)
	return nil
}
