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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomnet-org/tomnet/keystore"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored identity",
	Long: `Delete a stored identity's seed file. This is irreversible: a deleted
seed cannot be recovered, and any node still using that node id will no
longer be able to sign envelopes for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if !deleteYes {
		fmt.Printf("This permanently deletes identity %q from %s.\n", name, storageDir)
		fmt.Print("Are you sure you want to continue? (yes/no): ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if strings.ToLower(confirmation) != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	store, err := keystore.NewFileStore(storageDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	if err := store.Delete(name); err != nil {
		return fmt.Errorf("delete identity %q: %w", name, err)
	}

	fmt.Printf("Deleted identity %q\n", name)
	return nil
}
