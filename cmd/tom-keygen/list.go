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

	"github.com/spf13/cobra"

	"github.com/tomnet-org/tomnet/keystore"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities held in the keystore",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := keystore.NewFileStore(storageDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("list keystore: %w", err)
	}

	if len(names) == 0 {
		fmt.Printf("No identities in %s\n", storageDir)
		return nil
	}

	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
