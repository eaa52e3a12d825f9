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

	"github.com/tomnet-org/tomnet/keystore"
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the node id and encryption key for a stored identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := keystore.NewFileStore(storageDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}

	id, err := store.Load(name)
	if err != nil {
		return fmt.Errorf("load identity %q: %w", name, err)
	}

	fmt.Printf("Name:       %s\n", name)
	fmt.Printf("Node ID:    %s\n", id.NodeID().String())
	fmt.Printf("Enc Pubkey: %s\n", hex.EncodeToString(id.X25519EncPub[:]))
	return nil
}
