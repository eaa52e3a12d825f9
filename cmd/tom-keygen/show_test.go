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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShowExistingIdentity(t *testing.T) {
	withTempStore(t)
	require.NoError(t, runGenerate(nil, []string{"node"}))
	assert.NoError(t, runShow(nil, []string{"node"}))
}

func TestRunShowMissingIdentity(t *testing.T) {
	withTempStore(t)
	assert.Error(t, runShow(nil, []string{"missing"}))
}
