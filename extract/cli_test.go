/*
 * Copyright 2025 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FromCLI_LogicalPartitions(t *testing.T) {
	out := "lpar1,1,12345AB,Running,AIX 7.2,8192,2.0\n" +
		"lpar2,2,12345AC,Not Activated,,4096,0.5\n"

	res, err := FromCLI(LogicalPartitions, []byte(out))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 0, res.Skipped)

	rec := res.Records[0]
	assert.Equal(t, "lpar1", rec["name"])
	assert.Equal(t, "1", rec["partition_id"])
	assert.Equal(t, "12345AB", rec["serial_number"])
	assert.Equal(t, "Running", rec["state"])
	assert.Equal(t, "AIX 7.2", rec["os_version"])
	assert.Equal(t, "8192", rec["memory_mb"])
	assert.Equal(t, "2.0", rec["processor_units_current"])

	// empty non-key fields stay empty, the record still counts
	assert.Equal(t, "", res.Records[1]["os_version"])
}

func Test_FromCLI_ManagedSystems(t *testing.T) {
	out := "p950-prod-01,06AB123,9009-42A,Operating,FW950.30\r\n" +
		"p950-prod-02,06AB124,9009-42A,Standby,FW950.30\r\n"

	res, err := FromCLI(ManagedSystems, []byte(out))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "p950-prod-01", res.Records[0]["name"])
	assert.Equal(t, "9009-42A", res.Records[0]["type_model"])
	assert.Equal(t, "p950-prod-02", res.Records[1]["name"])
}

func Test_FromCLI_SkipsMalformedLines(t *testing.T) {
	out := "U78CB.001.WZS0001-P1-C2,PCIe2 4-port 1GbE Adapter,P1-C2\n" +
		"only,two\n" +
		",missing key field,P1-C3\n" +
		"\n" +
		"U78CB.001.WZS0001-P1-C4,PCIe3 FC Adapter,P1-C4\n"

	res, err := FromCLI(IOAdapters, []byte(out))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "U78CB.001.WZS0001-P1-C2", res.Records[0]["drc_name"])
	assert.Equal(t, "U78CB.001.WZS0001-P1-C4", res.Records[1]["drc_name"])
}

func Test_FromCLI_UnknownKind(t *testing.T) {
	_, err := FromCLI(Kind("tapes"), []byte("a,b,c\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownKind)
}
