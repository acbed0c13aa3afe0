package netbios

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNodeStatusQuery(t *testing.T) {
	q := EncodeNodeStatusQuery(0x8228)
	require.Len(t, q, QueryLength)

	assert.Equal(t, []byte{0x82, 0x28}, q[0:2])
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(q[2:4]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(q[4:6]))
	assert.Equal(t, byte(0x20), q[12])
	// '*' is 0x2A, first-level encoded as "CK", NUL padding as "AA"
	assert.Equal(t, "CK", string(q[13:15]))
	for i := 15; i < 45; i++ {
		assert.Equal(t, byte('A'), q[i], "offset %d", i)
	}
	assert.Equal(t, byte(0), q[45])
	assert.Equal(t, uint16(0x0021), binary.BigEndian.Uint16(q[46:48]))
	assert.Equal(t, uint16(0x0001), binary.BigEndian.Uint16(q[48:50]))
}

type testEntry struct {
	name   string
	suffix byte
	flags  uint16
}

// buildResponse echoes the question, then answers with the given name table.
func buildResponse(pointer bool, entries []testEntry) []byte {
	q := EncodeNodeStatusQuery(0x8228)
	resp := append([]byte{}, q[:12]...)
	resp[2] = 0x84 // response, authoritative
	binary.BigEndian.PutUint16(resp[4:6], 0)
	binary.BigEndian.PutUint16(resp[6:8], 1)

	resp = append(resp, q[12:50]...)
	if pointer {
		resp = append(resp, 0xC0, 0x0C)
	} else {
		resp = append(resp, q[12:46]...)
	}
	rr := make([]byte, 10)
	binary.BigEndian.PutUint16(rr[0:2], 0x0021)
	binary.BigEndian.PutUint16(rr[2:4], 0x0001)
	resp = append(resp, rr...)

	resp = append(resp, byte(len(entries)))
	for _, e := range entries {
		raw := make([]byte, 18)
		copy(raw, []byte(e.name))
		for i := len(e.name); i < 15; i++ {
			raw[i] = ' '
		}
		raw[15] = e.suffix
		binary.BigEndian.PutUint16(raw[16:18], e.flags)
		resp = append(resp, raw...)
	}
	// statistics block
	return append(resp, make([]byte, 46)...)
}

func TestParseNodeStatus_UniqueWorkstation(t *testing.T) {
	resp := buildResponse(false, []testEntry{
		{"WORKGROUP", 0x00, 0x8400},
		{"DESKTOP-7F3K", 0x00, 0x0400},
		{"DESKTOP-7F3K", 0x20, 0x0400},
	})

	entries, err := ParseNodeStatus(resp)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].IsGroup())
	assert.Equal(t, "DESKTOP-7F3K", entries[1].Name)

	name, err := WorkstationName(entries)
	require.NoError(t, err)
	assert.Equal(t, "DESKTOP-7F3K", name)
}

func TestParseNodeStatus_CompressedAnswerName(t *testing.T) {
	resp := buildResponse(true, []testEntry{
		{"NAS", 0x20, 0x0000},
	})

	entries, err := ParseNodeStatus(resp)
	require.NoError(t, err)
	name, err := WorkstationName(entries)
	require.NoError(t, err)
	assert.Equal(t, "NAS", name)
}

func TestParseNodeStatus_OnlyGroupNames(t *testing.T) {
	resp := buildResponse(false, []testEntry{
		{"WORKGROUP", 0x00, 0x8000},
		{"MSBROWSE", 0x01, 0x8000},
	})
	entries, err := ParseNodeStatus(resp)
	require.NoError(t, err)

	_, err = WorkstationName(entries)
	assert.ErrorIs(t, err, ErrNoUniqueName)
}

func TestParseNodeStatus_SkipsOtherSuffixes(t *testing.T) {
	resp := buildResponse(false, []testEntry{
		{"PRINTER01", 0x03, 0x0400},
		{"PRINTER01", 0x20, 0x0400},
	})
	entries, err := ParseNodeStatus(resp)
	require.NoError(t, err)

	name, err := WorkstationName(entries)
	require.NoError(t, err)
	assert.Equal(t, "PRINTER01", name)
}

func TestParseNodeStatus_Rejects(t *testing.T) {
	query := EncodeNodeStatusQuery(1)
	_, err := ParseNodeStatus(query)
	assert.ErrorIs(t, err, ErrNotResponse)

	short := make([]byte, 40)
	short[2] = 0x84
	_, err = ParseNodeStatus(short)
	assert.ErrorIs(t, err, ErrShortResponse)

	bad := buildResponse(false, []testEntry{{"X", 0x00, 0}})
	bad[12] = 0x50 // label longer than 63
	_, err = ParseNodeStatus(bad)
	assert.ErrorIs(t, err, ErrMalformedName)

	zero := buildResponse(true, nil)
	_, err = ParseNodeStatus(zero)
	assert.ErrorIs(t, err, ErrBadNameCount)
}

func TestParseNodeStatus_TruncatedTable(t *testing.T) {
	resp := buildResponse(true, []testEntry{{"HOST", 0x00, 0}, {"HOST", 0x20, 0}})
	// keep the first entry only, plus enough bytes to satisfy the minimum length
	cut := 12 + 38 + 2 + 10 + 1 + 18
	entries, err := ParseNodeStatus(resp[:cut])
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
