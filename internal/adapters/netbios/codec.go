// Package netbios queries the NetBIOS name service (UDP 137) for the node
// status of a host and extracts its workstation name.
package netbios

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	// QueryLength is the size of a node status request.
	QueryLength = 50
	// minResponseLength covers the header, question, answer header and name count.
	minResponseLength = 57

	headerLength   = 12
	rrFixedLength  = 10
	nameEntryLen   = 18
	maxNameEntries = 50

	typeNBSTAT  = 0x0021
	classIN     = 0x0001
	flagGroup   = 0x8000
	suffixWork  = 0x00
	suffixFiles = 0x20
)

var (
	ErrNotResponse   = errors.New("netbios: packet is not a response")
	ErrShortResponse = errors.New("netbios: response too short")
	ErrMalformedName = errors.New("netbios: malformed name")
	ErrBadNameCount  = errors.New("netbios: name count out of range")
	ErrNoUniqueName  = errors.New("netbios: no unique workstation name")
)

// NameEntry is one row of the node status name table.
type NameEntry struct {
	Name   string
	Suffix byte
	Flags  uint16
}

// IsGroup reports group-type entries (workgroup, domain).
func (e NameEntry) IsGroup() bool {
	return e.Flags&flagGroup != 0
}

// EncodeNodeStatusQuery builds the wildcard node status request.
func EncodeNodeStatusQuery(txID uint16) []byte {
	buf := make([]byte, QueryLength)
	binary.BigEndian.PutUint16(buf[0:2], txID)
	// flags 0, QDCOUNT 1, AN/NS/AR 0
	binary.BigEndian.PutUint16(buf[4:6], 1)

	buf[12] = 0x20
	name := [16]byte{'*'}
	for i, b := range name {
		buf[13+2*i] = 'A' + b>>4
		buf[13+2*i+1] = 'A' + b&0x0F
	}
	buf[45] = 0x00
	binary.BigEndian.PutUint16(buf[46:48], typeNBSTAT)
	binary.BigEndian.PutUint16(buf[48:50], classIN)
	return buf
}

// ParseNodeStatus decodes the name table of a node status response.
func ParseNodeStatus(resp []byte) ([]NameEntry, error) {
	if len(resp) < 3 || resp[2]&0x80 == 0 {
		return nil, ErrNotResponse
	}
	if len(resp) < minResponseLength {
		return nil, ErrShortResponse
	}

	off := headerLength
	off, err := skipName(resp, off)
	if err != nil {
		return nil, fmt.Errorf("question: %w", err)
	}
	off += 4 // question type and class

	if off, err = skipName(resp, off); err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	off += rrFixedLength // type, class, ttl, rdlength

	if off >= len(resp) {
		return nil, ErrShortResponse
	}
	count := int(resp[off])
	off++
	if count < 1 || count > maxNameEntries {
		return nil, ErrBadNameCount
	}

	entries := make([]NameEntry, 0, count)
	for i := 0; i < count; i++ {
		if off+nameEntryLen > len(resp) {
			break
		}
		raw := resp[off : off+nameEntryLen]
		entries = append(entries, NameEntry{
			Name:   cleanName(raw[:15]),
			Suffix: raw[15],
			Flags:  binary.BigEndian.Uint16(raw[16:18]),
		})
		off += nameEntryLen
	}
	return entries, nil
}

// WorkstationName returns the first unique entry tagged as workstation or file server.
func WorkstationName(entries []NameEntry) (string, error) {
	for _, e := range entries {
		if e.IsGroup() {
			continue
		}
		if (e.Suffix == suffixWork || e.Suffix == suffixFiles) && e.Name != "" {
			return e.Name, nil
		}
	}
	return "", ErrNoUniqueName
}

// skipName advances past a compressed pointer or a label sequence.
func skipName(b []byte, off int) (int, error) {
	if off >= len(b) {
		return off, ErrShortResponse
	}
	if b[off]&0xC0 == 0xC0 {
		return off + 2, nil
	}
	for off < len(b) {
		l := int(b[off])
		if l == 0 {
			return off + 1, nil
		}
		if l > 63 {
			return off, ErrMalformedName
		}
		off += l + 1
	}
	return off, ErrShortResponse
}

func cleanName(raw []byte) string {
	var sb strings.Builder
	for _, c := range raw {
		if c >= 0x20 && c < 0x7F {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}
