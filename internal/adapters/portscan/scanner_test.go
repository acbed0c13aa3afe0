package portscan

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	open := ln.Addr().(*net.TCPAddr).Port
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := closed.Addr().(*net.TCPAddr).Port
	closed.Close()

	res := NewScanner().Scan(context.Background(), "127.0.0.1", []int{closedPort, open})
	require.Len(t, res, 1)
	assert.Equal(t, open, res[0].Port)
	assert.True(t, res[0].Open)
	assert.Equal(t, "Unknown", res[0].Service, "port "+strconv.Itoa(open))
}

func TestCommonPorts(t *testing.T) {
	ports := CommonPorts()
	assert.Len(t, ports, 21)
	assert.Equal(t, 21, ports[0])
	assert.Equal(t, 9100, ports[len(ports)-1])
}
