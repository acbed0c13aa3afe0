package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockRulesForApplication(t *testing.T) {
	rules := BlockRules(`C:\Apps\game.exe`, "", 0)
	require.Len(t, rules, 2)

	assert.Equal(t, `NetGuard Block - C:\Apps\game.exe (Out)`, rules[0].Name)
	assert.Equal(t, DirectionOutbound, rules[0].Direction)
	assert.Equal(t, `NetGuard Block - C:\Apps\game.exe (In)`, rules[1].Name)
	assert.Equal(t, DirectionInbound, rules[1].Direction)
	for _, r := range rules {
		assert.Equal(t, ActionBlock, r.Action)
		assert.NoError(t, r.Validate())
	}
}

func TestBlockRulesForRemote(t *testing.T) {
	rules := BlockRules("", "203.0.113.9", 8443)
	assert.Equal(t, "NetGuard Block - 203.0.113.9:8443 (Out)", rules[0].Name)
	assert.Equal(t, "203.0.113.9", rules[0].RemoteAddress)
}

func TestAllowRule(t *testing.T) {
	r := AllowRule("/usr/bin/curl")
	assert.Equal(t, "NetGuard Allow - /usr/bin/curl", r.Name)
	assert.Equal(t, ActionAllow, r.Action)
	assert.NoError(t, r.Validate())
}

func TestFirewallRuleValidate(t *testing.T) {
	both := FirewallRule{Name: "x", ApplicationPath: "/a", RemoteAddress: "1.1.1.1", Direction: DirectionOutbound, Action: ActionBlock}
	assert.Error(t, both.Validate())

	neither := FirewallRule{Name: "x", Direction: DirectionOutbound, Action: ActionBlock}
	assert.Error(t, neither.Validate())

	badDir := FirewallRule{Name: "x", ApplicationPath: "/a", Direction: "up", Action: ActionBlock}
	assert.Error(t, badDir.Validate())
}
