package domain

import (
	"fmt"
	"time"
)

// Direction of a firewall rule.
type Direction string

const (
	DirectionOutbound Direction = "out"
	DirectionInbound  Direction = "in"
)

// RuleAction is what a firewall rule does with matching traffic.
type RuleAction string

const (
	ActionAllow RuleAction = "allow"
	ActionBlock RuleAction = "block"
)

const rulePrefix = "NetGuard"

// FirewallRule is a rule managed through the privileged collaborator.
// A rule is scoped either to an application path or to a remote address.
type FirewallRule struct {
	Name            string     `json:"name"`
	ApplicationPath string     `json:"applicationPath,omitempty"`
	RemoteAddress   string     `json:"remoteAddress,omitempty"`
	RemotePort      uint32     `json:"remotePort,omitempty"`
	Direction       Direction  `json:"direction"`
	Action          RuleAction `json:"action"`
	Enabled         bool       `json:"enabled"`
}

// Target is the path or address the rule applies to.
func (r FirewallRule) Target() string {
	if r.ApplicationPath != "" {
		return r.ApplicationPath
	}
	if r.RemotePort != 0 {
		return fmt.Sprintf("%s:%d", r.RemoteAddress, r.RemotePort)
	}
	return r.RemoteAddress
}

// Validate checks the rule has exactly one scope and known enums.
func (r FirewallRule) Validate() error {
	if (r.ApplicationPath == "") == (r.RemoteAddress == "") {
		return fmt.Errorf("rule %q must target an application or a remote address", r.Name)
	}
	switch r.Direction {
	case DirectionInbound, DirectionOutbound:
	default:
		return fmt.Errorf("rule %q: unknown direction %q", r.Name, r.Direction)
	}
	switch r.Action {
	case ActionAllow, ActionBlock:
	default:
		return fmt.Errorf("rule %q: unknown action %q", r.Name, r.Action)
	}
	return nil
}

// BlockRuleName names a block rule: "NetGuard Block - <target> (Out)".
func BlockRuleName(target string, dir Direction) string {
	suffix := "(Out)"
	if dir == DirectionInbound {
		suffix = "(In)"
	}
	return fmt.Sprintf("%s Block - %s %s", rulePrefix, target, suffix)
}

// AllowRuleName names an allow rule: "NetGuard Allow - <target>".
func AllowRuleName(target string) string {
	return fmt.Sprintf("%s Allow - %s", rulePrefix, target)
}

// BlockRules returns the outbound and inbound pair used to block a target.
func BlockRules(appPath, remoteAddr string, remotePort uint32) []FirewallRule {
	base := FirewallRule{
		ApplicationPath: appPath,
		RemoteAddress:   remoteAddr,
		RemotePort:      remotePort,
		Action:          ActionBlock,
		Enabled:         true,
	}
	out, in := base, base
	out.Direction = DirectionOutbound
	out.Name = BlockRuleName(base.Target(), DirectionOutbound)
	in.Direction = DirectionInbound
	in.Name = BlockRuleName(base.Target(), DirectionInbound)
	return []FirewallRule{out, in}
}

// AllowRule returns the outbound allow rule for an application path.
func AllowRule(appPath string) FirewallRule {
	return FirewallRule{
		Name:            AllowRuleName(appPath),
		ApplicationPath: appPath,
		Direction:       DirectionOutbound,
		Action:          ActionAllow,
		Enabled:         true,
	}
}

// PendingConnection is an outbound attempt held by the interception
// collaborator until the user responds.
type PendingConnection struct {
	ID            string    `json:"id"`
	ProcessID     int32     `json:"processId"`
	ProcessName   string    `json:"processName"`
	ProcessPath   string    `json:"processPath"`
	RemoteAddress string    `json:"remoteAddress"`
	RemotePort    uint32    `json:"remotePort"`
	Protocol      string    `json:"protocol"`
	Timestamp     time.Time `json:"timestamp"`
}

// Verdict is a user's response to a pending connection.
type Verdict struct {
	ID       string `json:"id"`
	Allow    bool   `json:"allow"`
	Remember bool   `json:"remember"`
}
