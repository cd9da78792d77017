package networkdrive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/masterzen/winrm"
	"golang.org/x/sync/errgroup"
)

const (
	getUsersCommand        = "Get-LocalUser | Select Name, SID"
	getGroupsCommand       = "Get-LocalGroup | Select-Object Name, SID"
	getGroupMembersCommand = `Get-LocalGroupMember -Name "%s" | Select-Object Name, SID`
	getSDDLCommand         = "(Get-Acl -LiteralPath '%s').Sddl"

	memberFetchLimit = 4
)

// RemoteShell runs PowerShell on the file server.
type RemoteShell interface {
	Run(ctx context.Context, script string) (string, error)
}

// ShellFactory creates the remote shell of a source.
type ShellFactory func(cfg Config) (RemoteShell, error)

type winrmShell struct {
	client *winrm.Client
}

// NewWinRMShell connects to the WinRM service of the file server with NTLM.
func NewWinRMShell(cfg Config) (RemoteShell, error) {
	endpoint := winrm.NewEndpoint(cfg.ServerIP, cfg.WinRMPort, false, true, nil, nil, nil, cfg.Timeout)
	params := winrm.NewParameters("PT60S", "en-US", 153600)
	params.TransportDecorator = func() winrm.Transporter { return &winrm.ClientNTLM{} }

	client, err := winrm.NewClientWithParameters(endpoint, cfg.Username, cfg.Password, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create WinRM client: %w", err)
	}
	return &winrmShell{client: client}, nil
}

func (w *winrmShell) Run(ctx context.Context, script string) (string, error) {
	var stdout, stderr bytes.Buffer
	code, err := w.client.RunWithContext(ctx, winrm.Powershell(script), &stdout, &stderr)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("command exited with code %d: %s", code, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Principal is a named security principal.
type Principal struct {
	Name string
	SID  string
}

// parseOutput reads a two column table printed by PowerShell. The leading
// blank, header and separator lines are dropped; each row splits on its last
// run of whitespace so names may contain spaces.
func parseOutput(raw string) []Principal {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) <= 2 {
		return nil
	}

	var out []Principal
	for _, line := range lines[3:] {
		line = strings.TrimSpace(line)
		cut := strings.LastIndexAny(line, " \t")
		if cut < 0 {
			continue
		}
		name := strings.TrimSpace(line[:cut])
		sid := strings.TrimSpace(line[cut+1:])
		if name == "" || sid == "" {
			continue
		}
		out = append(out, Principal{Name: name, SID: sid})
	}
	return out
}

// SecurityInfo queries identities and security descriptors on the file server.
type SecurityInfo struct {
	newShell ShellFactory
	cfg      Config

	mu    sync.Mutex
	shell RemoteShell
}

// NewSecurityInfo creates a lazily connected SecurityInfo.
func NewSecurityInfo(cfg Config, newShell ShellFactory) *SecurityInfo {
	if newShell == nil {
		newShell = NewWinRMShell
	}
	return &SecurityInfo{cfg: cfg, newShell: newShell}
}

func (si *SecurityInfo) run(ctx context.Context, script string) (string, error) {
	si.mu.Lock()
	if si.shell == nil {
		shell, err := si.newShell(si.cfg)
		if err != nil {
			si.mu.Unlock()
			return "", err
		}
		si.shell = shell
	}
	shell := si.shell
	si.mu.Unlock()

	return shell.Run(ctx, script)
}

func (si *SecurityInfo) list(ctx context.Context, script string) ([]Principal, error) {
	out, err := si.run(ctx, script)
	if err != nil {
		return nil, err
	}
	return parseOutput(out), nil
}

// FetchUsers lists the local users.
func (si *SecurityInfo) FetchUsers(ctx context.Context) ([]Principal, error) {
	return si.list(ctx, getUsersCommand)
}

// FetchGroups lists the local groups.
func (si *SecurityInfo) FetchGroups(ctx context.Context) ([]Principal, error) {
	return si.list(ctx, getGroupsCommand)
}

// FetchMembers lists the members of a local group.
func (si *SecurityInfo) FetchMembers(ctx context.Context, group string) ([]Principal, error) {
	return si.list(ctx, fmt.Sprintf(getGroupMembersCommand, strings.ReplaceAll(group, `"`, "`\"")))
}

// FetchAllMembers lists the members of every group, a bounded number of groups at a time.
func (si *SecurityInfo) FetchAllMembers(ctx context.Context, groups []Principal) (map[string][]Principal, error) {
	members := make([][]Principal, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberFetchLimit)
	for i, group := range groups {
		g.Go(func() error {
			m, err := si.FetchMembers(gctx, group.Name)
			if err != nil {
				return fmt.Errorf("failed to list members of %s: %w", group.Name, err)
			}
			members[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]Principal, len(groups))
	for i, group := range groups {
		out[group.Name] = members[i]
	}
	return out, nil
}

// Descriptor returns the SDDL security descriptor of a UNC path.
func (si *SecurityInfo) Descriptor(ctx context.Context, unc string) (string, error) {
	out, err := si.run(ctx, fmt.Sprintf(getSDDLCommand, strings.ReplaceAll(unc, "'", "''")))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
