package networkdrive

import (
	"context"
	"errors"
	"testing"

	"connector-service/core/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseOutput(t *testing.T) {
	out := parseOutput(table("alice         S-1-5-21-1001", "Domain Admins S-1-5-21-512", "", "garbage"))
	assert.Equal(t, []Principal{
		{Name: "alice", SID: "S-1-5-21-1001"},
		{Name: "Domain Admins", SID: "S-1-5-21-512"},
	}, out)
}

func TestParseOutput_Short(t *testing.T) {
	assert.Nil(t, parseOutput(""))
	assert.Nil(t, parseOutput("Name SID\n----"))
	assert.Empty(t, parseOutput("\nName SID\n---- ---\n"))
}

func identityShell(env *testEnv) {
	env.shell.outputs[getUsersCommand] = table("alice S-1-5-21-1001", "bob   S-1-5-21-1002")
	env.shell.outputs[getGroupsCommand] = table("eng S-1-5-21-2001", "ops S-1-5-21-2002")
	env.shell.outputs[`Get-LocalGroupMember -Name "eng" | Select-Object Name, SID`] = table(`HOST\alice S-1-5-21-1001`)
	env.shell.outputs[`Get-LocalGroupMember -Name "ops" | Select-Object Name, SID`] = table(`HOST\bob S-1-5-21-1002`, `HOST\carol S-1-5-21-1003`)
}

func TestGetAccessControl(t *testing.T) {
	env := newTestEnv(t, newFakeShare(), true, nil)
	identityShell(env)

	var docs []*source.IdentityDocument
	for doc, err := range env.source.GetAccessControl(context.Background()) {
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)

	alice := docs[0]
	assert.Equal(t, "S-1-5-21-1001", alice.ID)
	assert.Equal(t, source.Identity{Username: "user:alice", UserID: "sid:S-1-5-21-1001"}, alice.Identity)
	assert.Equal(t, []string{"sid:S-1-5-21-1001", "user:alice", "sid:S-1-5-21-2001"}, alice.AccessControl)
	assert.Equal(t, testTime, alice.CreatedAt)

	bob := docs[1]
	assert.Equal(t, []string{"sid:S-1-5-21-1002", "user:bob", "sid:S-1-5-21-2002"}, bob.AccessControl)
}

func TestGetAccessControl_DLSDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	env := newTestEnv(t, newFakeShare(), false, zap.New(core))

	count := 0
	for range env.source.GetAccessControl(context.Background()) {
		count++
	}
	assert.Zero(t, count)
	assert.Empty(t, env.shell.calls)
	assert.Equal(t, 1, logs.FilterMessage("DLS is not enabled. Skipping").Len())
}

func TestGetAccessControl_MemberFailure(t *testing.T) {
	env := newTestEnv(t, newFakeShare(), true, nil)
	identityShell(env)
	env.shell.errs["Get-LocalGroupMember"] = errors.New("access denied")

	var got error
	for _, err := range env.source.GetAccessControl(context.Background()) {
		got = err
	}
	assert.ErrorContains(t, got, "access denied")
}

func TestSecurityInfo_Descriptor_QuotesPath(t *testing.T) {
	shell := &fakeShell{outputs: map[string]string{
		aclScript(`\\srv\Share\it''s`): "D:(A;;FA;;;SY)\r\n",
	}}
	si := NewSecurityInfo(Config{}, func(cfg Config) (RemoteShell, error) { return shell, nil })

	sddl, err := si.Descriptor(context.Background(), `\\srv\Share\it's`)
	require.NoError(t, err)
	assert.Equal(t, "D:(A;;FA;;;SY)", sddl)
}

func TestSecurityInfo_ShellFactoryError(t *testing.T) {
	si := NewSecurityInfo(Config{}, func(cfg Config) (RemoteShell, error) { return nil, errors.New("no winrm") })
	_, err := si.FetchUsers(context.Background())
	assert.ErrorContains(t, err, "no winrm")
}
