package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolEvaluator_AllowlistAndNamespaceGate(t *testing.T) {
	ctx := context.Background()
	ev, err := NewToolEvaluator(ctx)
	require.NoError(t, err)

	allow, err := ev.AllowTool(ctx, ToolInput{
		Tool: "promql.instant", Namespace: "prod",
		Allowed:    []string{"promql.instant", "logs.tail"},
		Namespaces: []string{"prod", "staging"},
	})
	require.NoError(t, err)
	assert.True(t, allow)

	allow, err = ev.AllowTool(ctx, ToolInput{
		Tool: "aws.s3_bucket_location", Namespace: "prod",
		Allowed: []string{"promql.instant"},
	})
	require.NoError(t, err)
	assert.False(t, allow, "tool not in allowed_tools must be denied")

	allow, err = ev.AllowTool(ctx, ToolInput{
		Tool: "promql.instant", Namespace: "dev",
		Allowed:    []string{"promql.instant"},
		Namespaces: []string{"prod"},
	})
	require.NoError(t, err)
	assert.False(t, allow, "namespace outside allowlist must be denied")
}

func TestActionEvaluator_Transitions(t *testing.T) {
	ctx := context.Background()
	ev, err := NewActionEvaluator(ctx)
	require.NoError(t, err)

	allow, _ := ev.AllowAction(ctx, ActionInput{
		Transition: "propose", ActionType: "restart_pod", TypeAllowlist: []string{"restart_pod"},
	})
	assert.True(t, allow)

	allow, _ = ev.AllowAction(ctx, ActionInput{Transition: "execute", CurrentStatus: "proposed", AllowExecute: true})
	assert.False(t, allow, "execute requires approved status")

	allow, _ = ev.AllowAction(ctx, ActionInput{Transition: "execute", CurrentStatus: "approved", AllowExecute: false})
	assert.False(t, allow, "execute requires allow_execute")

	allow, _ = ev.AllowAction(ctx, ActionInput{Transition: "execute", CurrentStatus: "approved", AllowExecute: true})
	assert.True(t, allow)
}
