package mcp

import (
	"context"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hmahadik/traq/internal/transport"
)

func TestSessionMiddleware_ReadsHeader(t *testing.T) {
	var seen string
	handler := sessionMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		seen = getSessionID(ctx)
		return nil, nil
	})

	req := &sdkmcp.CallToolRequest{
		Params: &sdkmcp.CallToolParamsRaw{Name: "list_projects"},
		Extra:  &sdkmcp.RequestExtra{Header: http.Header{"Mcp-Session-Id": {"sess-1"}}},
	}
	_, err := handler(context.Background(), "tools/call", req)
	require.NoError(t, err)
	require.Equal(t, "sess-1", seen)
}

func TestSessionMiddleware_ReadsMeta(t *testing.T) {
	var seen string
	handler := sessionMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		seen = getSessionID(ctx)
		return nil, nil
	})

	req := &sdkmcp.CallToolRequest{
		Params: &sdkmcp.CallToolParamsRaw{Name: "list_projects", Meta: sdkmcp.Meta{"session_id": "stdio-7"}},
	}
	_, err := handler(context.Background(), "tools/call", req)
	require.NoError(t, err)
	require.Equal(t, "stdio-7", seen)
}

func TestAuthMiddleware_RequiresToken(t *testing.T) {
	handler := authMiddleware(transport.StaticTokens{"secret": "laptop"})(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		require.Equal(t, "laptop", getClientID(ctx))
		return nil, nil
	})

	call := func(header http.Header) error {
		_, err := handler(context.Background(), "tools/call", &sdkmcp.CallToolRequest{
			Params: &sdkmcp.CallToolParamsRaw{Name: "list_projects"},
			Extra:  &sdkmcp.RequestExtra{Header: header},
		})
		return err
	}
	require.ErrorContains(t, call(http.Header{}), "missing bearer token")
	require.ErrorContains(t, call(http.Header{"Authorization": {"Bearer nope"}}), "unauthorized")
	require.NoError(t, call(http.Header{"Authorization": {"Bearer secret"}}))
}
