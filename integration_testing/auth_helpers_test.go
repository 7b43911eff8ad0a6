package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/olucas46/Pump-Di-rio/internal/auth"

	"github.com/stretchr/testify/require"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func doRegister(ctx context.Context, t *testing.T, username, password string) {
	creds := credentials{
		Username: username,
		Password: password,
	}
	credsJson, err := json.Marshal(creds)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/register", serverEndpoint), bytes.NewBuffer(credsJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	// the test user may have been registered by a previous test
	if resp.StatusCode != http.StatusConflict {
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
}

func doLogin(ctx context.Context, t *testing.T) string {
	creds := credentials{
		Username: testUsername,
		Password: testPassword,
	}
	credsJson, err := json.Marshal(creds)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/a/login", serverEndpoint), bytes.NewBuffer(credsJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, respBytes)

	var loginResp auth.LoginResponse
	require.NoError(t, json.Unmarshal(respBytes, &loginResp))

	return loginResp.Token
}
